// Package ppu renders the Game Boy's background, window and sprite
// layers scanline-by-scanline. It is grounded in the teacher's
// internal/ppu.PPU (field layout: lcd.Controller/lcd.Status embedding,
// a two-bank VRAM array, a palette block, a double-buffered output
// frame) but replaces its scheduler-driven, sub-instruction T-cycle
// event loop with the fixed-length mode-timing model spec.md §4.3
// describes explicitly: Mode 2 (OAM scan) for 80 T-cycles, Mode 3
// (transfer) for 172, Mode 0 (HBlank) for 204, 456 T-cycles per
// scanline, 154 scanlines per frame.
package ppu

import (
	"gbcore/internal/interrupts"
	"gbcore/internal/ppu/lcd"
	"gbcore/internal/ppu/palette"
	"gbcore/internal/types"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	cyclesOAMScan  = 80
	cyclesTransfer = 172
	cyclesHBlank   = 204
	cyclesPerLine  = cyclesOAMScan + cyclesTransfer + cyclesHBlank // 456
	linesPerFrame  = 154
)

// Frame is one rendered RGB888 screen.
type Frame [ScreenHeight][ScreenWidth][3]uint8

// spriteAttr mirrors one 4-byte OAM entry.
type spriteAttr struct {
	y, x, tile, flags uint8
}

// PPU owns VRAM, OAM, the LCD registers and the palettes, and produces
// one Frame per pass through VBlank.
type PPU struct {
	model types.Model
	irq   *interrupts.Service

	lcdc lcd.Controller
	stat lcd.Status

	scy, scx, ly, lyc, wy, wx uint8
	windowLine                uint8

	bgp, obp0, obp1 palette.Monochrome
	bgCGB, objCGB   palette.CGB

	vram   [2][0x2000]byte
	vbk    uint8
	oam    [0xA0]byte

	// bgAttrAt caches the CGB background-palette index used by each
	// pixel of the scanline currently being rendered, set in
	// renderBackground/renderWindow and read back by bgColor.
	bgAttrAt [ScreenWidth]uint8

	lineCycles uint16

	front, back *Frame
	frameReady  bool

	statLineWasHigh bool
}

// New returns a PPU with the screen off, matching post-boot hardware
// state; the boot ROM (or gbcore.WithBootROM's caller) is responsible
// for turning it on via an LCDC write.
func New(model types.Model, irq *interrupts.Service) *PPU {
	return &PPU{model: model, irq: irq, front: &Frame{}, back: &Frame{}}
}

// Mode reports the PPU's current mode (implements mmu.VideoBus).
func (p *PPU) Mode() uint8 { return uint8(p.stat.Mode) }

// VBK reports the selected VRAM bank (implements mmu.VideoBus).
func (p *PPU) VBK() uint8 { return p.vbk }

// Frame returns the most recently completed frame. The caller must not
// mutate it; a later VBlank may recycle the backing array once the
// next frame is requested.
func (p *PPU) Frame() *Frame { return p.front }

// FrameReady reports whether a new frame has completed since the last
// call to FrameReady, and clears the flag.
func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

// Step advances the PPU by tCycles T-cycles, running the mode state
// machine and rendering each scanline as Mode 3 ends.
func (p *PPU) Step(tCycles uint16) {
	if !p.lcdc.Enabled {
		return
	}
	for tCycles > 0 {
		step := tCycles
		if step > 4 {
			step = 4
		}
		tCycles -= step
		p.lineCycles += step

		switch {
		case p.ly < ScreenHeight:
			switch {
			case p.lineCycles < cyclesOAMScan:
				p.setMode(lcd.OAMScan)
			case p.lineCycles < cyclesOAMScan+cyclesTransfer:
				if p.stat.Mode != lcd.Transfer {
					p.setMode(lcd.Transfer)
				}
			default:
				if p.stat.Mode != lcd.HBlank {
					p.renderScanline()
					p.setMode(lcd.HBlank)
				}
			}
		default:
			if p.stat.Mode != lcd.VBlank {
				p.setMode(lcd.VBlank)
			}
		}

		if p.lineCycles >= cyclesPerLine {
			p.lineCycles -= cyclesPerLine
			p.advanceLine()
		}
	}
}

func (p *PPU) advanceLine() {
	p.ly++
	if p.ly == ScreenHeight {
		p.irq.Request(interrupts.VBlank)
		p.front, p.back = p.back, p.front
		p.frameReady = true
		p.windowLine = 0
	}
	if p.ly >= linesPerFrame {
		p.ly = 0
	}
	p.checkLYC()
}

func (p *PPU) setMode(m lcd.Mode) {
	p.stat.Mode = m
	p.checkStatLine()
}

func (p *PPU) checkLYC() {
	p.stat.Coincidence = p.ly == p.lyc
	p.checkStatLine()
}

// checkStatLine requests LCDStat only on a 0->1 transition of the STAT
// interrupt line, matching real hardware's edge-triggered behavior
// (spec.md §4.3, §8) rather than re-firing every cycle the line is high.
func (p *PPU) checkStatLine() {
	high := p.stat.InterruptLine()
	if high && !p.statLineWasHigh {
		p.irq.Request(interrupts.LCDStat)
	}
	p.statLineWasHigh = high
}

// Read implements mmu.VideoBus for VRAM, OAM and the LCD register block.
func (p *PPU) Read(address uint16) uint8 {
	switch {
	case address >= 0x8000 && address <= 0x9FFF:
		if p.stat.Mode == lcd.Transfer {
			return 0xFF
		}
		return p.vram[p.vbk][address-0x8000]
	case address >= 0xFE00 && address <= 0xFE9F:
		if p.blocked() {
			return 0xFF
		}
		return p.oam[address-0xFE00]
	case address == types.LCDC:
		return p.lcdc.Read()
	case address == types.STAT:
		return p.stat.Read()
	case address == types.SCY:
		return p.scy
	case address == types.SCX:
		return p.scx
	case address == types.LY:
		return p.ly
	case address == types.LYC:
		return p.lyc
	case address == types.BGP:
		return p.bgp.Read()
	case address == types.OBP0:
		return p.obp0.Read()
	case address == types.OBP1:
		return p.obp1.Read()
	case address == types.WY:
		return p.wy
	case address == types.WX:
		return p.wx
	case address == types.VBK:
		return p.vbk | 0xFE
	case address == types.BCPS:
		return p.bgCGB.ReadSpec()
	case address == types.BCPD:
		return p.bgCGB.ReadData()
	case address == types.OCPS:
		return p.objCGB.ReadSpec()
	case address == types.OCPD:
		return p.objCGB.ReadData()
	}
	return 0xFF
}

// Write implements mmu.VideoBus for VRAM, OAM and the LCD register block.
func (p *PPU) Write(address uint16, value uint8) {
	switch {
	case address >= 0x8000 && address <= 0x9FFF:
		if p.stat.Mode != lcd.Transfer {
			p.vram[p.vbk][address-0x8000] = value
		}
	case address >= 0xFE00 && address <= 0xFE9F:
		if !p.blocked() {
			p.oam[address-0xFE00] = value
		}
	case address == types.LCDC:
		wasEnabled := p.lcdc.Enabled
		p.lcdc.Write(value)
		if !wasEnabled && p.lcdc.Enabled {
			p.setMode(lcd.OAMScan) // resumes at LY 0 in Mode 2
		}
		if wasEnabled && !p.lcdc.Enabled {
			p.ly = 0
			p.lineCycles = 0
			p.setMode(lcd.HBlank)
			*p.back = Frame{}
			p.front, p.back = p.back, p.front
			p.frameReady = true
		}
	case address == types.STAT:
		p.stat.Write(value)
		p.checkStatLine()
	case address == types.SCY:
		p.scy = value
	case address == types.SCX:
		p.scx = value
	case address == types.LY:
		// read-only; writes are ignored
	case address == types.LYC:
		p.lyc = value
		p.checkLYC()
	case address == types.BGP:
		p.bgp.Write(value)
	case address == types.OBP0:
		p.obp0.Write(value)
	case address == types.OBP1:
		p.obp1.Write(value)
	case address == types.WY:
		p.wy = value
	case address == types.WX:
		p.wx = value
	case address == types.VBK:
		if p.model == types.ModelCGB {
			p.vbk = value & 0x01
		}
	case address == types.BCPS:
		p.bgCGB.WriteSpec(value)
	case address == types.BCPD:
		p.bgCGB.WriteData(value)
	case address == types.OCPS:
		p.objCGB.WriteSpec(value)
	case address == types.OCPD:
		p.objCGB.WriteData(value)
	}
}

// blocked reports whether the CPU's direct OAM access is currently
// denied by the PPU's mode (spec.md §4.3, §8): OAM during Mode 2 and
// Mode 3. VRAM access is denied during Mode 3 only, checked directly in
// Read/Write.
func (p *PPU) blocked() bool {
	switch p.stat.Mode {
	case lcd.Transfer:
		return true
	case lcd.OAMScan:
		return true
	}
	return false
}

// DMAWriteOAM writes byte value to OAM offset offset, bypassing the
// mode-based access block (implements mmu.VideoBus).
func (p *PPU) DMAWriteOAM(offset uint8, value uint8) { p.oam[offset] = value }

// DMAWriteVRAM writes value to the currently-selected VRAM bank at
// address, bypassing the mode-based access block (implements
// mmu.VideoBus): used by HDMA transfers.
func (p *PPU) DMAWriteVRAM(address uint16, value uint8) {
	p.vram[p.vbk][address-0x8000] = value
}
