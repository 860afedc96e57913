// Package mmu maps the Game Boy's 64KiB address space onto the owned
// components a Core wires together: cartridge, work RAM, high RAM, the
// PPU's VRAM/OAM/register window, the timer, the joypad and the
// interrupt controller. It is adapted from the teacher's
// internal/mmu.MMU: the address-range switch in Read/Write is kept
// nearly verbatim, but the teacher's global registers.RegisterHardware
// dispatch table is replaced by direct delegation to owned component
// pointers (spec.md §9 forbids package-level mutable state), and the
// teacher's bios/CGB-boot split is generalized to a single byte-slice
// bootROM field sized for either model.
package mmu

import (
	"gbcore/internal/cartridge"
	"gbcore/internal/interrupts"
	"gbcore/internal/joypad"
	"gbcore/internal/timer"
	"gbcore/internal/types"
	"gbcore/pkg/log"
)

// VideoBus is the window the PPU exposes to the MMU: VRAM, OAM and the
// LCD register block share one Read/Write surface (0x8000-0x9FFF,
// 0xFE00-0xFE9F, 0xFF40-0xFF4B), plus the few extra hooks the MMU needs
// to drive DMA/HDMA and mode-gated access without owning PPU state
// itself. Implemented by *ppu.PPU; kept as a local interface so mmu
// never imports ppu (both take their address constants from
// internal/types).
type VideoBus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)

	// Mode reports the current PPU mode (0-3). The MMU does not call it:
	// the PPU's own Read/Write apply the mode-based VRAM/OAM access
	// block (spec.md §4.3, §8).
	Mode() uint8

	// DMAWriteOAM and DMAWriteVRAM bypass the mode-based access block,
	// matching real OAM DMA / CGB HDMA transfers which write to the PPU
	// directly rather than through the CPU bus.
	DMAWriteOAM(offset uint8, value uint8)
	DMAWriteVRAM(address uint16, value uint8)

	// VBK reports the currently-selected VRAM bank (CGB only; always 0
	// on DMG), needed so HDMA writes land in the bank the CPU selected.
	VBK() uint8
}

// MMU is the memory management unit. Its zero value is not usable;
// construct one with New.
type MMU struct {
	model types.Model
	log   log.Logger

	cart  *cartridge.Cartridge
	timer *timer.Controller
	pad   *joypad.State
	irq   *interrupts.Service
	video VideoBus

	bootROM      []byte
	bootDisabled bool

	wram     [8][0x1000]byte
	wramBank uint8 // SVBK, 1-7 on CGB; fixed at 1 on DMG

	hram [0x80]byte

	key1 uint8 // CGB speed-switch register; decoded, not acted on

	dma dmaState

	hdma1, hdma2, hdma3, hdma4 uint8
	hdmaLen                    uint8
	hdmaActive                 bool
	hdmaHBlankMode             bool
}

// dmaState tracks an in-flight OAM DMA transfer: spec.md §4.2 models it
// as a 160 machine-cycle (640 T-cycle, one byte per 4 T-cycles) block
// copy from dma.source<<8 into OAM, advanced one byte at a time so a
// CPU read mid-transfer sees a consistent partial state.
type dmaState struct {
	active bool
	source uint8
	offset uint16 // T-cycles elapsed since the startup delay, 0-639
	delay  uint8 // startup delay before the first byte copies
}

// New returns an MMU with work/high RAM zeroed and no boot ROM loaded.
func New(model types.Model, cart *cartridge.Cartridge, t *timer.Controller, pad *joypad.State, irq *interrupts.Service, logger log.Logger) *MMU {
	m := &MMU{model: model, cart: cart, timer: t, pad: pad, irq: irq, log: logger, wramBank: 1}
	return m
}

// AttachVideo wires the PPU in after both it and the MMU have been
// constructed, mirroring the teacher's AttachVideo (internal/mmu.MMU).
func (m *MMU) AttachVideo(v VideoBus) { m.video = v }

// SetBootROM installs a boot ROM image; reads below its length are
// served from it until the CPU writes to the BOOT disable latch
// (0xFF50).
func (m *MMU) SetBootROM(data []byte) { m.bootROM = data }

// Read returns the byte currently visible to the CPU at address,
// applying cartridge bank switching, WRAM/VRAM banking, OAM DMA
// blocking and MMIO dispatch.
func (m *MMU) Read(address uint16) uint8 {
	switch {
	case address <= 0x7FFF:
		if !m.bootDisabled && m.inBootROM(address) {
			return m.bootROM[address]
		}
		return m.cart.ReadROM(address)
	case address <= 0x9FFF:
		if m.dma.active {
			return 0xFF
		}
		return m.video.Read(address)
	case address <= 0xBFFF:
		return m.cart.ReadRAM(address)
	case address <= 0xCFFF:
		return m.wram[0][address-0xC000]
	case address <= 0xDFFF:
		return m.wram[m.effectiveWRAMBank()][address-0xD000]
	case address <= 0xFDFF: // echo of 0xC000-0xDDFF
		return m.Read(address - 0x2000)
	case address <= 0xFE9F:
		if m.dma.active {
			return 0xFF
		}
		return m.video.Read(address)
	case address <= 0xFEFF:
		return 0xFF
	case address == types.P1:
		return m.pad.Read(address)
	case address == types.DIV, address == types.TIMA, address == types.TMA, address == types.TAC:
		return m.timer.Read(address)
	case address == types.IF:
		return m.irq.Read(address)
	case address >= 0xFF40 && address <= 0xFF4B:
		return m.video.Read(address)
	case address == types.KEY1:
		if m.model == types.ModelCGB {
			return m.key1 | 0x7E
		}
		return 0xFF
	case address == types.VBK:
		if m.model == types.ModelCGB {
			return m.video.VBK() | 0xFE
		}
		return 0xFF
	case address == types.BOOT:
		return 0xFF
	case address >= types.HDMA1 && address <= types.HDMA5:
		return m.readHDMA(address)
	case address >= types.BCPS && address <= types.OCPD:
		return m.video.Read(address)
	case address == types.SVBK:
		if m.model == types.ModelCGB {
			return m.wramBank | 0xF8
		}
		return 0xFF
	case address <= 0xFF7F:
		if m.log != nil {
			m.log.Debugf("read from unmapped IO register 0x%04X", address)
		}
		return 0xFF
	case address <= 0xFFFE:
		return m.hram[address-0xFF80]
	case address == types.IE:
		return m.irq.Read(address)
	}
	return 0xFF
}

// Write stores value at address, applying the same dispatch as Read.
func (m *MMU) Write(address uint16, value uint8) {
	switch {
	case address <= 0x7FFF:
		m.cart.WriteROM(address, value)
	case address <= 0x9FFF:
		if !m.dma.active {
			m.video.Write(address, value)
		}
	case address <= 0xBFFF:
		m.cart.WriteRAM(address, value)
	case address <= 0xCFFF:
		m.wram[0][address-0xC000] = value
	case address <= 0xDFFF:
		m.wram[m.effectiveWRAMBank()][address-0xD000] = value
	case address <= 0xFDFF:
		m.Write(address-0x2000, value)
	case address <= 0xFE9F:
		if !m.dma.active {
			m.video.Write(address, value)
		}
	case address <= 0xFEFF:
		// unusable; writes are discarded
	case address == types.P1:
		m.pad.Write(address, value)
	case address == types.DIV, address == types.TIMA, address == types.TMA, address == types.TAC:
		m.timer.Write(address, value)
	case address == types.IF:
		m.irq.Write(address, value)
	case address == types.DMA:
		m.startDMA(value)
	case address >= 0xFF40 && address <= 0xFF4B:
		m.video.Write(address, value)
	case address == types.KEY1:
		if m.model == types.ModelCGB {
			m.key1 = m.key1&0x80 | value&0x01
		}
	case address == types.VBK:
		if m.model == types.ModelCGB {
			m.video.Write(address, value)
		}
	case address == types.BOOT:
		m.bootDisabled = true
	case address >= types.HDMA1 && address <= types.HDMA5:
		m.writeHDMA(address, value)
	case address >= types.BCPS && address <= types.OCPD:
		m.video.Write(address, value)
	case address == types.SVBK:
		if m.model == types.ModelCGB {
			bank := value & 0x07
			if bank == 0 {
				bank = 1
			}
			m.wramBank = bank
		}
	case address <= 0xFF7F:
		if m.log != nil {
			m.log.Debugf("write 0x%02X to unmapped IO register 0x%04X", value, address)
		}
	case address <= 0xFFFE:
		m.hram[address-0xFF80] = value
	case address == types.IE:
		m.irq.Write(address, value)
	}
}

func (m *MMU) effectiveWRAMBank() uint8 {
	if m.model == types.ModelCGB {
		return m.wramBank
	}
	return 1
}

func (m *MMU) inBootROM(address uint16) bool {
	if len(m.bootROM) == 0 {
		return false
	}
	if m.model == types.ModelCGB {
		return address < 0x900 && int(address) < len(m.bootROM)
	}
	return address < uint16(len(m.bootROM))
}

// startDMA begins a 160-machine-cycle OAM DMA transfer from source<<8;
// StepDMA advances it one byte per 4 T-cycles (spec.md §4.2).
func (m *MMU) startDMA(source uint8) {
	m.dma = dmaState{active: true, source: source, delay: 4}
}

// StepDMA advances any in-flight OAM DMA transfer by tCycles T-cycles,
// copying one byte every 4 T-cycles from (source<<8)+offset into OAM.
func (m *MMU) StepDMA(tCycles uint16) {
	if !m.dma.active {
		return
	}
	for i := uint16(0); i < tCycles; i++ {
		if m.dma.delay > 0 {
			m.dma.delay--
			continue
		}
		if m.dma.offset%4 == 0 {
			src := uint16(m.dma.source)<<8 + uint16(m.dma.offset)/4
			m.video.DMAWriteOAM(uint8(m.dma.offset/4), m.dmaSourceByte(src))
		}
		m.dma.offset++
		if m.dma.offset >= 0xA0*4 {
			m.dma.active = false
			return
		}
	}
}

func (m *MMU) dmaSourceByte(address uint16) uint8 {
	if address <= 0xDFFF {
		return m.Read(address)
	}
	// OAM DMA may not legally source OAM/echo/unusable; treat as WRAM.
	return m.Read(address - 0x2000)
}

func (m *MMU) readHDMA(address uint16) uint8 {
	switch address {
	case types.HDMA5:
		if !m.hdmaActive {
			return 0xFF
		}
		return m.hdmaLen & 0x7F
	}
	return 0xFF
}

func (m *MMU) writeHDMA(address uint16, value uint8) {
	switch address {
	case types.HDMA1:
		m.hdma1 = value
	case types.HDMA2:
		m.hdma2 = value & 0xF0
	case types.HDMA3:
		m.hdma3 = value & 0x1F
	case types.HDMA4:
		m.hdma4 = value & 0xF0
	case types.HDMA5:
		if m.model != types.ModelCGB {
			return
		}
		if m.hdmaActive && value&0x80 == 0 {
			m.hdmaActive = false
			return
		}
		m.hdmaLen = value & 0x7F
		m.hdmaHBlankMode = value&0x80 != 0
		if !m.hdmaHBlankMode {
			m.runGeneralHDMA()
		} else {
			m.hdmaActive = true
		}
	}
}

func (m *MMU) hdmaSrc() uint16 { return uint16(m.hdma1)<<8 | uint16(m.hdma2) }
func (m *MMU) hdmaDst() uint16 {
	return 0x8000 + (uint16(m.hdma3)<<8|uint16(m.hdma4))&0x1FFF
}

// runGeneralHDMA copies the whole requested block in one shot, matching
// general-purpose HDMA's instantaneous (CPU-halting) semantics.
func (m *MMU) runGeneralHDMA() {
	length := (int(m.hdmaLen) + 1) * 0x10
	src, dst := m.hdmaSrc(), m.hdmaDst()
	for i := 0; i < length; i++ {
		m.video.DMAWriteVRAM(dst+uint16(i), m.Read(src+uint16(i)))
	}
	m.hdma1, m.hdma2 = uint8((src+uint16(length))>>8), uint8(src+uint16(length))
	m.hdmaLen = 0x7F
}

// StepHBlankHDMA copies one 16-byte block during an HBlank period;
// called by the Core once per HBlank while HDMA is armed in
// HBlank mode (spec.md §4.2).
func (m *MMU) StepHBlankHDMA() {
	if !m.hdmaActive || !m.hdmaHBlankMode {
		return
	}
	src, dst := m.hdmaSrc(), m.hdmaDst()
	for i := 0; i < 0x10; i++ {
		m.video.DMAWriteVRAM(dst+uint16(i), m.Read(src+uint16(i)))
	}
	m.hdma1, m.hdma2 = uint8((src+0x10)>>8), uint8(src+0x10)
	m.hdma3, m.hdma4 = uint8((dst+0x10-0x8000)>>8), uint8(dst+0x10-0x8000)
	if m.hdmaLen == 0 {
		m.hdmaActive = false
		m.hdmaLen = 0x7F
		return
	}
	m.hdmaLen--
}

// HDMAActive reports whether an HBlank-mode HDMA transfer is still
// armed, so the Core knows to drive StepHBlankHDMA on each HBlank.
func (m *MMU) HDMAActive() bool { return m.hdmaActive && m.hdmaHBlankMode }
