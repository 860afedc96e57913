package ppu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gbcore/internal/interrupts"
	"gbcore/internal/types"
)

func TestLYStaysZeroWhileLCDOff(t *testing.T) {
	p := New(types.ModelDMG, interrupts.NewService())
	for i := 0; i < 4; i++ {
		p.Step(25000) // 100000 T-cycles in total
	}
	assert.Equal(t, uint8(0), p.Read(types.LY))
}

func TestFrameTakes70224TCycles(t *testing.T) {
	irq := interrupts.NewService()
	p := New(types.ModelDMG, irq)
	p.Write(types.LCDC, 0x80) // enable LCD

	// FrameReady fires when LY reaches 144, so run to the first VBlank
	// and then measure one full frame period up to the next one.
	var total uint32
	for !p.FrameReady() {
		p.Step(4)
		total += 4
		if total > 80000 {
			t.Fatal("first frame never completed")
		}
	}
	total = 0
	for !p.FrameReady() {
		p.Step(4)
		total += 4
		if total > 80000 {
			t.Fatal("frame never completed")
		}
	}
	assert.Equal(t, uint32(cyclesPerLine*linesPerFrame), total)
}

func TestStatInterruptFiresOnLYCCoincidenceRisingEdge(t *testing.T) {
	irq := interrupts.NewService()
	p := New(types.ModelDMG, irq)
	p.Write(types.LCDC, 0x80)
	p.Write(types.STAT, 0x40) // enable LYC=LY interrupt source
	p.Write(types.LYC, 1)

	irq.Enable = 0x1F
	for i := 0; i < 2; i++ {
		p.Step(cyclesPerLine)
	}
	assert.NotZero(t, irq.Flag&(1<<interrupts.LCDStat))
}

func TestVRAMBlockedDuringTransferMode(t *testing.T) {
	irq := interrupts.NewService()
	p := New(types.ModelDMG, irq)
	p.Write(types.LCDC, 0x80)
	p.Write(0x8000, 0xAA) // writable: still in OAM scan (mode 2) at cycle 0

	p.Step(cyclesOAMScan + 1) // now in Transfer (mode 3)
	p.Write(0x8000, 0x55)     // should be blocked
	assert.Equal(t, uint8(0xFF), p.Read(0x8000))
}

// writeSolidTile fills every row of tileNum in the given VRAM bank with
// a single 2-bit colour index, so a test can place a known pixel value
// anywhere on the tile without hand-decoding bit planes.
func writeSolidTile(p *PPU, bank int, tileNum uint8, index uint8) {
	var lo, hi uint8
	if index&1 != 0 {
		lo = 0xFF
	}
	if index&2 != 0 {
		hi = 0xFF
	}
	base := 0x8000 + uint16(tileNum)*16
	for row := uint16(0); row < 8; row++ {
		p.vram[bank][base+row*2-0x8000] = lo
		p.vram[bank][base+row*2+1-0x8000] = hi
	}
}

func TestBackgroundPixelMapsThroughBGPShade(t *testing.T) {
	p := New(types.ModelDMG, interrupts.NewService())
	p.lcdc.BGWindowEnabled = true
	p.lcdc.TileDataLow = true
	writeSolidTile(p, 0, 0, 1) // tile 0: solid colour index 1
	p.vram[0][0x9800-0x8000] = 0
	p.Write(types.BGP, 0xE4) // standard identity mapping

	p.renderScanline()
	assert.Equal(t, [3]uint8{0xAA, 0xAA, 0xAA}, p.back[0][0])
}

func TestCGBBackgroundPixelUsesPaletteRAM(t *testing.T) {
	p := New(types.ModelCGB, interrupts.NewService())
	p.lcdc.TileDataLow = true
	writeSolidTile(p, 0, 0, 1) // tile 0: solid colour index 1
	p.vram[0][0x9800-0x8000] = 0
	p.vram[1][0x9800-0x8000] = 2 // attribute byte: palette 2, bank 0

	// palette 2, colour index 1 -> data[2*8+1*2] = data[18..19]
	p.Write(types.BCPS, 0x80|18)
	p.Write(types.BCPD, 0x1F) // red=31, auto-increments to 19
	p.Write(types.BCPD, 0x00)

	p.renderScanline()
	assert.Equal(t, [3]uint8{0xFF, 0, 0}, p.back[0][0])
}

func TestSpriteHiddenBehindBackgroundWhenObjPriorityBitSet(t *testing.T) {
	p := New(types.ModelDMG, interrupts.NewService())
	p.lcdc.SpritesEnabled = true
	p.lcdc.BGWindowEnabled = true
	p.lcdc.TileDataLow = true
	writeSolidTile(p, 0, 0, 1) // background: colour index 1
	p.vram[0][0x9800-0x8000] = 0
	p.Write(types.BGP, 0xE4)

	writeSolidTile(p, 0, 1, 2) // sprite tile: colour index 2
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 1, 0x80

	p.renderScanline()
	assert.Equal(t, [3]uint8{0xAA, 0xAA, 0xAA}, p.back[0][0], "background wins: OBJ-to-BG priority bit set over a non-zero BG pixel")
}

func TestSpriteDrawnOnTopWhenObjPriorityBitClear(t *testing.T) {
	p := New(types.ModelDMG, interrupts.NewService())
	p.lcdc.SpritesEnabled = true
	p.lcdc.BGWindowEnabled = true
	p.lcdc.TileDataLow = true
	writeSolidTile(p, 0, 0, 1) // background: colour index 1
	p.vram[0][0x9800-0x8000] = 0
	p.Write(types.BGP, 0xE4)

	writeSolidTile(p, 0, 1, 2) // sprite tile: colour index 2 -> OBP0 shade 0 (white)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 1, 0x00

	p.renderScanline()
	assert.Equal(t, [3]uint8{0xFF, 0xFF, 0xFF}, p.back[0][0])
}

func TestCGBMasterPriorityBitClearAlwaysDrawsSpriteOnTop(t *testing.T) {
	p := New(types.ModelCGB, interrupts.NewService())
	p.lcdc.SpritesEnabled = true
	p.lcdc.BGWindowEnabled = false // LCDC bit 0 clear: master priority override
	p.lcdc.TileDataLow = true

	writeSolidTile(p, 0, 0, 1)   // background tile: colour index 1
	p.vram[0][0x9800-0x8000] = 0
	p.vram[1][0x9800-0x8000] = 0x80 // BG tile attribute: priority bit set
	p.Write(types.BCPS, 0x82)       // palette 0, index 1
	p.Write(types.BCPD, 0xE0)       // green=31
	p.Write(types.BCPD, 0x03)

	writeSolidTile(p, 0, 1, 2) // sprite tile: colour index 2
	p.Write(types.OCPS, 0x84) // palette 0, index 2
	p.Write(types.OCPD, 0x00) // blue=31
	p.Write(types.OCPD, 0x7C)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 1, 0x80 // sprite priority bit also set

	p.renderScanline()
	assert.Equal(t, [3]uint8{0, 0, 0xFF}, p.back[0][0], "master priority off: sprite must draw over BG priority bit and its own priority bit")
}

func TestCGBMasterPriorityBitSetHonorsTileAttributePriority(t *testing.T) {
	p := New(types.ModelCGB, interrupts.NewService())
	p.lcdc.SpritesEnabled = true
	p.lcdc.BGWindowEnabled = true // LCDC bit 0 set: normal priority
	p.lcdc.TileDataLow = true

	writeSolidTile(p, 0, 0, 1) // background tile: colour index 1
	p.vram[0][0x9800-0x8000] = 0
	p.vram[1][0x9800-0x8000] = 0x80 // BG tile attribute: priority bit set
	p.Write(types.BCPS, 0x82)       // palette 0, index 1
	p.Write(types.BCPD, 0xE0)       // green=31
	p.Write(types.BCPD, 0x03)

	writeSolidTile(p, 0, 1, 2) // sprite tile: colour index 2
	p.Write(types.OCPS, 0x84)
	p.Write(types.OCPD, 0x00)
	p.Write(types.OCPD, 0x7C)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 1, 0x00 // sprite's own priority bit clear

	p.renderScanline()
	assert.Equal(t, [3]uint8{0, 0xFF, 0}, p.back[0][0], "BG tile attribute priority bit alone must hide the sprite under normal priority")
}

func TestSpriteTieBreakDMGPrefersSmallestX(t *testing.T) {
	p := New(types.ModelDMG, interrupts.NewService())
	p.lcdc.SpritesEnabled = true
	p.Write(types.OBP0, 0xE4)

	writeSolidTile(p, 0, 1, 2) // sprite A: colour index 2 (dark grey)
	writeSolidTile(p, 0, 2, 3) // sprite B: colour index 3 (black)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 9, 1, 0 // A: screen x 1..8
	p.oam[4], p.oam[5], p.oam[6], p.oam[7] = 16, 8, 2, 0 // B: screen x 0..7, smaller OAM x

	p.renderScanline()
	assert.Equal(t, [3]uint8{0, 0, 0}, p.back[0][1], "DMG breaks sprite overlap ties by smaller X regardless of OAM order")
}

func TestSpriteTieBreakCGBKeepsOAMOrder(t *testing.T) {
	p := New(types.ModelCGB, interrupts.NewService())
	p.lcdc.SpritesEnabled = true

	writeSolidTile(p, 0, 1, 2) // sprite A: colour index 2
	writeSolidTile(p, 0, 2, 3) // sprite B: colour index 3
	p.Write(types.OCPS, 0x84) // palette 0, index 2 (sprite A) -> red
	p.Write(types.OCPD, 0x1F)
	p.Write(types.OCPD, 0x00)
	p.Write(types.OCPS, 0x8E) // palette 1, index 3 (sprite B) -> blue
	p.Write(types.OCPD, 0x00)
	p.Write(types.OCPD, 0x7C)

	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 9, 1, 0x00 // A: earlier in OAM, larger X
	p.oam[4], p.oam[5], p.oam[6], p.oam[7] = 16, 8, 2, 0x01 // B: later in OAM, smaller X

	p.renderScanline()
	assert.Equal(t, [3]uint8{0xFF, 0, 0}, p.back[0][1], "CGB must keep sprite A's OAM-order priority even though B has a smaller X")
}
