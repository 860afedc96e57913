package ppu

import "gbcore/internal/types"

// tileAttr mirrors a CGB background-map attribute byte: palette (0-7),
// VRAM bank, horizontal/vertical flip and BG-to-OBJ priority.
type tileAttr struct {
	palette  uint8
	bank     uint8
	flipX    bool
	flipY    bool
	priority bool
}

func decodeTileAttr(b uint8) tileAttr {
	return tileAttr{
		palette:  b & 0x07,
		bank:     (b >> 3) & 0x01,
		flipX:    b&0x20 != 0,
		flipY:    b&0x40 != 0,
		priority: b&0x80 != 0,
	}
}

// renderScanline paints line p.ly of p.back from the background,
// window and sprite layers, in that priority order, following the
// per-pixel algorithm spec.md §4.3 describes: a background/window
// pixel is an index 0-3 decoded from two bit-planes per tile row; a
// sprite pixel with index 0 is transparent and never drawn; CGB adds a
// BG-to-OBJ master priority override when LCDC bit 0 is clear
// (SPEC_FULL.md §12).
func (p *PPU) renderScanline() {
	if p.ly >= ScreenHeight {
		return
	}
	var bgIndex [ScreenWidth]uint8
	var bgPriority [ScreenWidth]bool

	if p.lcdc.BGWindowEnabled || p.model == types.ModelCGB {
		p.renderBackground(&bgIndex, &bgPriority)
	}
	if p.lcdc.WindowEnabled && (p.lcdc.BGWindowEnabled || p.model == types.ModelCGB) && p.wy <= p.ly && p.wx <= 166 {
		p.renderWindow(&bgIndex, &bgPriority)
	}
	for x := 0; x < ScreenWidth; x++ {
		p.back[p.ly][x] = p.bgColor(bgIndex[x], x)
	}
	if p.lcdc.SpritesEnabled {
		p.renderSprites(&bgIndex, &bgPriority)
	}
}

func (p *PPU) bgColor(index uint8, x int) [3]uint8 {
	if p.model == types.ModelCGB {
		return p.bgCGB.Color(p.bgAttrAt[x], index)
	}
	return p.bgp.Shade(index)
}

func (p *PPU) renderBackground(index *[ScreenWidth]uint8, priority *[ScreenWidth]bool) {
	mapBase := uint16(0x9800)
	if p.lcdc.BGTileMapHigh {
		mapBase = 0x9C00
	}
	y := p.ly + p.scy
	tileRow := uint16(y/8) * 32

	for x := 0; x < ScreenWidth; x++ {
		px := uint8(x) + p.scx
		tileCol := uint16(px / 8)
		mapAddr := mapBase + tileRow + tileCol

		tileNum := p.vram[0][mapAddr-0x8000]
		var attr tileAttr
		if p.model == types.ModelCGB {
			attr = decodeTileAttr(p.vram[1][mapAddr-0x8000])
		}

		row := y % 8
		if attr.flipY {
			row = 7 - row
		}
		col := px % 8
		if attr.flipX {
			col = 7 - col
		}

		idx := p.bgTilePixel(tileNum, row, col, attr.bank)
		index[x] = idx
		priority[x] = attr.priority
		p.bgAttrAt[x] = attr.palette
	}
}

func (p *PPU) renderWindow(index *[ScreenWidth]uint8, priority *[ScreenWidth]bool) {
	mapBase := uint16(0x9800)
	if p.lcdc.WindowTileMapHigh {
		mapBase = 0x9C00
	}
	wx := int(p.wx) - 7
	tileRow := uint16(p.windowLine/8) * 32

	drew := false
	for x := 0; x < ScreenWidth; x++ {
		if x < wx {
			continue
		}
		drew = true
		col := x - wx
		tileCol := uint16(col / 8)
		mapAddr := mapBase + tileRow + tileCol

		tileNum := p.vram[0][mapAddr-0x8000]
		var attr tileAttr
		if p.model == types.ModelCGB {
			attr = decodeTileAttr(p.vram[1][mapAddr-0x8000])
		}

		row := p.windowLine % 8
		if attr.flipY {
			row = 7 - row
		}
		bitCol := uint8(col % 8)
		if attr.flipX {
			bitCol = 7 - bitCol
		}

		idx := p.bgTilePixel(tileNum, row, bitCol, attr.bank)
		index[x] = idx
		priority[x] = attr.priority
		p.bgAttrAt[x] = attr.palette
	}
	if drew {
		p.windowLine++
	}
}

// bgTilePixel decodes the 2-bit colour index at (row, col) of a
// background/window tile, honoring LCDC bit 4's signed/unsigned
// tile-data addressing mode (spec.md §4.3).
func (p *PPU) bgTilePixel(tileNum uint8, row, col uint8, bank uint8) uint8 {
	var base uint16
	if p.lcdc.TileDataLow {
		base = 0x8000 + uint16(tileNum)*16
	} else {
		base = 0x9000 + uint16(int16(int8(tileNum)))*16
	}
	return tilePixelAt(&p.vram[bank], base, row, col)
}

// spriteTilePixel decodes the 2-bit colour index at (row, col) of a
// sprite tile. Sprites always use the unsigned 0x8000 addressing mode
// regardless of LCDC bit 4, which only affects BG/window tiles.
func (p *PPU) spriteTilePixel(tileNum uint8, row, col uint8, bank uint8) uint8 {
	base := 0x8000 + uint16(tileNum)*16
	return tilePixelAt(&p.vram[bank], base, row, col)
}

func tilePixelAt(bank *[0x2000]byte, base uint16, row, col uint8) uint8 {
	addr := base + uint16(row)*2 - 0x8000
	lo := bank[addr]
	hi := bank[addr+1]
	bit := 7 - col
	return (lo>>bit)&1 | ((hi>>bit)&1)<<1
}

// renderSprites overlays up to 10 sprites per scanline (the first 10 in
// OAM order among those intersecting p.ly, per spec.md §4.3) onto
// p.back, respecting sprite-to-sprite X priority, the OBJ-to-BG
// priority bit, and the CGB master-priority override from
// SPEC_FULL.md §12.
func (p *PPU) renderSprites(bgIndex *[ScreenWidth]uint8, bgPriority *[ScreenWidth]bool) {
	height := 8
	if p.lcdc.TallSprites {
		height = 16
	}

	var visible []spriteAttr
	for i := 0; i < 40 && len(visible) < 10; i++ {
		s := spriteAttr{
			y:     p.oam[i*4],
			x:     p.oam[i*4+1],
			tile:  p.oam[i*4+2],
			flags: p.oam[i*4+3],
		}
		top := int(s.y) - 16
		if int(p.ly) >= top && int(p.ly) < top+height {
			visible = append(visible, s)
		}
	}

	for x := 0; x < ScreenWidth; x++ {
		var best *spriteAttr
		var bestIdx uint8
		for i := range visible {
			s := &visible[i]
			left := int(s.x) - 8
			if x < left || x >= left+8 {
				continue
			}
			row := int(p.ly) - (int(s.y) - 16)
			col := x - left
			if s.flags&0x20 != 0 {
				col = 7 - col
			}
			if s.flags&0x40 != 0 {
				row = height - 1 - row
			}
			tile := s.tile
			if height == 16 {
				tile &^= 1
				if row >= 8 {
					tile |= 1
					row -= 8
				}
			}
			bank := uint8(0)
			if p.model == types.ModelCGB && s.flags&0x08 != 0 {
				bank = 1
			}
			idx := p.spriteTilePixel(tile, uint8(row), uint8(col), bank)
			if idx == 0 {
				continue
			}
			if best == nil {
				best = s
				bestIdx = idx
			} else if p.model != types.ModelCGB && s.x < best.x {
				// DMG breaks ties by smaller X; CGB keeps pure OAM order
				// (spec.md §4.3), so the first visible sprite found above
				// already wins and is never re-ranked here.
				best = s
				bestIdx = idx
			}
		}
		if best == nil {
			continue
		}
		if p.cgbMasterPriorityBlocks(best, x, bgIndex, bgPriority) {
			continue
		}
		if p.model != types.ModelCGB && best.flags&0x80 != 0 && bgIndex[x] != 0 {
			continue // OBJ-to-BG priority: background wins except index 0
		}
		p.back[p.ly][x] = p.spriteColor(best, bestIdx)
	}
}

// cgbMasterPriorityBlocks implements the CGB master-priority rule
// (Pan Docs "LCDC.0" on CGB): with LCDC bit 0 clear, sprites always
// draw on top of the background regardless of any priority bit. With
// the bit set, priority is normal: the sprite's own OAM priority bit
// is ORed with the BG tile attribute's priority bit, and either one
// hides the sprite behind a non-zero background pixel.
func (p *PPU) cgbMasterPriorityBlocks(s *spriteAttr, x int, bgIndex *[ScreenWidth]uint8, bgPriority *[ScreenWidth]bool) bool {
	if p.model != types.ModelCGB {
		return false
	}
	if !p.lcdc.BGWindowEnabled {
		return false
	}
	if bgIndex[x] == 0 {
		return false
	}
	return s.flags&0x80 != 0 || bgPriority[x]
}

func (p *PPU) spriteColor(s *spriteAttr, idx uint8) [3]uint8 {
	if p.model == types.ModelCGB {
		return p.objCGB.Color(s.flags&0x07, idx)
	}
	if s.flags&0x10 != 0 {
		return p.obp1.Shade(idx)
	}
	return p.obp0.Shade(idx)
}
