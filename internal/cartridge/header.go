package cartridge

import "gbcore/internal/types"

// headerStart and headerEnd bound the cartridge header within the ROM
// image: 0x0100-0x014F (spec.md §3).
const (
	headerStart = 0x0100
	headerEnd   = 0x0150
)

// mode identifies how a cartridge interacts with the CGB palette/speed
// hardware, decoded from the header byte at 0x0143.
type mode uint8

const (
	modeDMGOnly mode = iota
	modeCGBSupported
	modeCGBOnly
)

// kind enumerates the cartridge-type byte at 0x0147. Only the MBC
// families spec.md §4.2 names are listed, and New accepts every value
// listed here; any other cartridge-type byte is rejected with
// ErrUnsupportedMBC.
type kind uint8

const (
	kindROMOnly          kind = 0x00
	kindMBC1             kind = 0x01
	kindMBC1RAM          kind = 0x02
	kindMBC1RAMBattery   kind = 0x03
	kindMBC2             kind = 0x05
	kindMBC2Battery      kind = 0x06
	kindMBC3TimerBattery kind = 0x0F
	kindMBC3TimerRAMBatt kind = 0x10
	kindMBC3             kind = 0x11
	kindMBC3RAM          kind = 0x12
	kindMBC3RAMBattery   kind = 0x13
	kindMBC5             kind = 0x19
	kindMBC5RAM          kind = 0x1A
	kindMBC5RAMBattery   kind = 0x1B
)

var ramSizeByCode = map[uint8]int{
	0x00: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Header is the parsed contents of a ROM's 0x0100-0x014F header block.
type Header struct {
	Title       string
	Mode        mode
	Kind        kind
	ROMBanks    int
	ROMSize     int
	RAMSize     int
	HasBattery  bool
	HasTimer    bool
	HeaderCksum uint8
}

func (h Header) cgb() bool {
	return h.Mode == modeCGBSupported || h.Mode == modeCGBOnly
}

func parseHeader(rom []byte) (Header, error) {
	if len(rom) < headerEnd {
		return Header{}, ErrROMTooShort
	}
	h := rom[headerStart:headerEnd]

	var hd Header
	switch h[0x43] {
	case 0x80:
		hd.Mode = modeCGBSupported
	case 0xC0:
		hd.Mode = modeCGBOnly
	default:
		hd.Mode = modeDMGOnly
	}

	titleEnd := 0x44
	if hd.Mode != modeDMGOnly {
		titleEnd = 0x43
	}
	hd.Title = trimTitle(h[0x34:titleEnd])

	hd.Kind = kind(h[0x47])
	hd.ROMSize = 32 * 1024 * (1 << h[0x48])
	hd.ROMBanks = hd.ROMSize / 0x4000
	hd.RAMSize = ramSizeByCode[h[0x49]]
	hd.HeaderCksum = h[0x4D]

	switch hd.Kind {
	case kindMBC1RAMBattery, kindMBC2Battery, kindMBC3TimerBattery,
		kindMBC3TimerRAMBatt, kindMBC3RAMBattery, kindMBC5RAMBattery:
		hd.HasBattery = true
	}
	switch hd.Kind {
	case kindMBC3TimerBattery, kindMBC3TimerRAMBatt:
		hd.HasTimer = true
	}

	if hd.ROMSize > len(rom) {
		return Header{}, ErrROMTooShort
	}
	return hd, nil
}

// trimTitle strips the trailing NUL padding (and, for older carts, stray
// manufacturer/CGB-flag bytes) from the raw title field.
func trimTitle(raw []byte) string {
	n := len(raw)
	for n > 0 && raw[n-1] == 0 {
		n--
	}
	return string(raw[:n])
}

// model reports the hardware model a header is happiest running under,
// used as the default when the caller does not force one via WithModel.
func (h Header) model() types.Model {
	if h.cgb() {
		return types.ModelCGB
	}
	return types.ModelDMG
}
