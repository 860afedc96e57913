package cartridge

// mbc1 is a direct-indexed generalization of the teacher's
// MemoryBankedCartridge1: same bank1/bank2/mode register semantics and
// multicart heuristic, but bank switches compute an offset into the
// owned rom/ram slices instead of copying bytes through a shared bus
// window (spec.md §9 rules out the cross-component back-pointer that
// bus-window approach relies on).
type mbc1 struct {
	rom []byte
	ram []byte

	ramg        bool  // RAM-enable latch, 0x0000-0x1FFF
	bank1       uint8 // 5-bit low ROM bank bits, 0x2000-0x3FFF
	bank2       uint8 // 2-bit high ROM bank bits or RAM bank, 0x4000-0x5FFF
	mode        bool  // banking mode, 0x6000-0x7FFF
	isMultiCart bool
	romBanks    uint8
}

var mbc1Logo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B,
	0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC,
	0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

func newMBC1(h Header, rom, ram []byte) *mbc1 {
	m := &mbc1{rom: rom, ram: ram, bank1: 1, romBanks: uint8(h.ROMBanks)}
	if h.ROMSize == 1024*1024 {
		matches := 0
		for bank := 0; bank < 4; bank++ {
			same := true
			for addr := 0x0104; addr <= 0x0133; addr++ {
				if rom[bank*0x40000+addr] != mbc1Logo[addr-0x0104] {
					same = false
					break
				}
			}
			if same {
				matches++
			}
		}
		m.isMultiCart = matches > 1
	}
	return m
}

func (m *mbc1) bankShift() uint8 {
	if m.isMultiCart {
		return 4
	}
	return 5
}

func (m *mbc1) romBank() uint8 {
	if !m.mode {
		bank := m.bank1 | m.bank2<<m.bankShift()
		if m.romBanks > 0 {
			bank %= m.romBanks
		}
		return bank
	}
	return m.bank1
}

// lowBank returns the bank mapped at 0x0000-0x3FFF: bank 0 unless mode 1
// has selected a high-bank-number zero-region (large multicart carts).
func (m *mbc1) lowBank() uint8 {
	if !m.mode {
		return 0
	}
	bank := m.bank2 << m.bankShift()
	if m.romBanks > 0 {
		bank %= m.romBanks
	}
	return bank
}

func (m *mbc1) ReadROM(address uint16) uint8 {
	if address < 0x4000 {
		return m.rom[int(m.lowBank())*0x4000+int(address)]
	}
	return m.rom[int(m.romBank())*0x4000+int(address-0x4000)]
}

func (m *mbc1) WriteROM(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ramg = value&0x0F == 0x0A
	case address < 0x4000:
		value &= 0x1F
		if value == 0 {
			value = 1
		}
		if m.isMultiCart {
			value &= 0x0F
		}
		m.bank1 = value
	case address < 0x6000:
		m.bank2 = value & 0b11
	case address < 0x8000:
		m.mode = value&1 == 1
	}
}

func (m *mbc1) ramBank() uint8 {
	if m.mode && len(m.ram) > 8*1024 {
		return m.bank2 & 0b11
	}
	return 0
}

func (m *mbc1) ReadRAM(address uint16) uint8 {
	if !m.ramg || len(m.ram) == 0 {
		return 0xFF
	}
	offset := int(m.ramBank())*8*1024 + int(address-0xA000)
	if offset >= len(m.ram) {
		return 0xFF
	}
	return m.ram[offset]
}

func (m *mbc1) WriteRAM(address uint16, value uint8) {
	if !m.ramg || len(m.ram) == 0 {
		return
	}
	offset := int(m.ramBank())*8*1024 + int(address-0xA000)
	if offset < len(m.ram) {
		m.ram[offset] = value
	}
}

func (m *mbc1) Save() []byte  { return m.ram }
func (m *mbc1) Load(d []byte) { copy(m.ram, d) }
