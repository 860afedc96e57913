// Package cartridge parses a Game Boy ROM header and provides the
// memory-bank-controller address translation the MMU delegates
// 0x0000-0x7FFF and 0xA000-0xBFFF accesses to (spec.md §4.2).
package cartridge

import "github.com/cespare/xxhash/v2"

// Cartridge owns a ROM image, its parsed Header, and the mbc that
// performs bank-switched reads/writes against it.
type Cartridge struct {
	rom    []byte
	header Header
	mbc    mbc
}

// New parses rom's header and constructs the matching bank controller.
// It returns ErrROMTooShort if rom is smaller than the header demands,
// or ErrUnsupportedMBC if the header names a cartridge type this package
// does not implement.
func New(rom []byte) (*Cartridge, error) {
	h, err := parseHeader(rom)
	if err != nil {
		return nil, err
	}
	m, err := newMBC(h, rom)
	if err != nil {
		return nil, err
	}
	return &Cartridge{rom: rom, header: h, mbc: m}, nil
}

// Title returns the cartridge's internal name, as stored in the header.
func (c *Cartridge) Title() string { return c.header.Title }

// CGBSupported reports whether the header marks the cartridge as CGB
// compatible (either CGB-enhanced or CGB-exclusive).
func (c *Cartridge) CGBSupported() bool { return c.header.cgb() }

// PreferredModel returns the hardware model the cartridge's header is
// written for, used as gbcore.New's default when WithModel is absent.
func (c *Cartridge) PreferredModel() uint8 { return uint8(c.header.model()) }

// HasBattery reports whether the cartridge's external RAM (if any)
// survives a power cycle, per its header's cartridge-type byte.
func (c *Cartridge) HasBattery() bool { return c.header.HasBattery }

// ReadROM and WriteROM implement the MMU's 0x0000-0x7FFF dispatch.
func (c *Cartridge) ReadROM(address uint16) uint8     { return c.mbc.ReadROM(address) }
func (c *Cartridge) WriteROM(address uint16, v uint8)  { c.mbc.WriteROM(address, v) }

// ReadRAM and WriteRAM implement the MMU's 0xA000-0xBFFF dispatch.
func (c *Cartridge) ReadRAM(address uint16) uint8     { return c.mbc.ReadRAM(address) }
func (c *Cartridge) WriteRAM(address uint16, v uint8) { c.mbc.WriteRAM(address, v) }

// TickRTC advances an MBC3 real-time clock by one second; a no-op on any
// other cartridge kind. Callers that want wall-clock-accurate RTC drive
// it once per emulated second from outside the component loop, since
// spec.md's canonical Step loop counts T-cycles, not seconds.
func (c *Cartridge) TickRTC() {
	if m3, ok := c.mbc.(*mbc3); ok {
		m3.TickRTC()
	}
}

// ExternalRAM returns the cartridge's battery-backed RAM for
// persistence (spec.md §6's Core.ExternalRAM), or nil if the cartridge
// carries none.
func (c *Cartridge) ExternalRAM() []byte { return c.mbc.Save() }

// SetExternalRAM restores previously-saved external RAM contents.
func (c *Cartridge) SetExternalRAM(data []byte) { c.mbc.Load(data) }

// Fingerprint returns a stable, non-cryptographic hash of the ROM image,
// suitable for keying a save-RAM file to the cartridge that produced it.
func (c *Cartridge) Fingerprint() uint64 { return xxhash.Sum64(c.rom) }
