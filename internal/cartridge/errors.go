package cartridge

import "fmt"

// ErrUnsupportedMBC is returned by New when the header's cartridge-type
// byte names a memory bank controller this module does not implement.
var ErrUnsupportedMBC = fmt.Errorf("cartridge: unsupported memory bank controller")

// ErrROMTooShort is returned by New when the ROM image is smaller than
// the 0x150-byte header it must contain, or smaller than the size its
// own header byte declares.
var ErrROMTooShort = fmt.Errorf("cartridge: rom image too short")

// ErrBootROMSize is returned by gbcore.New when the boot ROM given via
// WithBootROM is neither 256 bytes (DMG) nor 2304 bytes (CGB).
var ErrBootROMSize = fmt.Errorf("cartridge: boot rom has unexpected size")
