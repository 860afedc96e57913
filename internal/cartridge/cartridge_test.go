package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildROM returns a minimal, valid-header ROM of the given size with
// cartridge type/ROM-size/RAM-size bytes set, and bank N's first byte
// set to N so tests can identify which bank got mapped.
func buildROM(banks int, cartType uint8, ramCode uint8) []byte {
	rom := make([]byte, banks*0x4000)
	rom[0x0147] = cartType
	for n := 0; n < 9; n++ {
		if 2*(1<<n) == banks {
			rom[0x0148] = uint8(n)
			break
		}
	}
	rom[0x0149] = ramCode
	for b := 0; b < banks; b++ {
		rom[b*0x4000] = byte(b)
	}
	return rom
}

func TestNewRejectsShortROM(t *testing.T) {
	_, err := New(make([]byte, 0x10))
	assert.ErrorIs(t, err, ErrROMTooShort)
}

func TestNewRejectsUnsupportedMBC(t *testing.T) {
	rom := buildROM(2, 0xFE, 0x00) // HuC3, not implemented
	_, err := New(rom)
	assert.ErrorIs(t, err, ErrUnsupportedMBC)
}

func TestMBC1BankZeroRemap(t *testing.T) {
	rom := buildROM(4, kindMBC1ByteForTest, 0x00)
	cart, err := New(rom)
	require.NoError(t, err)

	// writing 0 to the bank-select register must select bank 1, not 0.
	cart.WriteROM(0x2000, 0x00)
	assert.Equal(t, uint8(1), cart.ReadROM(0x4000))
}

func TestMBC1SwitchesROMBank(t *testing.T) {
	rom := buildROM(4, kindMBC1ByteForTest, 0x00)
	cart, err := New(rom)
	require.NoError(t, err)

	cart.WriteROM(0x2000, 0x03)
	assert.Equal(t, uint8(3), cart.ReadROM(0x4000))
}

func TestMBC1ExternalRAMRequiresEnable(t *testing.T) {
	rom := buildROM(2, kindMBC1ByteForTest, 0x02) // 8KiB RAM
	cart, err := New(rom)
	require.NoError(t, err)

	cart.WriteRAM(0xA000, 0x42)
	assert.Equal(t, uint8(0xFF), cart.ReadRAM(0xA000), "RAM disabled by default")

	cart.WriteROM(0x0000, 0x0A) // enable RAM
	cart.WriteRAM(0xA000, 0x42)
	assert.Equal(t, uint8(0x42), cart.ReadRAM(0xA000))
}

func TestFingerprintIsStable(t *testing.T) {
	rom := buildROM(2, kindROMOnlyByteForTest, 0x00)
	c1, err := New(rom)
	require.NoError(t, err)
	c2, err := New(rom)
	require.NoError(t, err)
	assert.Equal(t, c1.Fingerprint(), c2.Fingerprint())
}

// kindMBC1ByteForTest/kindROMOnlyByteForTest avoid exporting the
// unexported kind constants outside the package while keeping the
// literal header bytes named instead of magic numbers in the tests
// above.
const (
	kindMBC1ByteForTest    = uint8(kindMBC1)
	kindROMOnlyByteForTest = uint8(kindROMOnly)
)
