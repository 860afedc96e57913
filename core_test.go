package gbcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalROM returns a 32KiB ROM-only cartridge whose entry point is an
// infinite JP loop, so RunFrame has well-defined, terminating behavior
// without needing a real game ROM.
func minimalROM() []byte {
	rom := make([]byte, 0x8000)
	rom[0x0147] = 0x00 // ROM only
	rom[0x0148] = 0x00 // 32KiB, 2 banks
	rom[0x0149] = 0x00 // no RAM
	// entry point at 0x0100: JP 0x0150
	rom[0x0100] = 0xC3
	rom[0x0101] = 0x50
	rom[0x0102] = 0x01
	// 0x0150: JP 0x0150 (infinite loop)
	rom[0x0150] = 0xC3
	rom[0x0151] = 0x50
	rom[0x0152] = 0x01
	return rom
}

func TestNewRejectsMalformedROM(t *testing.T) {
	_, err := New(make([]byte, 4))
	assert.Error(t, err)
}

func TestRunFrameTerminatesOnInfiniteLoop(t *testing.T) {
	core, err := New(minimalROM())
	require.NoError(t, err)

	require.NotPanics(t, func() { core.RunFrame() })
}

func TestPressReleaseRoundTrip(t *testing.T) {
	core, err := New(minimalROM())
	require.NoError(t, err)

	assert.NoError(t, core.Press(ButtonA))
	assert.NoError(t, core.Release(ButtonA))
	assert.ErrorIs(t, core.Press(Button(200)), ErrInvalidButton)
}

func TestFramebufferHasScreenDimensions(t *testing.T) {
	core, err := New(minimalROM())
	require.NoError(t, err)
	core.RunFrame()

	fb := *core.Framebuffer()
	assert.Len(t, fb, 144)
	assert.Len(t, fb[0], 160)
}
