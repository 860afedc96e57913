package interrupts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagRegisterUpperBitsReadAsOne(t *testing.T) {
	s := NewService()
	s.Write(0xFF0F, 0x00)
	assert.Equal(t, uint8(0xE0), s.Read(0xFF0F))

	s.Write(0xFFFF, 0xFF)
	assert.Equal(t, uint8(0xFF), s.Read(0xFFFF))
}

func TestRequestAndNextFlagPriority(t *testing.T) {
	s := NewService()
	s.Enable = 0x1F
	s.Request(Timer)
	s.Request(VBlank)

	f, ok := s.NextFlag()
	assert.True(t, ok)
	assert.Equal(t, VBlank, f)
}

func TestPendingRequiresEnableBit(t *testing.T) {
	s := NewService()
	s.Request(Serial)
	assert.False(t, s.Pending())

	s.Enable |= 1 << Serial
	assert.True(t, s.Pending())
}

func TestClear(t *testing.T) {
	s := NewService()
	s.Request(Joypad)
	s.Clear(Joypad)
	assert.Equal(t, uint8(0), s.Flag)
}
