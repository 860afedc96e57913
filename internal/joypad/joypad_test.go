package joypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gbcore/internal/interrupts"
)

func TestReadWithNoRowSelected(t *testing.T) {
	s := New(interrupts.NewService())
	require.NoError(t, s.Press(ButtonA))
	assert.Equal(t, uint8(0xFF), s.Read(0xFF00))
}

func TestReadActionRowSelected(t *testing.T) {
	irq := interrupts.NewService()
	s := New(irq)
	s.Write(0xFF00, 0x10) // select action row (bit 5 = 0)
	require.NoError(t, s.Press(ButtonA))
	require.NoError(t, s.Press(ButtonStart))

	v := s.Read(0xFF00)
	assert.Equal(t, uint8(0), v&0x01, "A bit should read 0 when pressed")
	assert.Equal(t, uint8(0), v&0x08, "Start bit should read 0 when pressed")
}

func TestPressRequestsInterruptOnTransition(t *testing.T) {
	irq := interrupts.NewService()
	s := New(irq)
	s.Write(0xFF00, 0x10) // action row selected

	require.NoError(t, s.Press(ButtonA))
	assert.NotZero(t, irq.Flag&(1<<interrupts.Joypad))
}

func TestPressInvalidButton(t *testing.T) {
	s := New(interrupts.NewService())
	err := s.Press(Button(99))
	assert.ErrorIs(t, err, ErrInvalidButton)
}
