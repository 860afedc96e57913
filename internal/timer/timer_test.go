package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gbcore/internal/interrupts"
	"gbcore/internal/types"
)

func TestDivWriteResetsCounter(t *testing.T) {
	c := New(interrupts.NewService())
	c.Step(300)
	assert.NotZero(t, c.Read(types.DIV))

	c.Write(types.DIV, 0x42) // any written value resets DIV to 0
	assert.Equal(t, uint8(0), c.Read(types.DIV))
}

func TestTimerDisabledDoesNotIncrementTIMA(t *testing.T) {
	c := New(interrupts.NewService())
	c.Write(types.TAC, 0x00) // enable bit (bit 2) clear
	c.Step(10000)
	assert.Equal(t, uint8(0), c.Read(types.TIMA))
}

func TestTimaOverflowReloadsFromTMAAndRequestsInterrupt(t *testing.T) {
	irq := interrupts.NewService()
	c := New(irq)
	c.Write(types.TMA, 0xFE)
	c.Write(types.TIMA, 0xFF)
	c.Write(types.TAC, 0x05) // enabled, rate select 01 => every 16 T-cycles

	c.Step(16)

	assert.Equal(t, uint8(0xFE), c.Read(types.TIMA))
	assert.NotZero(t, irq.Flag&(1<<interrupts.Timer))
}

func TestTacUpperBitsReadAsOne(t *testing.T) {
	c := New(interrupts.NewService())
	c.Write(types.TAC, 0x05)
	assert.Equal(t, uint8(0xFD), c.Read(types.TAC))
}
