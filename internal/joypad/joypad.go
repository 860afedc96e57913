// Package joypad emulates the Game Boy's button matrix register, P1
// (0xFF00). It is adapted from the teacher's internal/joypad.State:
// Read/Write keep its bit-for-bit row-select semantics, while Press
// reports its interrupt request through a shared *interrupts.Service
// instead of returning a bool for the caller to act on; Release requests
// no interrupt.
package joypad

import (
	"fmt"

	"gbcore/internal/interrupts"
	"gbcore/pkg/bits"
)

// Button identifies a single physical button.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
)

// ErrInvalidButton is returned by Press/Release for an out-of-range Button.
var ErrInvalidButton = fmt.Errorf("joypad: invalid button id")

// actionMask and directionMask classify which selectable row a button
// belongs to: A/B/Select/Start live in the action row (P1 bit 5), the
// D-pad lives in the direction row (P1 bit 4).
const (
	actionMask    = 0x0F // A, B, Select, Start occupy bits 0-3 of state
	directionMask = 0xF0 // Right, Left, Up, Down occupy bits 4-7 of state
)

// State is the joypad's current register and pressed-button bitmap.
type State struct {
	register uint8 // P1: bits 4-5 are the row select, written by the CPU
	pressed  uint8 // bit i set => button i held down

	irq *interrupts.Service
}

// New returns a joypad with nothing pressed and both rows deselected.
func New(irq *interrupts.Service) *State {
	return &State{register: 0x3F, irq: irq}
}

func buttonBit(b Button) (uint8, error) {
	if b > ButtonDown {
		return 0, ErrInvalidButton
	}
	return 1 << uint8(b), nil
}

// Press marks a button held down. A 1->0 transition on a bit the current
// row-select exposes requests the Joypad interrupt (spec.md §4.5).
func (s *State) Press(b Button) error {
	bit, err := buttonBit(b)
	if err != nil {
		return err
	}
	wasReleased := s.pressed&bit == 0
	s.pressed |= bit

	if wasReleased && s.selects(bit) {
		s.irq.Request(interrupts.Joypad)
	}
	return nil
}

// Release marks a button as no longer held down.
func (s *State) Release(b Button) error {
	bit, err := buttonBit(b)
	if err != nil {
		return err
	}
	s.pressed &^= bit
	return nil
}

// selects reports whether the currently selected row(s) expose bit.
func (s *State) selects(bit uint8) bool {
	if bit&actionMask != 0 && !bits.Test(s.register, 5) {
		return true
	}
	if bit&directionMask != 0 && !bits.Test(s.register, 4) {
		return true
	}
	return false
}

// Read returns the live P1 value: selected bits read 0 when pressed, 1
// when released; unselected bits and the two high bits read 1.
func (s *State) Read(address uint16) uint8 {
	lines := uint8(0x0F)
	if !bits.Test(s.register, 4) { // direction row selected
		lines &^= (s.pressed & directionMask) >> 4
	}
	if !bits.Test(s.register, 5) { // action row selected
		lines &^= s.pressed & actionMask
	}
	return 0xC0 | (s.register & 0x30) | lines
}

// Write updates the row-select bits (4-5); bits 0-3 are read-only from the
// CPU's perspective.
func (s *State) Write(address uint16, value uint8) {
	s.register = (s.register & 0xCF) | (value & 0x30)
}
