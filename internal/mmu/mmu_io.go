package mmu

// Bus is implemented by *MMU and is the interface internal/cpu.CPU
// addresses memory through.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

var _ Bus = (*MMU)(nil)
