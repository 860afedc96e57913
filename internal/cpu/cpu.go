package cpu

import (
	"gbcore/internal/interrupts"
	"gbcore/pkg/log"
)

// CPU is the LR35902 core: eight 8-bit registers (paired as BC/DE/HL/AF),
// the program counter and stack pointer, and the HALT/IME bookkeeping
// needed to service interrupts between instructions.
type CPU struct {
	A, F, B, C, D, E, H, L uint8
	PC, SP                 uint16

	bus Bus
	irq *interrupts.Service
	log log.Logger

	halted  bool
	haltBug bool

	// locked mirrors the teacher's treatment of undefined opcodes: spec.md
	// §7 requires the CPU to stop rather than panic, so an illegal
	// opcode sets locked and every subsequent Step becomes a no-op.
	locked       bool
	lockedOpcode uint8
}

// New returns a CPU wired to bus and irq. Registers start at zero;
// callers that skip the boot ROM should set post-boot register values
// themselves (spec.md §3's Non-goals exclude modeling the boot ROM's
// execution, only its presence as bytes). logger may be nil, in which
// case illegal-opcode events are not logged.
func New(bus Bus, irq *interrupts.Service, logger log.Logger) *CPU {
	return &CPU{bus: bus, irq: irq, log: logger}
}

// Locked reports whether the CPU has halted permanently after
// executing an undefined opcode, and the opcode that caused it.
func (c *CPU) Locked() (uint8, bool) { return c.lockedOpcode, c.locked }

// PCValue and SPValue expose PC/SP for testing spec.md §8's
// "PC and SP always address within 0x0000-0xFFFF" property, which is
// trivially true of a Go uint16 but is asserted explicitly in tests.
func (c *CPU) PCValue() uint16 { return c.PC }
func (c *CPU) SPValue() uint16 { return c.SP }

// Step services a pending interrupt if one is enabled, or halted if
// none is and the CPU is halted, or else executes one instruction and
// returns how many M-cycles it took (multiply by 4 for T-cycles, per
// spec.md §5's canonical loop).
func (c *CPU) Step() uint8 {
	if c.locked {
		return 1
	}

	// EI's effect is delayed by one instruction: the instruction right
	// after EI always executes before any interrupt can be dispatched.
	eiDelay := c.irq.EIPending
	if eiDelay {
		c.irq.EIPending = false
		c.irq.IME = true
	}

	if !eiDelay {
		if serviced, cycles := c.serviceInterrupt(); serviced {
			return cycles
		}
	}

	if c.halted {
		if c.irq.Pending() {
			c.halted = false
		} else {
			return 1
		}
	}

	op := c.fetch()

	if c.haltBug {
		// HALT executed with IME=0 and a pending interrupt fails to
		// advance PC past itself; the next fetch re-reads the following
		// byte as if HALT had not incremented PC (spec.md §4.1, §8).
		c.PC--
		c.haltBug = false
	}

	return c.execute(op)
}

func (c *CPU) fetch() uint8 {
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch())
	hi := uint16(c.fetch())
	return lo | hi<<8
}

// serviceInterrupt jumps to the highest-priority pending, enabled
// interrupt's vector when IME is set, clearing IF and IME and spending
// 5 M-cycles (spec.md §4.1).
func (c *CPU) serviceInterrupt() (bool, uint8) {
	if !c.irq.IME {
		return false, 0
	}
	flag, ok := c.irq.NextFlag()
	if !ok {
		return false, 0
	}
	c.halted = false
	c.irq.IME = false
	c.irq.Clear(flag)
	c.push(c.PC)
	c.PC = interrupts.Vector[flag]
	return true, 5
}

func (c *CPU) push(v uint16) {
	c.SP -= 2
	c.bus.Write(c.SP, uint8(v))
	c.bus.Write(c.SP+1, uint8(v>>8))
}

func (c *CPU) pop() uint16 {
	lo := uint16(c.bus.Read(c.SP))
	hi := uint16(c.bus.Read(c.SP + 1))
	c.SP += 2
	return lo | hi<<8
}

// lock stops the CPU permanently after an undefined opcode, per
// spec.md §7 (no panic at this boundary).
func (c *CPU) lock(opcode uint8) uint8 {
	c.locked = true
	c.lockedOpcode = opcode
	if c.log != nil {
		c.log.Errorf("illegal opcode 0x%02X at PC=0x%04X, CPU locked", opcode, c.PC-1)
	}
	return 1
}
