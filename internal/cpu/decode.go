package cpu

// execute dispatches one fetched opcode. Irregular opcodes that don't
// fit a bit-field pattern are matched literally first (mirroring the
// teacher's decode.go default-case ordering); everything else falls
// through to the bit-field blocks spec.md §4.1 describes.
func (c *CPU) execute(op uint8) uint8 {
	switch op {
	case 0x00: // NOP
		return 1
	case 0x10: // STOP
		return c.stop()
	case 0x27:
		c.daa()
		return 1
	case 0x2F:
		c.cpl()
		return 1
	case 0x37:
		c.scf()
		return 1
	case 0x3F:
		c.ccf()
		return 1
	case 0x08: // LD (a16), SP
		addr := c.fetch16()
		c.bus.Write(addr, uint8(c.SP))
		c.bus.Write(addr+1, uint8(c.SP>>8))
		return 5
	case 0xC3: // JP a16
		c.PC = c.fetch16()
		return 4
	case 0xE9: // JP HL
		c.PC = c.hl()
		return 1
	case 0xC9: // RET
		c.PC = c.pop()
		return 4
	case 0xD9: // RETI
		c.PC = c.pop()
		c.irq.IME = true
		return 4
	case 0xCD: // CALL a16
		addr := c.fetch16()
		c.push(c.PC)
		c.PC = addr
		return 6
	case 0xCB:
		return c.executeCB(c.fetch())
	case 0xE0: // LDH (a8), A
		c.bus.Write(0xFF00+uint16(c.fetch()), c.A)
		return 3
	case 0xF0: // LDH A, (a8)
		c.A = c.bus.Read(0xFF00 + uint16(c.fetch()))
		return 3
	case 0xE2: // LD (C), A
		c.bus.Write(0xFF00+uint16(c.C), c.A)
		return 2
	case 0xF2: // LD A, (C)
		c.A = c.bus.Read(0xFF00 + uint16(c.C))
		return 2
	case 0xEA: // LD (a16), A
		c.bus.Write(c.fetch16(), c.A)
		return 4
	case 0xFA: // LD A, (a16)
		c.A = c.bus.Read(c.fetch16())
		return 4
	case 0xE8: // ADD SP, e8
		c.SP = c.addSPSigned(int8(c.fetch()))
		return 4
	case 0xF8: // LD HL, SP+e8
		c.setHL(c.addSPSigned(int8(c.fetch())))
		return 3
	case 0xF9: // LD SP, HL
		c.SP = c.hl()
		return 2
	case 0xF3: // DI
		c.irq.IME = false
		c.irq.EIPending = false
		return 1
	case 0xFB: // EI
		c.irq.EIPending = true
		return 1
	case 0x76: // HALT
		return c.halt()
	}

	switch op >> 6 {
	case 0:
		return c.executeBlock0(op)
	case 1:
		return c.executeLD(op)
	case 2:
		return c.executeALUReg(op)
	case 3:
		return c.executeBlock3(op)
	}
	return c.lock(op)
}

func (c *CPU) executeBlock0(op uint8) uint8 {
	switch op & 0x07 {
	case 0: // JR (unconditional handled by 0x18; conditional by bits 3-4)
		if op == 0x18 {
			e := int8(c.fetch())
			c.PC = uint16(int16(c.PC) + int16(e))
			return 3
		}
		cc := (op >> 3) & 3
		e := int8(c.fetch())
		if c.cond(cc) {
			c.PC = uint16(int16(c.PC) + int16(e))
			return 3
		}
		return 2
	case 1:
		rp := (op >> 4) & 3
		if op&0x08 != 0 { // ADD HL, rr
			c.addHL16(c.getRP(rp))
			return 2
		}
		c.setRP(rp, c.fetch16()) // LD rr, d16
		return 3
	case 2:
		rp := (op >> 4) & 3
		var addr uint16
		switch rp {
		case 0:
			addr = c.bc()
		case 1:
			addr = c.de()
		default:
			addr = c.hl()
		}
		if op&0x08 == 0 {
			c.bus.Write(addr, c.A)
		} else {
			c.A = c.bus.Read(addr)
		}
		if rp == 2 {
			c.setHL(addr + 1)
		} else if rp == 3 {
			c.setHL(addr - 1)
		}
		return 2
	case 3:
		rp := (op >> 4) & 3
		v := c.getRP(rp)
		if op&0x08 == 0 {
			v++
		} else {
			v--
		}
		c.setRP(rp, v)
		return 2
	case 4, 5:
		r := (op >> 3) & 7
		v := c.getReg8(r)
		var res uint8
		if op&1 == 0 {
			res = c.inc8(v)
		} else {
			res = c.dec8(v)
		}
		c.setReg8(r, res)
		if r == 6 {
			return 3
		}
		return 1
	case 6:
		r := (op >> 3) & 7
		v := c.fetch()
		c.setReg8(r, v)
		if r == 6 {
			return 3
		}
		return 2
	case 7:
		switch (op >> 3) & 7 {
		case 0:
			c.A = c.rlc(c.A)
		case 1:
			c.A = c.rrc(c.A)
		case 2:
			c.A = c.rl(c.A)
		case 3:
			c.A = c.rr(c.A)
		}
		c.setFlag(flagZ, false)
		return 1
	}
	return c.lock(op)
}

// executeLD implements the LD r,r' block (0x40-0x7F, minus 0x76 which
// is HALT and is matched literally in execute).
func (c *CPU) executeLD(op uint8) uint8 {
	dst := (op >> 3) & 7
	src := op & 7
	c.setReg8(dst, c.getReg8(src))
	if dst == 6 || src == 6 {
		return 2
	}
	return 1
}

func (c *CPU) executeALUReg(op uint8) uint8 {
	v := c.getReg8(op & 7)
	c.aluApply((op>>3)&7, v)
	if op&7 == 6 {
		return 2
	}
	return 1
}

func (c *CPU) aluApply(op uint8, v uint8) {
	switch op {
	case 0:
		c.A = c.add8(c.A, v, false)
	case 1:
		c.A = c.add8(c.A, v, c.flag(flagC))
	case 2:
		c.A = c.sub8(c.A, v, false)
	case 3:
		c.A = c.sub8(c.A, v, c.flag(flagC))
	case 4:
		c.A = c.and8(c.A, v)
	case 5:
		c.A = c.xor8(c.A, v)
	case 6:
		c.A = c.or8(c.A, v)
	case 7:
		c.sub8(c.A, v, false) // CP: flags only, A unchanged
	}
}

func (c *CPU) executeBlock3(op uint8) uint8 {
	switch {
	case op&0xC7 == 0xC0: // RET cc
		if c.cond((op >> 3) & 3) {
			c.PC = c.pop()
			return 5
		}
		return 2
	case op&0xCF == 0xC1: // POP rr
		c.setRP2((op>>4)&3, c.pop())
		return 3
	case op&0xC7 == 0xC2: // JP cc, a16
		addr := c.fetch16()
		if c.cond((op >> 3) & 3) {
			c.PC = addr
			return 4
		}
		return 3
	case op&0xCF == 0xC5: // PUSH rr
		c.push(c.getRP2((op >> 4) & 3))
		return 4
	case op&0xC7 == 0xC4 && op < 0xE0: // CALL cc, a16 (0xE4/0xEC/0xF4/0xFC are undefined)
		addr := c.fetch16()
		if c.cond((op >> 3) & 3) {
			c.push(c.PC)
			c.PC = addr
			return 6
		}
		return 3
	case op&0xC7 == 0xC6: // ALU A, d8
		c.aluApply((op>>3)&7, c.fetch())
		return 2
	case op&0xC7 == 0xC7: // RST n
		c.push(c.PC)
		c.PC = uint16(op & 0x38)
		return 4
	}
	return c.lock(op)
}

func (c *CPU) executeCB(op uint8) uint8 {
	r := op & 7
	n := (op >> 3) & 7
	switch op >> 6 {
	case 0:
		return c.cbShift(n, r)
	case 1: // BIT n, r
		c.bit(n, c.getReg8(r))
		if r == 6 {
			return 3
		}
		return 2
	case 2: // RES n, r
		c.setReg8(r, resBit(n, c.getReg8(r)))
		if r == 6 {
			return 4
		}
		return 2
	case 3: // SET n, r
		c.setReg8(r, setBit(n, c.getReg8(r)))
		if r == 6 {
			return 4
		}
		return 2
	}
	return c.lock(op)
}

func (c *CPU) cbShift(kind, r uint8) uint8 {
	v := c.getReg8(r)
	var res uint8
	switch kind {
	case 0:
		res = c.rlc(v)
	case 1:
		res = c.rrc(v)
	case 2:
		res = c.rl(v)
	case 3:
		res = c.rr(v)
	case 4:
		res = c.sla(v)
	case 5:
		res = c.sra(v)
	case 6:
		res = c.swap(v)
	case 7:
		res = c.srl(v)
	}
	c.setReg8(r, res)
	if r == 6 {
		return 4
	}
	return 2
}

// halt implements HALT, including the HALT-bug corner case where IME
// is clear but an interrupt is already pending: the CPU does not
// actually stop, but fails to advance PC on its next fetch (spec.md
// §4.1, §8).
func (c *CPU) halt() uint8 {
	if !c.irq.IME && c.irq.Pending() {
		c.haltBug = true
		return 1
	}
	c.halted = true
	return 1
}

// stop consumes STOP's required (and otherwise ignored) second byte
// and halts the CPU; CGB double-speed switching is decoded at the
// KEY1 register but has no behavioral effect here (host frame pacing
// and audio are out of scope, per spec.md's Non-goals).
func (c *CPU) stop() uint8 {
	c.fetch()
	c.halted = true
	return 1
}

func (c *CPU) cond(cc uint8) bool {
	switch cc {
	case 0:
		return !c.flag(flagZ)
	case 1:
		return c.flag(flagZ)
	case 2:
		return !c.flag(flagC)
	case 3:
		return c.flag(flagC)
	}
	return false
}

func (c *CPU) getReg8(idx uint8) uint8 {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.bus.Read(c.hl())
	default:
		return c.A
	}
}

func (c *CPU) setReg8(idx uint8, v uint8) {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.bus.Write(c.hl(), v)
	default:
		c.A = v
	}
}

func (c *CPU) getRP(rp uint8) uint16 {
	switch rp {
	case 0:
		return c.bc()
	case 1:
		return c.de()
	case 2:
		return c.hl()
	default:
		return c.SP
	}
}

func (c *CPU) setRP(rp uint8, v uint16) {
	switch rp {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setHL(v)
	default:
		c.SP = v
	}
}

func (c *CPU) getRP2(rp uint8) uint16 {
	switch rp {
	case 0:
		return c.bc()
	case 1:
		return c.de()
	case 2:
		return c.hl()
	default:
		return c.af()
	}
}

func (c *CPU) setRP2(rp uint8, v uint16) {
	switch rp {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setHL(v)
	default:
		c.setAF(v)
	}
}
