// Package gbcore implements a cycle-stepped Game Boy DMG/CGB core: CPU,
// MMU, PPU, timer and joypad. It owns no host frontend, audio, input
// mapping, window management or save-state serialization (spec.md §1's
// Non-goals) — only the hardware simulation and the narrow surface a
// frontend needs to drive it.
//
// Construction wires components in the order internal/cpu, internal/mmu,
// internal/ppu, internal/timer, internal/joypad and internal/interrupts
// require: the interrupt controller first (every other component holds
// a reference to it), then timer and joypad, then the MMU (which owns
// cartridge/WRAM/HRAM dispatch), then the PPU (attached into the MMU
// after both exist), and finally the CPU, which addresses everything
// else through the MMU alone.
package gbcore

import (
	"gbcore/internal/cartridge"
	"gbcore/internal/cpu"
	"gbcore/internal/interrupts"
	"gbcore/internal/joypad"
	"gbcore/internal/mmu"
	"gbcore/internal/ppu"
	"gbcore/internal/timer"
	"gbcore/internal/types"
	"gbcore/pkg/log"
)

// Button re-exports internal/joypad.Button so callers never need to
// import an internal package.
type Button = joypad.Button

const (
	ButtonA      = joypad.ButtonA
	ButtonB      = joypad.ButtonB
	ButtonSelect = joypad.ButtonSelect
	ButtonStart  = joypad.ButtonStart
	ButtonRight  = joypad.ButtonRight
	ButtonLeft   = joypad.ButtonLeft
	ButtonUp     = joypad.ButtonUp
	ButtonDown   = joypad.ButtonDown
)

// ErrInvalidButton is returned by Press/Release for an out-of-range
// Button (spec.md §7).
var ErrInvalidButton = joypad.ErrInvalidButton

// Model identifies DMG vs CGB emulation.
type Model = types.Model

const (
	ModelDMG = types.ModelDMG
	ModelCGB = types.ModelCGB
)

// cyclesPerFrame is the T-cycle length of one Game Boy video frame
// (70224 = 456 T-cycles/scanline * 154 scanlines), used as RunFrame's
// fallback bound when the LCD is off and the PPU never reports a
// completed frame on its own (spec.md §8's throughput property).
const cyclesPerFrame = 70224

// tCyclesPerSecond is the DMG/CGB (single-speed) T-cycle clock rate,
// used to drive the MBC3 RTC one real second at a time as T-cycles
// accumulate (spec.md §3, SPEC_FULL.md §12).
const tCyclesPerSecond = 4194304

// Core is a complete, runnable Game Boy: one cartridge plus the five
// hardware components that execute it.
type Core struct {
	cart *cartridge.Cartridge
	irq  *interrupts.Service
	tim  *timer.Controller
	pad  *joypad.State
	mmu  *mmu.MMU
	ppu  *ppu.PPU
	cpu  *cpu.CPU

	log log.Logger

	lastMode uint8
	rtcAccum uint32
}

// New constructs a Core from a ROM image. It returns the cartridge
// package's sentinel errors (ErrROMTooShort, ErrUnsupportedMBC) if the
// ROM is malformed or names an unimplemented memory bank controller,
// and ErrBootROMSize if a WithBootROM image is neither 256 nor 2304
// bytes long.
func New(rom []byte, opts ...Option) (*Core, error) {
	cart, err := cartridge.New(rom)
	if err != nil {
		return nil, err
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.bootROM != nil && len(cfg.bootROM) != 256 && len(cfg.bootROM) != 2304 {
		return nil, cartridge.ErrBootROMSize
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.NewNullLogger()
	}

	model := types.Model(cart.PreferredModel())
	if cfg.model != nil {
		model = *cfg.model
	}

	irq := interrupts.NewService()
	tim := timer.New(irq)
	pad := joypad.New(irq)

	m := mmu.New(model, cart, tim, pad, irq, logger)
	if cfg.bootROM != nil {
		m.SetBootROM(cfg.bootROM)
	}
	if cfg.externalRAM != nil {
		cart.SetExternalRAM(cfg.externalRAM)
	}

	p := ppu.New(model, irq)
	m.AttachVideo(p)

	c := cpu.New(m, irq, logger)
	logger.Infof("loaded cartridge %q (model=%d)", cart.Title(), model)
	if cfg.bootROM == nil {
		// No boot ROM: start execution directly at the cartridge entry
		// point with the documented post-boot register/stack state
		// (spec.md §7), instead of simulating the boot ROM's own code.
		c.PC = 0x0100
		c.SP = 0xFFFE
		if model == types.ModelCGB {
			c.A, c.F = 0x11, 0x80
			c.B, c.C = 0x00, 0x00
			c.D, c.E = 0xFF, 0x56
			c.H, c.L = 0x00, 0x0D
		} else {
			c.A, c.F = 0x01, 0xB0
			c.B, c.C = 0x00, 0x13
			c.D, c.E = 0x00, 0xD8
			c.H, c.L = 0x01, 0x4D
		}
	}

	return &Core{cart: cart, irq: irq, tim: tim, pad: pad, mmu: m, ppu: p, cpu: c, log: logger}, nil
}

// Step executes exactly one CPU instruction (or interrupt dispatch, or
// one idle cycle while halted/locked) and advances the PPU, timer and
// any in-flight OAM DMA / HDMA transfer by the same number of T-cycles,
// per the canonical loop spec.md §5 describes. It returns the number of
// T-cycles advanced.
func (c *Core) Step() uint16 {
	cycles := c.cpu.Step()
	tCycles := uint16(cycles) * 4

	c.ppu.Step(tCycles)
	c.tim.Step(tCycles)
	c.mmu.StepDMA(tCycles)

	c.rtcAccum += uint32(tCycles)
	for c.rtcAccum >= tCyclesPerSecond {
		c.rtcAccum -= tCyclesPerSecond
		c.cart.TickRTC()
	}

	mode := c.ppu.Mode()
	if mode == 0 && c.lastMode != 0 && c.mmu.HDMAActive() {
		c.mmu.StepHBlankHDMA()
	}
	c.lastMode = mode
	return tCycles
}

// RunFrame steps the core until one video frame completes, or until
// 70224 T-cycles have elapsed if the LCD is disabled and the PPU never
// signals a completed frame on its own.
func (c *Core) RunFrame() {
	var elapsed uint32
	for {
		elapsed += uint32(c.Step())

		if c.ppu.FrameReady() {
			return
		}
		if elapsed >= cyclesPerFrame {
			return
		}
	}
}

// Press marks a button held down, requesting the Joypad interrupt on a
// 1->0 transition the current P1 row-select exposes. It returns
// ErrInvalidButton for an out-of-range Button.
func (c *Core) Press(b Button) error { return c.pad.Press(b) }

// Release marks a button as no longer held down.
func (c *Core) Release(b Button) error { return c.pad.Release(b) }

// Framebuffer returns the most recently completed frame as 160x144
// RGB888 pixels.
func (c *Core) Framebuffer() *ppu.Frame { return c.ppu.Frame() }

// ExternalRAM returns the cartridge's battery-backed RAM, or nil if it
// has none, for the caller to persist across runs.
func (c *Core) ExternalRAM() []byte { return c.cart.ExternalRAM() }

// SetExternalRAM restores previously-saved external RAM contents.
func (c *Core) SetExternalRAM(data []byte) { c.cart.SetExternalRAM(data) }

// Title returns the cartridge's internal title from its header.
func (c *Core) Title() string { return c.cart.Title() }
