package gbcore

import (
	"gbcore/internal/types"
	"gbcore/pkg/log"
)

// Option configures a Core at construction time, following the
// functional-options idiom the teacher uses throughout pkg/log and its
// top-level gameboy package.
type Option func(*config)

type config struct {
	bootROM     []byte
	model       *types.Model
	logger      log.Logger
	externalRAM []byte
}

// WithBootROM installs a boot ROM image (256 bytes for DMG, 2304 bytes
// for CGB) to run before the cartridge's own entry point; New rejects
// any other size with cartridge.ErrBootROMSize. Without it, New loads
// the post-boot register values of the selected model and execution
// starts directly at the cartridge's entry point (spec.md §6, §7).
func WithBootROM(data []byte) Option {
	return func(c *config) { c.bootROM = data }
}

// WithModel forces DMG or CGB emulation instead of inferring it from
// the cartridge header's CGB-support flag.
func WithModel(m types.Model) Option {
	return func(c *config) { c.model = &m }
}

// WithLogger installs a pkg/log.Logger; New uses a null logger if this
// option is absent.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithExternalRAM preloads the cartridge's battery-backed RAM, e.g.
// from a save file read by the caller (spec.md §6's Core.SetExternalRAM).
func WithExternalRAM(data []byte) Option {
	return func(c *config) { c.externalRAM = data }
}
