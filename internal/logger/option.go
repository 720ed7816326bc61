package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelCore overrides the level of a wrapped core.
// It lets a single command log less than the shared atomic level allows.
type levelCore struct {
	zapcore.Core

	// minLevel is the lowest level this core accepts.
	minLevel zapcore.Level
}

// Enabled reports whether l passes the overridden level.
func (c *levelCore) Enabled(l zapcore.Level) bool {
	return c.minLevel.Enabled(l) && c.Core.Enabled(l)
}

// Check adds the core to ce when the entry level is enabled.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *levelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the level override on derived cores.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{
		Core:     c.Core.With(fields),
		minLevel: c.minLevel,
	}
}

// WithLevel returns an option that raises the minimum level of an existing logger.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelCore{
			Core:     core,
			minLevel: lvl,
		}
	})
}
