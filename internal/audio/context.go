package audio

import (
	"errors"
	"log/slog"

	"github.com/gen2brain/malgo"
)

// ErrContextInvalid is reported when an operation is attempted before the
// audio context is initialized or after it has been closed.
var ErrContextInvalid = errors.New("audio context is not valid")

// Context is the process-wide backend initialization state that gates all
// audio operations. It is passed explicitly to the Engine and checked at
// the top of every Sound operation rather than looked up through a global,
// so the invalid-context path can be exercised without a real device stack.
type Context struct {
	mc    *malgo.AllocatedContext
	valid bool
}

// NewContext initializes a device-capable audio context.
func NewContext() (*Context, error) {
	slog.Debug("initializing audio context")

	mc, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("malgo internal", "message", message)
	})
	if err != nil {
		slog.Error("failed to initialize audio context", "error", err)
		return nil, err
	}

	slog.Info("audio context initialized")
	return &Context{mc: mc, valid: true}, nil
}

// NewNullContext returns a valid context with no device stack behind it,
// for headless rendering and tests.
func NewNullContext() *Context {
	slog.Debug("creating null audio context")
	return &Context{valid: true}
}

// Check reports whether the context is ready for audio operations.
// Every Sound operation queries this before touching the backend.
func (c *Context) Check() error {
	if c == nil || !c.valid {
		return ErrContextInvalid
	}
	return nil
}

// Malgo returns the underlying malgo context for device operations.
// It is nil for null contexts.
func (c *Context) Malgo() *malgo.AllocatedContext {
	return c.mc
}

// Close invalidates the context and releases the device stack. Closing an
// already closed context is a no-op.
func (c *Context) Close() error {
	if !c.valid {
		slog.Debug("audio context already closed")
		return nil
	}
	c.valid = false

	if c.mc == nil {
		slog.Debug("null audio context closed")
		return nil
	}

	// malgo requires both Uninit() and Free()
	if err := c.mc.Uninit(); err != nil {
		slog.Error("failed to uninitialize audio context", "error", err)
		return err
	}
	c.mc.Free()
	c.mc = nil

	slog.Info("audio context closed")
	return nil
}
