package audio

import (
	"log/slog"

	"github.com/spf13/afero"
)

// Engine bundles the context oracle, the source backend, the decoder
// registry, and the filesystem, and constructs Sounds and Buffers. One
// Engine serves any number of Sounds.
type Engine struct {
	ctx      *Context
	backend  SourceBackend
	registry *DecoderRegistry
	fs       afero.Fs
}

// NewEngine creates an engine with a factory-selected backend.
// backendType may be empty for auto-detection.
func NewEngine(backendType string) (*Engine, error) {
	ctx, backend, err := NewBackendFactory().CreateBackend(backendType)
	if err != nil {
		return nil, err
	}
	return NewEngineWith(ctx, backend), nil
}

// NewEngineWith creates an engine over an existing context and backend.
// The engine takes ownership of both.
func NewEngineWith(ctx *Context, backend SourceBackend) *Engine {
	return &Engine{
		ctx:      ctx,
		backend:  backend,
		registry: NewDefaultRegistry(),
		fs:       afero.NewOsFs(),
	}
}

// SetFs replaces the filesystem used to load audio files.
func (e *Engine) SetFs(fs afero.Fs) {
	e.fs = fs
}

// Context returns the engine's context oracle.
func (e *Engine) Context() *Context {
	return e.ctx
}

// Backend returns the engine's source backend.
func (e *Engine) Backend() SourceBackend {
	return e.backend
}

// LoadBuffer decodes one audio file into a shareable Buffer.
func (e *Engine) LoadBuffer(path string) (*Buffer, error) {
	if err := e.ctx.Check(); err != nil {
		slog.Error("buffer load refused", "path", path, "error", err)
		return nil, err
	}
	return LoadBuffer(e.fs, e.registry, e.backend, path)
}

// Close shuts down the backend, then the context. Sounds created from
// this engine must not be used afterwards.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.backend.Close(); err != nil {
		slog.Error("error closing audio backend", "error", err)
		firstErr = err
	}
	if err := e.ctx.Close(); err != nil {
		slog.Error("error closing audio context", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
