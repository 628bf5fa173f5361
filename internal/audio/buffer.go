package audio

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
)

// Buffer is one decoded audio asset uploaded to the backend. Its contents
// are immutable, so any number of Sounds can bind to the same Buffer
// without synchronization. A Buffer must outlive every Sound bound to it.
type Buffer struct {
	id       BufferID
	data     *AudioData
	path     string
	backend  SourceBackend
	released bool
}

// LoadBuffer reads, decodes, and uploads one audio file.
func LoadBuffer(fs afero.Fs, registry *DecoderRegistry, backend SourceBackend, path string) (*Buffer, error) {
	file, err := fs.Open(path)
	if err != nil {
		slog.Error("failed to open audio file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	data, err := registry.Decode(path, file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return NewBuffer(backend, data, path)
}

// NewBuffer uploads already decoded audio data to the backend.
func NewBuffer(backend SourceBackend, data *AudioData, path string) (*Buffer, error) {
	id, err := backend.CreateBuffer(data)
	if err != nil {
		slog.Error("backend rejected audio buffer", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create backend buffer: %w", err)
	}

	slog.Debug("buffer loaded", "path", path, "buffer", id)
	return &Buffer{
		id:      id,
		data:    data,
		path:    path,
		backend: backend,
	}, nil
}

// ID returns the backend buffer identifier used to bind sources.
func (b *Buffer) ID() BufferID {
	return b.id
}

// Data returns the decoded audio data.
func (b *Buffer) Data() *AudioData {
	return b.data
}

// Path returns the file the buffer was loaded from, if any.
func (b *Buffer) Path() string {
	return b.path
}

// Release frees the backend buffer. Sounds bound to this Buffer must be
// released first. Releasing twice is a no-op.
func (b *Buffer) Release() error {
	if b.released {
		return nil
	}
	b.released = true

	if err := b.backend.DestroyBuffer(b.id); err != nil {
		slog.Error("failed to destroy backend buffer", "buffer", b.id, "error", err)
		return err
	}
	slog.Debug("buffer released", "buffer", b.id, "path", b.path)
	return nil
}
