package audio

import (
	"errors"
	"fmt"
	"log/slog"
)

// Backend type names accepted by the factory.
const (
	BackendAuto  = "auto"
	BackendMalgo = "malgo"
	BackendNull  = "null"
)

// Factory errors
var (
	ErrInvalidBackendType    = errors.New("invalid backend type")
	ErrBackendCreationFailed = errors.New("backend creation failed")
)

// BackendFactory creates a (Context, SourceBackend) pair for a backend type.
type BackendFactory interface {
	CreateBackend(backendType string) (*Context, SourceBackend, error)
	GetSupportedBackends() []string
	IsValidBackendType(backendType string) bool
}

// DefaultBackendFactory implements BackendFactory with platform detection.
type DefaultBackendFactory struct {
	isWSLFunc func() bool
}

// NewBackendFactory creates a factory with real platform detection.
func NewBackendFactory() *DefaultBackendFactory {
	return &DefaultBackendFactory{isWSLFunc: IsWSL}
}

// NewBackendFactoryWithDependencies creates a factory with injected platform
// detection for testing.
func NewBackendFactoryWithDependencies(isWSLFunc func() bool) *DefaultBackendFactory {
	return &DefaultBackendFactory{isWSLFunc: isWSLFunc}
}

// CreateBackend creates the context and backend for the given type.
// An empty type defaults to auto-detection.
func (f *DefaultBackendFactory) CreateBackend(backendType string) (*Context, SourceBackend, error) {
	if backendType == "" {
		backendType = BackendAuto
	}

	slog.Debug("creating audio backend", "type", backendType)

	switch backendType {
	case BackendAuto:
		return f.CreateBackend(detectOptimalBackendForPlatform(f.isWSLFunc()))
	case BackendMalgo:
		return f.createMalgoBackend()
	case BackendNull:
		return f.createNullBackend()
	default:
		slog.Error("invalid backend type requested", "type", backendType)
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidBackendType, backendType)
	}
}

// GetSupportedBackends returns every supported backend type.
func (f *DefaultBackendFactory) GetSupportedBackends() []string {
	return []string{BackendAuto, BackendMalgo, BackendNull}
}

// IsValidBackendType checks if a backend type is supported. The empty
// string is valid and means auto.
func (f *DefaultBackendFactory) IsValidBackendType(backendType string) bool {
	if backendType == "" {
		return true
	}
	for _, supported := range f.GetSupportedBackends() {
		if backendType == supported {
			return true
		}
	}
	return false
}

func (f *DefaultBackendFactory) createMalgoBackend() (*Context, SourceBackend, error) {
	ctx, err := NewContext()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBackendCreationFailed, err)
	}

	backend, err := NewMalgoBackend(ctx)
	if err != nil {
		ctx.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrBackendCreationFailed, err)
	}

	slog.Debug("malgo backend created")
	return ctx, backend, nil
}

func (f *DefaultBackendFactory) createNullBackend() (*Context, SourceBackend, error) {
	slog.Debug("null backend created")
	return NewNullContext(), NewNullBackend(), nil
}
