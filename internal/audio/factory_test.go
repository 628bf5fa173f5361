package audio

import (
	"errors"
	"testing"
)

func TestFactoryImplementsInterface(t *testing.T) {
	var _ BackendFactory = (*DefaultBackendFactory)(nil)
}

func TestFactorySupportedBackends(t *testing.T) {
	factory := NewBackendFactory()

	backends := factory.GetSupportedBackends()
	expected := map[string]bool{BackendAuto: true, BackendMalgo: true, BackendNull: true}

	if len(backends) != len(expected) {
		t.Fatalf("got %d backends, expected %d", len(backends), len(expected))
	}
	for _, b := range backends {
		if !expected[b] {
			t.Errorf("unexpected backend %q", b)
		}
	}
}

func TestFactoryIsValidBackendType(t *testing.T) {
	factory := NewBackendFactory()

	tests := []struct {
		backendType string
		expected    bool
	}{
		{BackendAuto, true},
		{BackendMalgo, true},
		{BackendNull, true},
		{"", true},
		{"openal", false},
		{"MALGO", false},
	}

	for _, tt := range tests {
		if got := factory.IsValidBackendType(tt.backendType); got != tt.expected {
			t.Errorf("IsValidBackendType(%q) = %v, expected %v", tt.backendType, got, tt.expected)
		}
	}
}

func TestFactoryCreateNullBackend(t *testing.T) {
	factory := NewBackendFactory()

	ctx, backend, err := factory.CreateBackend(BackendNull)
	if err != nil {
		t.Fatalf("CreateBackend(null) failed: %v", err)
	}
	defer ctx.Close()
	defer backend.Close()

	if err := ctx.Check(); err != nil {
		t.Errorf("null context not valid: %v", err)
	}
	if _, ok := backend.(*NullBackend); !ok {
		t.Errorf("backend is %T, expected *NullBackend", backend)
	}
}

func TestFactoryCreateInvalidBackend(t *testing.T) {
	factory := NewBackendFactory()

	ctx, backend, err := factory.CreateBackend("openal")
	if !errors.Is(err, ErrInvalidBackendType) {
		t.Errorf("error = %v, expected ErrInvalidBackendType", err)
	}
	if ctx != nil || backend != nil {
		t.Error("expected nil context and backend on invalid type")
	}
}

func TestFactoryAutoSelectsNullOnWSL(t *testing.T) {
	factory := NewBackendFactoryWithDependencies(func() bool { return true })

	ctx, backend, err := factory.CreateBackend(BackendAuto)
	if err != nil {
		t.Fatalf("CreateBackend(auto) failed: %v", err)
	}
	defer ctx.Close()
	defer backend.Close()

	if _, ok := backend.(*NullBackend); !ok {
		t.Errorf("WSL auto backend is %T, expected *NullBackend", backend)
	}
}

func TestFactoryEmptyTypeMeansAuto(t *testing.T) {
	factory := NewBackendFactoryWithDependencies(func() bool { return true })

	ctx, backend, err := factory.CreateBackend("")
	if err != nil {
		t.Fatalf("CreateBackend(\"\") failed: %v", err)
	}
	defer ctx.Close()
	defer backend.Close()

	if _, ok := backend.(*NullBackend); !ok {
		t.Errorf("backend is %T, expected *NullBackend", backend)
	}
}
