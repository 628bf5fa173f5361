package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// stubXDG records directory creation requests so path resolution can be
// tested without touching the real XDG tree.
type stubXDG struct {
	root             string
	cacheDirsCreated []string
	dataDirsCreated  []string
}

func (s *stubXDG) GetConfigPaths(filename string) []string {
	return []string{filepath.Join(s.root, "config", filename)}
}

func (s *stubXDG) GetCachePath(purpose string) string {
	return filepath.Join(s.root, "cache", purpose)
}

func (s *stubXDG) GetDataPath(purpose string) string {
	return filepath.Join(s.root, "data", purpose)
}

func (s *stubXDG) CreateCacheDir(purpose string) error {
	s.cacheDirsCreated = append(s.cacheDirsCreated, purpose)
	return nil
}

func (s *stubXDG) CreateDataDir(purpose string) error {
	s.dataDirsCreated = append(s.dataDirsCreated, purpose)
	return nil
}

func TestGetDefaultConfig(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())
	cfg := cm.GetDefaultConfig()

	if cfg.Volume != 1.0 {
		t.Errorf("default volume = %v, expected 1.0", cfg.Volume)
	}
	if cfg.AudioBackend != "auto" {
		t.Errorf("default backend = %q, expected auto", cfg.AudioBackend)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("default log level = %q, expected warn", cfg.LogLevel)
	}
	if !cfg.History {
		t.Error("history disabled by default")
	}
	if cfg.FileLogging == nil {
		t.Fatal("default file logging config missing")
	}
	if cfg.FileLogging.Enabled {
		t.Error("file logging enabled by default")
	}

	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestConfigSaveAndLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cm := NewConfigManagerWithFs(fs)

	original := &Config{
		Volume:       0.3,
		AudioBackend: "null",
		LogLevel:     "debug",
		History:      false,
	}

	path := "/etc/earcon/config.json"
	if err := cm.SaveToFile(original, path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := cm.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if loaded.Volume != original.Volume {
		t.Errorf("volume = %v, expected %v", loaded.Volume, original.Volume)
	}
	if loaded.AudioBackend != original.AudioBackend {
		t.Errorf("backend = %q, expected %q", loaded.AudioBackend, original.AudioBackend)
	}
	if loaded.LogLevel != original.LogLevel {
		t.Errorf("log level = %q, expected %q", loaded.LogLevel, original.LogLevel)
	}
	if loaded.History != original.History {
		t.Errorf("history = %v, expected %v", loaded.History, original.History)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())

	if _, err := cm.LoadFromFile("/nowhere/config.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromFileInvalidJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/config.json", []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	cm := NewConfigManagerWithFs(fs)

	if _, err := cm.LoadFromFile("/config.json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())

	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.AudioBackend != "auto" {
		t.Errorf("fallback backend = %q, expected auto defaults", cfg.AudioBackend)
	}
}

func TestValidateConfig(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())

	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "valid",
			config: Config{Volume: 0.5, AudioBackend: "malgo", LogLevel: "info", History: true},
		},
		{
			name:   "empty backend and log level",
			config: Config{Volume: 1.0},
		},
		{
			name:    "volume too high",
			config:  Config{Volume: 1.5},
			wantErr: "volume",
		},
		{
			name:    "volume negative",
			config:  Config{Volume: -0.1},
			wantErr: "volume",
		},
		{
			name:    "bad log level",
			config:  Config{Volume: 0.5, LogLevel: "verbose"},
			wantErr: "log level",
		},
		{
			name:    "bad backend",
			config:  Config{Volume: 0.5, AudioBackend: "openal"},
			wantErr: "audio backend",
		},
		{
			name: "negative rotation limits",
			config: Config{
				Volume:      0.5,
				FileLogging: &FileLoggingConfig{MaxSizeMB: -1},
			},
			wantErr: "max_size_mb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cm.ValidateConfig(&tt.config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveToFileRejectsInvalidConfig(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())

	bad := &Config{Volume: 7.0}
	if err := cm.SaveToFile(bad, "/config.json"); err == nil {
		t.Error("expected save of invalid config to fail")
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())

	t.Setenv("EARCON_VOLUME", "0.25")
	t.Setenv("EARCON_AUDIO_BACKEND", "null")
	t.Setenv("EARCON_LOG_LEVEL", "debug")
	t.Setenv("EARCON_HISTORY", "false")

	cfg := cm.ApplyEnvironmentOverrides(cm.GetDefaultConfig())

	if cfg.Volume != 0.25 {
		t.Errorf("volume = %v, expected 0.25", cfg.Volume)
	}
	if cfg.AudioBackend != "null" {
		t.Errorf("backend = %q, expected null", cfg.AudioBackend)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, expected debug", cfg.LogLevel)
	}
	if cfg.History {
		t.Error("history override not applied")
	}
}

func TestApplyEnvironmentOverridesIgnoresInvalid(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())

	t.Setenv("EARCON_VOLUME", "loud")
	t.Setenv("EARCON_AUDIO_BACKEND", "openal")

	cfg := cm.ApplyEnvironmentOverrides(cm.GetDefaultConfig())

	if cfg.Volume != 1.0 {
		t.Errorf("invalid volume override applied: %v", cfg.Volume)
	}
	if cfg.AudioBackend != "auto" {
		t.Errorf("invalid backend override applied: %q", cfg.AudioBackend)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"WARN", slog.LevelWarn, false},
		{"verbose", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		level, err := ParseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLogLevel(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLogLevel(%q) errored: %v", tt.input, err)
			continue
		}
		if level != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, expected %v", tt.input, level, tt.expected)
		}
	}
}

func TestIsValidAudioBackend(t *testing.T) {
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())

	tests := []struct {
		backend  string
		expected bool
	}{
		{"auto", true},
		{"malgo", true},
		{"null", true},
		{"", true},
		{"openal", false},
		{"system_command", false},
	}

	for _, tt := range tests {
		if got := cm.IsValidAudioBackend(tt.backend); got != tt.expected {
			t.Errorf("IsValidAudioBackend(%q) = %v, expected %v", tt.backend, got, tt.expected)
		}
	}
}

func TestResolveLogFilePath(t *testing.T) {
	xdgStub := &stubXDG{root: "/xdg"}
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())
	cm.xdg = xdgStub

	if got := cm.ResolveLogFilePath("/custom/earcon.log"); got != "/custom/earcon.log" {
		t.Errorf("explicit path = %q, expected passthrough", got)
	}
	if len(xdgStub.cacheDirsCreated) != 0 {
		t.Errorf("explicit path created cache dirs: %v", xdgStub.cacheDirsCreated)
	}

	resolved := cm.ResolveLogFilePath("")
	if resolved != filepath.Join("/xdg", "cache", "logs", "earcon.log") {
		t.Errorf("default path = %q, expected XDG cache earcon.log", resolved)
	}
	if len(xdgStub.cacheDirsCreated) != 1 || xdgStub.cacheDirsCreated[0] != "logs" {
		t.Errorf("cache dirs created = %v, expected [logs]", xdgStub.cacheDirsCreated)
	}
}

func TestResolveHistoryDBPathCreatesDataDir(t *testing.T) {
	xdgStub := &stubXDG{root: "/xdg"}
	cm := NewConfigManagerWithFs(afero.NewMemMapFs())
	cm.xdg = xdgStub

	resolved := cm.ResolveHistoryDBPath()
	if resolved != filepath.Join("/xdg", "data", "history.db") {
		t.Errorf("history path = %q, expected XDG data history.db", resolved)
	}
	if len(xdgStub.dataDirsCreated) != 1 {
		t.Errorf("data dirs created = %v, expected one", xdgStub.dataDirsCreated)
	}
}
