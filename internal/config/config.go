package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// Config represents earcon configuration
type Config struct {
	Volume       float64            `json:"volume"`                 // Master volume (0.0 to 1.0)
	AudioBackend string             `json:"audio_backend"`          // Audio backend (auto, malgo, null)
	LogLevel     string             `json:"log_level"`              // Log level (debug, info, warn, error)
	History      bool               `json:"history"`                // Whether to record play history
	FileLogging  *FileLoggingConfig `json:"file_logging,omitempty"` // File logging configuration
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
	GetDataPath(purpose string) string
	CreateCacheDir(purpose string) error
	CreateDataDir(purpose string) error
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManager creates a configuration manager over the real filesystem.
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFs(afero.NewOsFs())
}

// NewConfigManagerWithFs creates a configuration manager over a custom
// filesystem, for testing.
func NewConfigManagerWithFs(fs afero.Fs) *ConfigManager {
	slog.Debug("creating config manager")
	return &ConfigManager{
		xdg: NewXDGDirs(),
		fs:  fs,
	}
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	return &Config{
		Volume:       1.0,
		AudioBackend: "auto",
		LogLevel:     "warn",
		History:      true,
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "", // empty = XDG cache path
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// LoadFromFile loads configuration from a specific file
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(&config); err != nil {
		slog.Error("config validation failed", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Debug("config loaded",
		"file_path", filePath,
		"volume", config.Volume,
		"audio_backend", config.AudioBackend)

	return &config, nil
}

// SaveToFile saves configuration to a specific file
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		slog.Error("cannot save invalid config", "error", err)
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		slog.Error("failed to marshal config", "error", err)
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved", "file_path", filePath)
	return nil
}

// LoadConfig loads configuration using XDG path discovery, falling back to
// defaults when no config file exists.
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	configPaths := cm.xdg.GetConfigPaths("config.json")

	for _, configPath := range configPaths {
		if _, err := cm.fs.Stat(configPath); err == nil {
			slog.Debug("found config file", "path", configPath)
			return cm.LoadFromFile(configPath)
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig validates configuration values
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var problems []string

	if config.Volume < 0.0 || config.Volume > 1.0 {
		problems = append(problems, fmt.Sprintf("volume must be between 0.0 and 1.0, got %f", config.Volume))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if config.LogLevel != "" {
		valid := false
		for _, level := range validLogLevels {
			if config.LogLevel == level {
				valid = true
				break
			}
		}
		if !valid {
			problems = append(problems, fmt.Sprintf("invalid log level '%s', must be one of: %s",
				config.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	if !cm.IsValidAudioBackend(config.AudioBackend) {
		problems = append(problems, fmt.Sprintf("invalid audio backend '%s', must be one of: %s",
			config.AudioBackend, strings.Join(cm.GetSupportedAudioBackends(), ", ")))
	}

	if config.FileLogging != nil {
		fl := config.FileLogging
		if fl.MaxSizeMB < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fl.MaxSizeMB))
		}
		if fl.MaxBackups < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fl.MaxBackups))
		}
		if fl.MaxAgeDays < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fl.MaxAgeDays))
		}
	}

	if len(problems) > 0 {
		errMsg := strings.Join(problems, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}
	return nil
}

// ApplyEnvironmentOverrides applies environment variable overrides to config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	result := *config

	if volStr := os.Getenv("EARCON_VOLUME"); volStr != "" {
		if vol, err := strconv.ParseFloat(volStr, 64); err == nil {
			result.Volume = vol
			slog.Debug("applied volume override from environment", "value", vol)
		} else {
			slog.Warn("invalid EARCON_VOLUME environment variable", "value", volStr, "error", err)
		}
	}

	if backend := os.Getenv("EARCON_AUDIO_BACKEND"); backend != "" {
		if cm.IsValidAudioBackend(backend) {
			result.AudioBackend = backend
			slog.Debug("applied audio backend override from environment", "value", backend)
		} else {
			slog.Warn("invalid EARCON_AUDIO_BACKEND environment variable", "value", backend)
		}
	}

	if logLevel := os.Getenv("EARCON_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = logLevel
		slog.Debug("applied log level override from environment", "value", logLevel)
	}

	if historyStr := os.Getenv("EARCON_HISTORY"); historyStr != "" {
		if history, err := strconv.ParseBool(historyStr); err == nil {
			result.History = history
			slog.Debug("applied history override from environment", "value", history)
		} else {
			slog.Warn("invalid EARCON_HISTORY environment variable", "value", historyStr, "error", err)
		}
	}

	return &result
}

// ParseLogLevel parses a log level string to slog.Level.
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
	}
}

// ResolveLogFilePath resolves the log file path, using the XDG cache
// directory when filename is empty. The cache directory is created so the
// caller can open the file directly.
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	if err := cm.xdg.CreateCacheDir("logs"); err != nil {
		slog.Warn("failed to create log cache directory", "error", err)
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "earcon.log")
}

// ResolveHistoryDBPath resolves the play history database path, creating
// the XDG data directory it lives in.
func (cm *ConfigManager) ResolveHistoryDBPath() string {
	if err := cm.xdg.CreateDataDir(""); err != nil {
		slog.Warn("failed to create history data directory", "error", err)
	}
	return filepath.Join(cm.xdg.GetDataPath(""), "history.db")
}

// GetSupportedAudioBackends returns a list of all supported audio backend types
func (cm *ConfigManager) GetSupportedAudioBackends() []string {
	return []string{"auto", "malgo", "null"}
}

// IsValidAudioBackend checks if an audio backend type is supported. The
// empty string is valid and defaults to auto.
func (cm *ConfigManager) IsValidAudioBackend(backend string) bool {
	if backend == "" {
		return true
	}
	for _, supported := range cm.GetSupportedAudioBackends() {
		if backend == supported {
			return true
		}
	}
	return false
}
