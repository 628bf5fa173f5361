package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appDir = "earcon"

// XDGDirs provides XDG Base Directory compliant paths.
type XDGDirs struct{}

// NewXDGDirs creates a new XDG directory manager.
func NewXDGDirs() *XDGDirs {
	return &XDGDirs{}
}

// GetConfigPaths returns prioritized paths where config files can be found,
// user config dir first, then system config dirs.
func (x *XDGDirs) GetConfigPaths(filename string) []string {
	var paths []string

	userConfigPath := filepath.Join(xdg.ConfigHome, appDir)
	if filename != "" {
		userConfigPath = filepath.Join(userConfigPath, filename)
	}
	paths = append(paths, userConfigPath)

	for _, configDir := range xdg.ConfigDirs {
		systemConfigPath := filepath.Join(configDir, appDir)
		if filename != "" {
			systemConfigPath = filepath.Join(systemConfigPath, filename)
		}
		paths = append(paths, systemConfigPath)
	}

	slog.Debug("generated config paths",
		"filename", filename,
		"total_paths", len(paths),
		"user_path", paths[0])

	return paths
}

// GetCachePath returns the cache directory path for a specific purpose.
func (x *XDGDirs) GetCachePath(purpose string) string {
	baseDir := appDir
	if purpose != "" {
		baseDir = filepath.Join(baseDir, purpose)
	}
	return filepath.Join(xdg.CacheHome, baseDir)
}

// GetDataPath returns the user data directory path for a specific purpose,
// used for durable state like the play history database.
func (x *XDGDirs) GetDataPath(purpose string) string {
	baseDir := appDir
	if purpose != "" {
		baseDir = filepath.Join(baseDir, purpose)
	}
	return filepath.Join(xdg.DataHome, baseDir)
}

// CreateCacheDir creates the cache directory for a specific purpose.
func (x *XDGDirs) CreateCacheDir(purpose string) error {
	cachePath := x.GetCachePath(purpose)

	if err := os.MkdirAll(cachePath, 0755); err != nil {
		slog.Error("failed to create cache directory", "path", cachePath, "error", err)
		return err
	}
	return nil
}

// CreateDataDir creates the data directory for a specific purpose.
func (x *XDGDirs) CreateDataDir(purpose string) error {
	dataPath := x.GetDataPath(purpose)

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		slog.Error("failed to create data directory", "path", dataPath, "error", err)
		return err
	}
	return nil
}
