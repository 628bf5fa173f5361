package audio

import (
	"log/slog"
	"os"
	"strings"
)

// IsWSL checks if the current environment is Windows Subsystem for Linux,
// where malgo device output is known to crackle.
func IsWSL() bool {
	return detectWSLFromData(readProcVersion(), os.Getenv("WSL_DISTRO_NAME"))
}

// detectWSLFromData checks for WSL indicators in the provided data (for testing)
func detectWSLFromData(procVersion, wslEnv string) bool {
	if wslEnv != "" {
		slog.Debug("WSL detected via environment variable", "distro", wslEnv)
		return true
	}

	procLower := strings.ToLower(procVersion)
	if strings.Contains(procLower, "microsoft") || strings.Contains(procLower, "wsl") {
		slog.Debug("WSL detected via /proc/version")
		return true
	}
	return false
}

// readProcVersion reads /proc/version file content
func readProcVersion() string {
	content, err := os.ReadFile("/proc/version")
	if err != nil {
		slog.Debug("failed to read /proc/version", "error", err)
		return ""
	}
	return string(content)
}

// DetectOptimalBackend determines the best backend type for this system.
func DetectOptimalBackend() string {
	return detectOptimalBackendForPlatform(IsWSL())
}

// detectOptimalBackendForPlatform allows dependency injection for testing
func detectOptimalBackendForPlatform(isWSL bool) string {
	if isWSL {
		slog.Debug("WSL detected, preferring null backend over malgo")
		return BackendNull
	}
	slog.Debug("native system detected, preferring malgo backend")
	return BackendMalgo
}
