package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/earcon-audio/earcon/internal/config"
	"github.com/earcon-audio/earcon/internal/history"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

const Version = "0.3.0"

type contextKey string

const cliContextKey contextKey = "cli"

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.ConfigManager
	terminalDetector TerminalDetector
	historyDB        *sql.DB // Optional play history database
}

// NewCLI creates a new CLI instance
func NewCLI() *CLI {
	rootCmd := &cobra.Command{
		Use:           "earcon",
		Short:         "Spatialized audio playback for the terminal",
		Long:          "earcon decodes WAV, MP3, and AIFF files and plays them through a pluggable audio backend with per-sound volume, pitch, looping, and 3D position control.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newPlayCommand())
	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newBackendsCommand())
	rootCmd.AddCommand(newHistoryCommand())

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("volume", "", "Master volume (0.0 to 1.0)")
	rootCmd.PersistentFlags().String("backend", "", "Audio backend (auto, malgo, null)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if version, _ := cmd.Flags().GetBool("version"); version {
			cmd.Printf("earcon version %s\n", Version)
			return nil
		}
		return cmd.Help()
	}

	return &CLI{
		rootCmd:          rootCmd,
		configManager:    nil, // lazy, created in Run
		terminalDetector: nil,
	}
}

// contextWithCLI stores the CLI instance in a context for command handlers
func contextWithCLI(cli *CLI) context.Context {
	return context.WithValue(context.Background(), cliContextKey, cli)
}

// cliFromContext extracts the CLI instance from a command context
func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliContextKey).(*CLI); ok {
		return cli
	}
	return nil
}

// Run executes the CLI with the given arguments and I/O streams
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		fmt.Fprintf(stdout, "earcon version %s\n", Version)
		return 0
	}

	c.initializeSystems()

	defer func() {
		if c.historyDB != nil {
			if err := c.historyDB.Close(); err != nil {
				slog.Error("error closing history database", "error", err)
			}
		}
	}()

	c.rootCmd.SetArgs(args[1:]) // Skip program name
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
	c.rootCmd.SetContext(contextWithCLI(c))

	if err := c.rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		slog.Error("command execution failed", "error", err)
		return 1
	}
	return 0
}

// initializeSystems lazily initializes CLI components
func (c *CLI) initializeSystems() {
	if c.configManager == nil {
		c.configManager = config.NewConfigManager()
	}
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
}

// openHistoryRecorder opens the play history database, or returns nil when
// history is disabled or the database cannot be opened. History failures
// never block playback.
func (c *CLI) openHistoryRecorder(cfg *config.Config) *history.Recorder {
	if !cfg.History {
		slog.Debug("play history disabled")
		return nil
	}

	if c.historyDB == nil {
		dbPath := c.configManager.ResolveHistoryDBPath()
		db, err := history.NewDatabase(dbPath)
		if err != nil {
			slog.Error("failed to open history database, continuing without history",
				"path", dbPath, "error", err)
			return nil
		}
		c.historyDB = db
		slog.Debug("history database opened", "path", dbPath)
	}

	return history.NewRecorder(c.historyDB)
}

// loadAndValidateConfig loads configuration from flags and files, applies
// overrides, and validates the result.
func loadAndValidateConfig(cmd *cobra.Command, cli *CLI) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	volumeStr, _ := cmd.Flags().GetString("volume")
	backendFlag, _ := cmd.Flags().GetString("backend")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")

	if volumeStr != "" {
		vol, err := strconv.ParseFloat(volumeStr, 64)
		if err != nil {
			slog.Error("invalid volume value", "value", volumeStr, "error", err)
			return nil, fmt.Errorf("invalid volume value '%s': %w", volumeStr, err)
		}
		if vol < 0.0 || vol > 1.0 {
			slog.Error("volume out of range", "value", vol)
			return nil, fmt.Errorf("volume must be between 0.0 and 1.0, got %f", vol)
		}
	}

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = cli.configManager.LoadFromFile(configFile)
		if err != nil {
			slog.Warn("config file not loadable, using defaults", "file", configFile, "error", err)
			cfg = cli.configManager.GetDefaultConfig()
		}
	} else {
		cfg, err = cli.configManager.LoadConfig()
		if err != nil {
			slog.Error("config load failed", "error", err)
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	cfg = cli.configManager.ApplyEnvironmentOverrides(cfg)

	if volumeStr != "" {
		vol, _ := strconv.ParseFloat(volumeStr, 64)
		cfg.Volume = vol
	}
	if backendFlag != "" {
		cfg.AudioBackend = backendFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	if err := cli.configManager.ValidateConfig(cfg); err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging configures slog with optional rotated file logging
func setupLogging(cfg *config.Config, stderrWriter io.Writer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelWarn
	}

	writers := []io.Writer{stderrWriter}

	if cfg.FileLogging != nil && cfg.FileLogging.Enabled {
		configManager := config.NewConfigManager()
		logFilePath := configManager.ResolveLogFilePath(cfg.FileLogging.Filename)

		writers = append(writers, &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    cfg.FileLogging.MaxSizeMB,
			MaxBackups: cfg.FileLogging.MaxBackups,
			MaxAge:     cfg.FileLogging.MaxAgeDays,
			Compress:   cfg.FileLogging.Compress,
		})
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	slog.Debug("logging setup completed",
		"level", level.String(),
		"writers", len(writers))
}
