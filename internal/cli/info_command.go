package cli

import (
	"fmt"

	"github.com/earcon-audio/earcon/internal/audio"
	"github.com/spf13/cobra"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Show decoded audio properties of files",
		Long:  "Decodes each file without playing it and prints its format, channel count, sample rate, and duration.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInfoE,
	}
}

func runInfoE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	cfg, err := loadAndValidateConfig(cmd, cli)
	if err != nil {
		return err
	}
	setupLogging(cfg, cmd.ErrOrStderr())

	// Decoding needs no device stack
	engine := audio.NewEngineWith(audio.NewNullContext(), audio.NewNullBackend())
	defer engine.Close()

	var firstErr error
	for _, path := range args {
		buffer, err := engine.LoadBuffer(path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		data := buffer.Data()
		cmd.Printf("%s\n", path)
		cmd.Printf("  format:      %s\n", formatName(path))
		cmd.Printf("  channels:    %d\n", data.Channels)
		cmd.Printf("  sample rate: %d Hz\n", data.SampleRate)
		cmd.Printf("  frames:      %d\n", data.Frames())
		cmd.Printf("  duration:    %s\n", formatDuration(data.Duration()))

		buffer.Release()
	}
	return firstErr
}
