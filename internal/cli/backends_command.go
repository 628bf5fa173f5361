package cli

import (
	"github.com/earcon-audio/earcon/internal/audio"
	"github.com/spf13/cobra"
)

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available audio backends",
		Long:  "Lists every supported audio backend and marks the one auto-detection would pick on this system.",
		Args:  cobra.NoArgs,
		RunE:  runBackendsE,
	}
}

func runBackendsE(cmd *cobra.Command, args []string) error {
	factory := audio.NewBackendFactory()
	detected := audio.DetectOptimalBackend()

	for _, backend := range factory.GetSupportedBackends() {
		if backend == detected {
			cmd.Printf("%s (auto-detected)\n", backend)
		} else {
			cmd.Printf("%s\n", backend)
		}
	}
	return nil
}
