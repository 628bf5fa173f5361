package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/earcon-audio/earcon/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent play history",
		Long:  "Lists recorded play events, newest first. Time filters accept natural language like \"2 days ago\" or \"last monday\".",
		Args:  cobra.NoArgs,
		RunE:  runHistoryE,
	}

	cmd.Flags().Int("limit", history.DefaultQueryLimit, "Maximum events to show")
	cmd.Flags().Int("offset", 0, "Skip this many events")
	cmd.Flags().String("since", "", "Only events after this time (natural language)")
	cmd.Flags().String("until", "", "Only events before this time (natural language)")
	cmd.Flags().String("path", "", "Only events whose file path contains this")
	cmd.Flags().String("played-backend", "", "Only events played on this backend")

	return cmd
}

func runHistoryE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	cfg, err := loadAndValidateConfig(cmd, cli)
	if err != nil {
		return err
	}
	setupLogging(cfg, cmd.ErrOrStderr())

	filter, err := buildHistoryFilter(cmd)
	if err != nil {
		return err
	}

	recorder := cli.openHistoryRecorder(cfg)
	if recorder == nil {
		return fmt.Errorf("play history is not available")
	}

	events, err := recorder.Query(filter)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		cmd.Println("No play events recorded.")
		return nil
	}

	interactive := cli.isInteractiveTerminal(int(os.Stdout.Fd()))
	for _, event := range events {
		printPlayEvent(cmd, &event, interactive)
	}
	return nil
}

func buildHistoryFilter(cmd *cobra.Command) (*history.QueryFilter, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	pathFilter, _ := cmd.Flags().GetString("path")
	backendFilter, _ := cmd.Flags().GetString("played-backend")

	filter := &history.QueryFilter{
		Path:    pathFilter,
		Backend: backendFilter,
		Limit:   limit,
		Offset:  offset,
	}

	now := time.Now()
	if sinceStr != "" {
		since, err := history.ParseNaturalDate(sinceStr, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &since
	}
	if untilStr != "" {
		until, err := history.ParseNaturalDate(untilStr, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --until value: %w", err)
		}
		filter.Until = &until
	}
	return filter, nil
}

// printPlayEvent prints one event, with friendlier timestamps when stdout
// is an interactive terminal and tab-separated fields when it is a pipe.
func printPlayEvent(cmd *cobra.Command, event *history.PlayEvent, interactive bool) {
	if interactive {
		cmd.Printf("%s  %-8s %-6s %s (%s)\n",
			event.Timestamp.Format("2006-01-02 15:04:05"),
			event.Format,
			event.Backend,
			event.Path,
			formatDuration(event.Duration))
		return
	}
	cmd.Printf("%d\t%s\t%s\t%s\t%d\n",
		event.Timestamp.Unix(),
		event.Format,
		event.Backend,
		event.Path,
		event.Duration.Milliseconds())
}
