package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/earcon-audio/earcon/internal/audio"
	"github.com/earcon-audio/earcon/internal/history"
	"github.com/spf13/cobra"
)

// pollInterval is how often playback completion is checked.
const pollInterval = 25 * time.Millisecond

func newPlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play FILE...",
		Short: "Play one or more audio files",
		Long:  "Decodes each file and plays it to completion through the configured backend. Files play sequentially in the order given.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPlayE,
	}

	cmd.Flags().Float32("pitch", 1.0, "Playback rate multiplier (0.5 to 2.0)")
	cmd.Flags().Bool("loop", false, "Loop playback (requires --duration)")
	cmd.Flags().Duration("duration", 0, "Stop playback after this long")
	cmd.Flags().String("position", "", "3D position as x,y,z (e.g. 1.5,0,-2)")
	cmd.Flags().String("direction", "", "3D direction as x,y,z")
	cmd.Flags().Bool("relative", false, "Interpret position relative to the listener")
	cmd.Flags().Float32("attenuation", 1.0, "Distance attenuation rolloff factor")
	cmd.Flags().Float32("ref-distance", 1.0, "Distance at which gain is unattenuated")
	cmd.Flags().Float32("max-distance", 0, "Distance beyond which attenuation stops (0 = unlimited)")

	return cmd
}

func runPlayE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	cfg, err := loadAndValidateConfig(cmd, cli)
	if err != nil {
		return err
	}
	setupLogging(cfg, cmd.ErrOrStderr())

	pitch, _ := cmd.Flags().GetFloat32("pitch")
	loop, _ := cmd.Flags().GetBool("loop")
	maxDuration, _ := cmd.Flags().GetDuration("duration")
	positionStr, _ := cmd.Flags().GetString("position")
	directionStr, _ := cmd.Flags().GetString("direction")
	relative, _ := cmd.Flags().GetBool("relative")
	attenuation, _ := cmd.Flags().GetFloat32("attenuation")
	refDistance, _ := cmd.Flags().GetFloat32("ref-distance")
	maxDistance, _ := cmd.Flags().GetFloat32("max-distance")

	if loop && maxDuration <= 0 {
		return fmt.Errorf("--loop requires --duration to bound playback")
	}

	var position *audio.Vector
	if positionStr != "" {
		vec, err := parseVector(positionStr)
		if err != nil {
			return err
		}
		position = &vec
	}

	var direction *audio.Vector
	if directionStr != "" {
		vec, err := parseVector(directionStr)
		if err != nil {
			return err
		}
		direction = &vec
	}

	engine, err := audio.NewEngine(cfg.AudioBackend)
	if err != nil {
		return fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	defer engine.Close()

	recorder := cli.openHistoryRecorder(cfg)

	for _, path := range args {
		if err := playFile(cmd, engine, recorder, cfg.AudioBackend, path, playOptions{
			volume:      float32(cfg.Volume),
			pitch:       pitch,
			loop:        loop,
			maxDuration: maxDuration,
			position:    position,
			direction:   direction,
			relative:    relative,
			attenuation: attenuation,
			refDistance: refDistance,
			maxDistance: maxDistance,
		}); err != nil {
			return err
		}
	}
	return nil
}

type playOptions struct {
	volume      float32
	pitch       float32
	loop        bool
	maxDuration time.Duration
	position    *audio.Vector
	direction   *audio.Vector
	relative    bool
	attenuation float32
	refDistance float32
	maxDistance float32
}

func playFile(cmd *cobra.Command, engine *audio.Engine, recorder *history.Recorder, backendType, path string, opts playOptions) error {
	sound, err := engine.NewSound(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	defer func() {
		sound.Release()
		sound.Buffer().Release()
	}()

	if err := sound.SetVolume(opts.volume); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	if opts.pitch != 1.0 {
		if err := sound.SetPitch(opts.pitch); err != nil {
			return fmt.Errorf("failed to set pitch: %w", err)
		}
	}
	if opts.loop {
		if err := sound.SetLooping(true); err != nil {
			return fmt.Errorf("failed to enable looping: %w", err)
		}
	}
	if opts.position != nil {
		if err := sound.SetPosition(*opts.position); err != nil {
			return fmt.Errorf("failed to set position: %w", err)
		}
		if err := sound.SetAttenuation(opts.attenuation); err != nil {
			return fmt.Errorf("failed to set attenuation: %w", err)
		}
		if err := sound.SetReferenceDistance(opts.refDistance); err != nil {
			return fmt.Errorf("failed to set reference distance: %w", err)
		}
		if opts.maxDistance > 0 {
			if err := sound.SetMaxDistance(opts.maxDistance); err != nil {
				return fmt.Errorf("failed to set max distance: %w", err)
			}
		}
	}
	if opts.direction != nil {
		if err := sound.SetDirection(*opts.direction); err != nil {
			return fmt.Errorf("failed to set direction: %w", err)
		}
	}
	if opts.relative {
		if err := sound.SetRelative(true); err != nil {
			return fmt.Errorf("failed to set relative positioning: %w", err)
		}
	}

	data := sound.Buffer().Data()
	cmd.Printf("Playing %s (%s, %d ch, %d Hz)\n",
		path, formatDuration(data.Duration()), data.Channels, data.SampleRate)

	if err := sound.Play(); err != nil {
		return fmt.Errorf("failed to play %s: %w", path, err)
	}

	if recorder != nil {
		recordPlayEvent(recorder, backendType, path, sound)
	}

	waitForPlayback(sound, playbackBudget(data.Duration(), opts))
	if err := sound.Stop(); err != nil {
		slog.Warn("failed to stop sound", "path", path, "error", err)
	}
	return nil
}

// playbackBudget computes how long to wait before giving up on the backend
// reporting completion. Pitch scales the nominal duration; looping playback
// is bounded by the explicit duration flag.
func playbackBudget(nominal time.Duration, opts playOptions) time.Duration {
	if opts.maxDuration > 0 {
		return opts.maxDuration
	}

	budget := nominal
	if opts.pitch > 0 && opts.pitch != 1.0 {
		budget = time.Duration(float64(nominal) / float64(opts.pitch))
	}
	return budget + 250*time.Millisecond
}

// waitForPlayback polls until the sound leaves the Playing state or the
// budget elapses. Backends that render nothing never report completion, so
// the budget is the effective playback time there.
func waitForPlayback(sound *audio.Sound, budget time.Duration) {
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		if !sound.IsPlaying() {
			return
		}
		time.Sleep(pollInterval)
	}
}

func recordPlayEvent(recorder *history.Recorder, backendType, path string, sound *audio.Sound) {
	data := sound.Buffer().Data()
	event := &history.PlayEvent{
		Path:       path,
		Format:     formatName(path),
		Backend:    backendType,
		Duration:   data.Duration(),
		Channels:   int(data.Channels),
		SampleRate: int(data.SampleRate),
		Volume:     float64(sound.Volume()),
		Pitch:      float64(sound.Pitch()),
		Looping:    sound.IsLooping(),
	}
	if _, err := recorder.Record(event); err != nil {
		slog.Warn("failed to record play event", "path", path, "error", err)
	}
}

func parseVector(s string) (audio.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return audio.Vector{}, fmt.Errorf("position must be x,y,z, got %q", s)
	}

	var vec audio.Vector
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return audio.Vector{}, fmt.Errorf("invalid position component %q: %w", part, err)
		}
		vec[i] = float32(value)
	}
	return vec, nil
}

func formatName(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".wav"), strings.HasSuffix(lower, ".wave"):
		return "WAV"
	case strings.HasSuffix(lower, ".mp3"), strings.HasSuffix(lower, ".mpeg"):
		return "MP3"
	case strings.HasSuffix(lower, ".aiff"), strings.HasSuffix(lower, ".aif"):
		return "AIFF"
	default:
		return "unknown"
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}
