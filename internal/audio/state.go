package audio

// State describes the playback state of a source, mirroring the backend's
// own source states.
type State int

const (
	// StateInitial is the state of a source that has never been played.
	// It is also the fallback State reported when the audio context is
	// not valid.
	StateInitial State = iota
	StatePlaying
	StatePaused
	StateStopped
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
