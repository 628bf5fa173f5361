package audio

import (
	"log/slog"
)

// Sound is a handle to one playback channel bound to one audio Buffer.
//
// A Sound exclusively owns its backend source handle, created at
// construction and destroyed exactly once by Release. The Buffer is a
// shared reference set at construction and never reassigned; it must
// outlive the Sound. Every operation first asks the context oracle
// whether the audio stack is ready: when it is not, the operation is
// skipped, a diagnostic is logged, and the documented fallback value is
// returned. Backend errors are handled the same way. No operation
// panics, and none retries.
//
// A Sound is single-owner: mutating the same Sound from multiple
// goroutines is not supported.
type Sound struct {
	ctx      *Context
	backend  SourceBackend
	source   SourceID
	buffer   *Buffer
	released bool
}

// NewSound loads the file at path into a new Buffer, creates a source
// bound to it, and returns the Sound. The Sound owns the Buffer in the
// sense that no one else holds it, but Release still only frees the
// source; call Buffer().Release() to free the data when done.
func (e *Engine) NewSound(path string) (*Sound, error) {
	if err := e.ctx.Check(); err != nil {
		slog.Error("sound creation refused", "path", path, "error", err)
		return nil, err
	}

	buffer, err := e.LoadBuffer(path)
	if err != nil {
		return nil, err
	}

	sound, err := e.NewSoundFromBuffer(buffer)
	if err != nil {
		if rerr := buffer.Release(); rerr != nil {
			slog.Warn("failed to release buffer after source creation failure",
				"path", path, "error", rerr)
		}
		return nil, err
	}
	return sound, nil
}

// NewSoundFromBuffer creates a source bound to an existing shared Buffer.
func (e *Engine) NewSoundFromBuffer(buffer *Buffer) (*Sound, error) {
	if err := e.ctx.Check(); err != nil {
		slog.Error("sound creation refused", "error", err)
		return nil, err
	}

	source, err := e.backend.CreateSource(buffer.ID())
	if err != nil {
		slog.Error("failed to create backend source", "buffer", buffer.ID(), "error", err)
		return nil, err
	}

	slog.Debug("sound created", "source", source, "buffer", buffer.ID(), "path", buffer.Path())
	return &Sound{
		ctx:     e.ctx,
		backend: e.backend,
		source:  source,
		buffer:  buffer,
	}, nil
}

// Buffer returns the shared Buffer this Sound is bound to.
func (s *Sound) Buffer() *Buffer {
	return s.buffer
}

// Play starts playback, or resumes it if the Sound is paused. Playing an
// already playing Sound restarts it. Idempotent with respect to the
// resulting state.
func (s *Sound) Play() error {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("play skipped", "source", s.source, "error", err)
		return err
	}
	if err := s.backend.Play(s.source); err != nil {
		slog.Error("play failed", "source", s.source, "error", err)
		return err
	}
	return nil
}

// Pause pauses playback. No-op unless the Sound is playing.
func (s *Sound) Pause() error {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("pause skipped", "source", s.source, "error", err)
		return err
	}
	if err := s.backend.Pause(s.source); err != nil {
		slog.Error("pause failed", "source", s.source, "error", err)
		return err
	}
	return nil
}

// Stop stops playback and rewinds. Idempotent.
func (s *Sound) Stop() error {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("stop skipped", "source", s.source, "error", err)
		return err
	}
	if err := s.backend.Stop(s.source); err != nil {
		slog.Error("stop failed", "source", s.source, "error", err)
		return err
	}
	return nil
}

// IsPlaying reports whether the Sound is currently in the Playing state.
func (s *Sound) IsPlaying() bool {
	return s.State() == StatePlaying
}

// State returns the Sound's playback state. StateInitial is the fallback
// when the context is invalid or the backend reports an error.
func (s *Sound) State() State {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("state query skipped", "source", s.source, "error", err)
		return StateInitial
	}
	state, err := s.backend.State(s.source)
	if err != nil {
		slog.Error("state query failed", "source", s.source, "error", err)
		return StateInitial
	}
	return state
}

// SetVolume sets the gain multiplier. 1.0 is unattenuated; each halving
// is roughly -6dB. The value is not range-checked at this layer, the
// backend may clamp it.
func (s *Sound) SetVolume(volume float32) error {
	return s.setFloat(ParamGain, volume, "volume")
}

// Volume returns the gain multiplier, or 0 on context or backend error.
func (s *Sound) Volume() float32 {
	return s.getFloat(ParamGain, 0, "volume")
}

// SetMinVolume sets the lower gain bound applied after distance
// attenuation.
func (s *Sound) SetMinVolume(volume float32) error {
	return s.setFloat(ParamMinGain, volume, "min volume")
}

// MinVolume returns the lower gain bound, or 0 on error.
func (s *Sound) MinVolume() float32 {
	return s.getFloat(ParamMinGain, 0, "min volume")
}

// SetMaxVolume sets the upper gain bound applied after distance
// attenuation.
func (s *Sound) SetMaxVolume(volume float32) error {
	return s.setFloat(ParamMaxGain, volume, "max volume")
}

// MaxVolume returns the upper gain bound, or 0 on error.
func (s *Sound) MaxVolume() float32 {
	return s.getFloat(ParamMaxGain, 0, "max volume")
}

// SetLooping controls whether the Sound rewinds and keeps playing when
// the buffer is exhausted. Default false.
func (s *Sound) SetLooping(looping bool) error {
	return s.setBool(ParamLooping, looping, "looping")
}

// IsLooping reports whether the Sound loops, false on error.
func (s *Sound) IsLooping() bool {
	return s.getBool(ParamLooping, "looping")
}

// SetPitch sets the playback-rate multiplier, nominal range [0.5, 2.0].
// Default 1.0.
func (s *Sound) SetPitch(pitch float32) error {
	return s.setFloat(ParamPitch, pitch, "pitch")
}

// Pitch returns the playback-rate multiplier, or 0 on error.
func (s *Sound) Pitch() float32 {
	return s.getFloat(ParamPitch, 0, "pitch")
}

// SetRelative controls whether the position is interpreted relative to
// the listener instead of world-absolute. Default false (absolute).
func (s *Sound) SetRelative(relative bool) error {
	return s.setBool(ParamRelative, relative, "relative")
}

// IsRelative reports whether the position is listener-relative, false on
// error.
func (s *Sound) IsRelative() bool {
	return s.getBool(ParamRelative, "relative")
}

// SetPosition places the Sound in three dimensional space. Coordinates
// are right-handed: X right, Y up, Z toward the viewer. Default (0,0,0).
func (s *Sound) SetPosition(position Vector) error {
	return s.setVector(ParamPosition, position, "position")
}

// Position returns the Sound's position, or the zero vector on error.
func (s *Sound) Position() Vector {
	return s.getVector(ParamPosition, "position")
}

// SetDirection sets the source-local facing vector. Default (0,0,0),
// meaning omnidirectional.
func (s *Sound) SetDirection(direction Vector) error {
	return s.setVector(ParamDirection, direction, "direction")
}

// Direction returns the facing vector, or the zero vector on error.
func (s *Sound) Direction() Vector {
	return s.getVector(ParamDirection, "direction")
}

// SetMaxDistance sets the distance beyond which attenuation stops
// increasing. Default +Inf.
func (s *Sound) SetMaxDistance(distance float32) error {
	return s.setFloat(ParamMaxDistance, distance, "max distance")
}

// MaxDistance returns the maximum distance, or 0 on error.
func (s *Sound) MaxDistance() float32 {
	return s.getFloat(ParamMaxDistance, 0, "max distance")
}

// SetReferenceDistance sets the distance at which no extra attenuation
// applies. Default 1.0.
func (s *Sound) SetReferenceDistance(distance float32) error {
	return s.setFloat(ParamReferenceDistance, distance, "reference distance")
}

// ReferenceDistance returns the reference distance. The fallback on
// context or backend error is 1.0, matching the fresh-source default.
func (s *Sound) ReferenceDistance() float32 {
	return s.getFloat(ParamReferenceDistance, 1.0, "reference distance")
}

// SetAttenuation sets the rolloff factor multiplying distance-based
// attenuation. At 0 no distance attenuation occurs. Default 1.0.
func (s *Sound) SetAttenuation(attenuation float32) error {
	return s.setFloat(ParamRolloffFactor, attenuation, "attenuation")
}

// Attenuation returns the rolloff factor. The fallback on context or
// backend error is 1.0, matching the fresh-source default.
func (s *Sound) Attenuation() float32 {
	return s.getFloat(ParamRolloffFactor, 1.0, "attenuation")
}

// Release destroys the backend source handle. It runs synchronously and
// unconditionally, with no context check, and at most once; further
// calls are no-ops. The bound Buffer is not touched.
func (s *Sound) Release() error {
	if s.released {
		return nil
	}
	s.released = true

	if err := s.backend.DestroySource(s.source); err != nil {
		slog.Error("failed to destroy backend source", "source", s.source, "error", err)
		return err
	}
	slog.Debug("sound released", "source", s.source)
	return nil
}

func (s *Sound) setFloat(param FloatParam, value float32, name string) error {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("set "+name+" skipped", "source", s.source, "error", err)
		return err
	}
	if err := s.backend.SetSourceFloat(s.source, param, value); err != nil {
		slog.Error("set "+name+" failed", "source", s.source, "value", value, "error", err)
		return err
	}
	return nil
}

func (s *Sound) getFloat(param FloatParam, fallback float32, name string) float32 {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("get "+name+" skipped", "source", s.source, "error", err)
		return fallback
	}
	value, err := s.backend.SourceFloat(s.source, param)
	if err != nil {
		slog.Error("get "+name+" failed", "source", s.source, "error", err)
		return fallback
	}
	return value
}

func (s *Sound) setVector(param VectorParam, value Vector, name string) error {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("set "+name+" skipped", "source", s.source, "error", err)
		return err
	}
	if err := s.backend.SetSourceVector(s.source, param, value); err != nil {
		slog.Error("set "+name+" failed", "source", s.source, "value", value, "error", err)
		return err
	}
	return nil
}

func (s *Sound) getVector(param VectorParam, name string) Vector {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("get "+name+" skipped", "source", s.source, "error", err)
		return Vector{}
	}
	value, err := s.backend.SourceVector(s.source, param)
	if err != nil {
		slog.Error("get "+name+" failed", "source", s.source, "error", err)
		return Vector{}
	}
	return value
}

func (s *Sound) setBool(param BoolParam, value bool, name string) error {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("set "+name+" skipped", "source", s.source, "error", err)
		return err
	}
	if err := s.backend.SetSourceBool(s.source, param, value); err != nil {
		slog.Error("set "+name+" failed", "source", s.source, "value", value, "error", err)
		return err
	}
	return nil
}

func (s *Sound) getBool(param BoolParam, name string) bool {
	if err := s.ctx.Check(); err != nil {
		slog.Warn("get "+name+" skipped", "source", s.source, "error", err)
		return false
	}
	value, err := s.backend.SourceBool(s.source, param)
	if err != nil {
		slog.Error("get "+name+" failed", "source", s.source, "error", err)
		return false
	}
	return value
}
