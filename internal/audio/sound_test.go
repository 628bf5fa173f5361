package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/gen2brain/malgo"
)

func testAudioData() *AudioData {
	// 0.1s of silent 16-bit stereo PCM at 44.1kHz
	return &AudioData{
		Samples:    make([]byte, 4410*2*2),
		Channels:   2,
		SampleRate: 44100,
		Format:     malgo.FormatS16,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngineWith(NewNullContext(), NewNullBackend())
}

func newTestSound(t *testing.T, engine *Engine) *Sound {
	t.Helper()

	buffer, err := NewBuffer(engine.Backend(), testAudioData(), "test.wav")
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}

	sound, err := engine.NewSoundFromBuffer(buffer)
	if err != nil {
		t.Fatalf("failed to create sound: %v", err)
	}
	return sound
}

func TestSoundInitialState(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	if got := sound.State(); got != StateInitial {
		t.Errorf("fresh sound state = %v, expected Initial", got)
	}
	if sound.IsPlaying() {
		t.Error("fresh sound reports IsPlaying")
	}
}

func TestSoundStateMachine(t *testing.T) {
	tests := []struct {
		name     string
		ops      []string
		expected State
	}{
		{"play", []string{"play"}, StatePlaying},
		{"play then pause", []string{"play", "pause"}, StatePaused},
		{"pause then resume", []string{"play", "pause", "play"}, StatePlaying},
		{"play then stop", []string{"play", "stop"}, StateStopped},
		{"pause then stop", []string{"play", "pause", "stop"}, StateStopped},
		{"stop without play", []string{"stop"}, StateInitial},
		{"pause without play", []string{"pause"}, StateInitial},
		{"pause while stopped", []string{"play", "stop", "pause"}, StateStopped},
		{"replay after stop", []string{"play", "stop", "play"}, StatePlaying},
		{"double play", []string{"play", "play"}, StatePlaying},
		{"double stop", []string{"play", "stop", "stop"}, StateStopped},
		{"double pause", []string{"play", "pause", "pause"}, StatePaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			sound := newTestSound(t, engine)

			for _, op := range tt.ops {
				var err error
				switch op {
				case "play":
					err = sound.Play()
				case "pause":
					err = sound.Pause()
				case "stop":
					err = sound.Stop()
				}
				if err != nil {
					t.Fatalf("%s failed: %v", op, err)
				}
			}

			if got := sound.State(); got != tt.expected {
				t.Errorf("state after %v = %v, expected %v", tt.ops, got, tt.expected)
			}
		})
	}
}

func TestSoundDefaults(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	if got := sound.Volume(); got != 1.0 {
		t.Errorf("default volume = %v, expected 1.0", got)
	}
	if got := sound.MinVolume(); got != 0.0 {
		t.Errorf("default min volume = %v, expected 0.0", got)
	}
	if got := sound.MaxVolume(); got != 1.0 {
		t.Errorf("default max volume = %v, expected 1.0", got)
	}
	if got := sound.Pitch(); got != 1.0 {
		t.Errorf("default pitch = %v, expected 1.0", got)
	}
	if got := sound.ReferenceDistance(); got != 1.0 {
		t.Errorf("default reference distance = %v, expected 1.0", got)
	}
	if got := sound.Attenuation(); got != 1.0 {
		t.Errorf("default attenuation = %v, expected 1.0", got)
	}
	if got := sound.MaxDistance(); !math.IsInf(float64(got), 1) {
		t.Errorf("default max distance = %v, expected +Inf", got)
	}
	if sound.IsLooping() {
		t.Error("fresh sound loops by default")
	}
	if sound.IsRelative() {
		t.Error("fresh sound is listener-relative by default")
	}
	if got := sound.Position(); got != (Vector{}) {
		t.Errorf("default position = %v, expected origin", got)
	}
	if got := sound.Direction(); got != (Vector{}) {
		t.Errorf("default direction = %v, expected zero vector", got)
	}
}

func TestSoundFloatParameterRoundTrips(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	tests := []struct {
		name  string
		set   func(float32) error
		get   func() float32
		value float32
	}{
		{"volume", sound.SetVolume, sound.Volume, 0.5},
		{"min volume", sound.SetMinVolume, sound.MinVolume, 0.1},
		{"max volume", sound.SetMaxVolume, sound.MaxVolume, 0.8},
		{"pitch", sound.SetPitch, sound.Pitch, 1.5},
		{"max distance", sound.SetMaxDistance, sound.MaxDistance, 100.0},
		{"reference distance", sound.SetReferenceDistance, sound.ReferenceDistance, 5.0},
		{"attenuation", sound.SetAttenuation, sound.Attenuation, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(tt.value); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			if got := tt.get(); got != tt.value {
				t.Errorf("got %v, expected %v", got, tt.value)
			}
		})
	}
}

func TestSoundVectorParameterRoundTrips(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	position := Vector{1.0, 2.0, -3.0}
	if err := sound.SetPosition(position); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	if got := sound.Position(); got != position {
		t.Errorf("position = %v, expected %v", got, position)
	}

	direction := Vector{0.0, -1.0, 0.5}
	if err := sound.SetDirection(direction); err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if got := sound.Direction(); got != direction {
		t.Errorf("direction = %v, expected %v", got, direction)
	}
}

func TestSoundBoolParameterRoundTrips(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	if err := sound.SetLooping(true); err != nil {
		t.Fatalf("SetLooping failed: %v", err)
	}
	if !sound.IsLooping() {
		t.Error("looping not set")
	}
	if err := sound.SetLooping(false); err != nil {
		t.Fatalf("SetLooping failed: %v", err)
	}
	if sound.IsLooping() {
		t.Error("looping not cleared")
	}

	if err := sound.SetRelative(true); err != nil {
		t.Fatalf("SetRelative failed: %v", err)
	}
	if !sound.IsRelative() {
		t.Error("relative not set")
	}
}

func TestSoundInvalidContextFallbacks(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	// Move the sound off its defaults so fallbacks are distinguishable
	// from stored values
	if err := sound.SetVolume(0.7); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if err := sound.SetLooping(true); err != nil {
		t.Fatalf("SetLooping failed: %v", err)
	}
	if err := sound.SetPosition(Vector{1, 2, 3}); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	if err := sound.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if err := engine.Context().Close(); err != nil {
		t.Fatalf("context close failed: %v", err)
	}

	t.Run("transport rejected", func(t *testing.T) {
		if err := sound.Play(); !errors.Is(err, ErrContextInvalid) {
			t.Errorf("Play error = %v, expected ErrContextInvalid", err)
		}
		if err := sound.Pause(); !errors.Is(err, ErrContextInvalid) {
			t.Errorf("Pause error = %v, expected ErrContextInvalid", err)
		}
		if err := sound.Stop(); !errors.Is(err, ErrContextInvalid) {
			t.Errorf("Stop error = %v, expected ErrContextInvalid", err)
		}
	})

	t.Run("setters rejected", func(t *testing.T) {
		if err := sound.SetVolume(0.2); !errors.Is(err, ErrContextInvalid) {
			t.Errorf("SetVolume error = %v, expected ErrContextInvalid", err)
		}
		if err := sound.SetLooping(false); !errors.Is(err, ErrContextInvalid) {
			t.Errorf("SetLooping error = %v, expected ErrContextInvalid", err)
		}
		if err := sound.SetPosition(Vector{}); !errors.Is(err, ErrContextInvalid) {
			t.Errorf("SetPosition error = %v, expected ErrContextInvalid", err)
		}
	})

	t.Run("getters fall back", func(t *testing.T) {
		if got := sound.Volume(); got != 0.0 {
			t.Errorf("Volume fallback = %v, expected 0", got)
		}
		if got := sound.MinVolume(); got != 0.0 {
			t.Errorf("MinVolume fallback = %v, expected 0", got)
		}
		if got := sound.Pitch(); got != 0.0 {
			t.Errorf("Pitch fallback = %v, expected 0", got)
		}
		if got := sound.MaxDistance(); got != 0.0 {
			t.Errorf("MaxDistance fallback = %v, expected 0", got)
		}
		if got := sound.ReferenceDistance(); got != 1.0 {
			t.Errorf("ReferenceDistance fallback = %v, expected 1.0", got)
		}
		if got := sound.Attenuation(); got != 1.0 {
			t.Errorf("Attenuation fallback = %v, expected 1.0", got)
		}
		if sound.IsLooping() {
			t.Error("IsLooping fallback should be false")
		}
		if sound.IsRelative() {
			t.Error("IsRelative fallback should be false")
		}
		if got := sound.Position(); got != (Vector{}) {
			t.Errorf("Position fallback = %v, expected zero vector", got)
		}
		if got := sound.State(); got != StateInitial {
			t.Errorf("State fallback = %v, expected Initial", got)
		}
		if sound.IsPlaying() {
			t.Error("IsPlaying fallback should be false")
		}
	})
}

func TestSoundSetterFailureLeavesValue(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	if err := sound.SetVolume(0.4); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}

	if err := engine.Context().Close(); err != nil {
		t.Fatalf("context close failed: %v", err)
	}
	if err := sound.SetVolume(0.9); err == nil {
		t.Fatal("expected rejected set on invalid context")
	}

	// Backend state must be untouched by the rejected set
	got, err := engine.Backend().SourceFloat(sound.source, ParamGain)
	if err != nil {
		t.Fatalf("backend read failed: %v", err)
	}
	if got != 0.4 {
		t.Errorf("backend gain = %v, expected 0.4 preserved", got)
	}
}

func TestSoundsShareBufferIndependently(t *testing.T) {
	engine := newTestEngine(t)

	buffer, err := NewBuffer(engine.Backend(), testAudioData(), "shared.wav")
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}

	first, err := engine.NewSoundFromBuffer(buffer)
	if err != nil {
		t.Fatalf("failed to create first sound: %v", err)
	}
	second, err := engine.NewSoundFromBuffer(buffer)
	if err != nil {
		t.Fatalf("failed to create second sound: %v", err)
	}

	if first.Buffer() != second.Buffer() {
		t.Error("sounds do not share the buffer")
	}

	if err := first.SetVolume(0.2); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if err := first.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if got := second.Volume(); got != 1.0 {
		t.Errorf("second sound volume = %v, expected untouched 1.0", got)
	}
	if got := second.State(); got != StateInitial {
		t.Errorf("second sound state = %v, expected Initial", got)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := second.Play(); err != nil {
		t.Errorf("second sound unusable after first released: %v", err)
	}
}

func TestSoundReleaseExactlyOnce(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	if err := sound.Release(); err != nil {
		t.Fatalf("first release failed: %v", err)
	}
	if err := sound.Release(); err != nil {
		t.Errorf("second release errored: %v", err)
	}
	if err := sound.Release(); err != nil {
		t.Errorf("third release errored: %v", err)
	}

	// The source handle is gone from the backend
	if _, err := engine.Backend().State(sound.source); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("backend state error = %v, expected ErrUnknownSource", err)
	}
}

func TestSoundReleaseIgnoresContextValidity(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	if err := engine.Context().Close(); err != nil {
		t.Fatalf("context close failed: %v", err)
	}

	// Release runs regardless of context state
	if err := sound.Release(); err != nil {
		t.Errorf("release after context close errored: %v", err)
	}
	if _, err := engine.Backend().State(sound.source); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("source survived release: %v", err)
	}
}

func TestSoundOperationsAfterRelease(t *testing.T) {
	engine := newTestEngine(t)
	sound := newTestSound(t, engine)

	if err := sound.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Operations on a released sound fall back, never panic
	if err := sound.Play(); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Play error = %v, expected ErrUnknownSource", err)
	}
	if got := sound.State(); got != StateInitial {
		t.Errorf("State = %v, expected Initial fallback", got)
	}
	if got := sound.Volume(); got != 0.0 {
		t.Errorf("Volume = %v, expected 0 fallback", got)
	}
}

func TestNewSoundFromBufferInvalidContext(t *testing.T) {
	engine := newTestEngine(t)

	buffer, err := NewBuffer(engine.Backend(), testAudioData(), "test.wav")
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}

	if err := engine.Context().Close(); err != nil {
		t.Fatalf("context close failed: %v", err)
	}

	sound, err := engine.NewSoundFromBuffer(buffer)
	if !errors.Is(err, ErrContextInvalid) {
		t.Errorf("error = %v, expected ErrContextInvalid", err)
	}
	if sound != nil {
		t.Error("expected nil sound on invalid context")
	}
}

func TestSoundBufferAccessor(t *testing.T) {
	engine := newTestEngine(t)

	buffer, err := NewBuffer(engine.Backend(), testAudioData(), "test.wav")
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	sound, err := engine.NewSoundFromBuffer(buffer)
	if err != nil {
		t.Fatalf("failed to create sound: %v", err)
	}

	if sound.Buffer() != buffer {
		t.Error("Buffer() does not return the bound buffer")
	}

	// Accessor works even with the context gone
	if err := engine.Context().Close(); err != nil {
		t.Fatalf("context close failed: %v", err)
	}
	if sound.Buffer() != buffer {
		t.Error("Buffer() changed after context close")
	}
}
