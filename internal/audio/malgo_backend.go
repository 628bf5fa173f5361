package audio

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// ErrNoDeviceContext is reported when the malgo backend is created with a
// context that has no device stack behind it.
var ErrNoDeviceContext = errors.New("malgo backend requires a device-capable context")

// malgoSource is one playback source rendered through its own malgo device,
// created lazily at Play and torn down when the source stops.
type malgoSource struct {
	mu     sync.Mutex
	buffer BufferID
	data   *AudioData
	params sourceParams
	state  State
	device *malgo.Device
	offset uint32 // frame offset into data
	done   chan struct{}
	once   *sync.Once
}

// MalgoBackend renders sources through malgo, one playback device per
// playing source. Distance attenuation uses the inverse clamped model with
// the listener fixed at the origin; gain changes apply live, pitch applies
// at the next Play because it scales the device sample rate.
type MalgoBackend struct {
	ctx        *Context
	mu         sync.Mutex
	buffers    map[BufferID]*AudioData
	sources    map[SourceID]*malgoSource
	nextBuffer BufferID
	nextSource SourceID
	closed     bool
}

// NewMalgoBackend creates a rendering backend over the given context.
func NewMalgoBackend(ctx *Context) (*MalgoBackend, error) {
	if ctx == nil || ctx.Malgo() == nil {
		return nil, ErrNoDeviceContext
	}

	slog.Debug("creating malgo audio backend")
	return &MalgoBackend{
		ctx:     ctx,
		buffers: make(map[BufferID]*AudioData),
		sources: make(map[SourceID]*malgoSource),
	}, nil
}

// CreateBuffer registers immutable audio data and returns its handle.
func (b *MalgoBackend) CreateBuffer(data *AudioData) (BufferID, error) {
	if data == nil || len(data.Samples) == 0 {
		return 0, ErrNilAudioData
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrBackendClosed
	}

	b.nextBuffer++
	b.buffers[b.nextBuffer] = data
	slog.Debug("buffer created",
		"buffer", b.nextBuffer,
		"channels", data.Channels,
		"sample_rate", data.SampleRate,
		"bytes", len(data.Samples))
	return b.nextBuffer, nil
}

// DestroyBuffer removes a buffer from the table. The immutable data stays
// alive for any source still bound to it.
func (b *MalgoBackend) DestroyBuffer(id BufferID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBackendClosed
	}
	if _, ok := b.buffers[id]; !ok {
		return ErrUnknownBuffer
	}
	delete(b.buffers, id)
	return nil
}

// CreateSource creates a source bound to buf, in the Initial state.
func (b *MalgoBackend) CreateSource(buf BufferID) (SourceID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrBackendClosed
	}
	data, ok := b.buffers[buf]
	if !ok {
		return 0, ErrUnknownBuffer
	}

	b.nextSource++
	b.sources[b.nextSource] = &malgoSource{
		buffer: buf,
		data:   data,
		state:  StateInitial,
		params: defaultSourceParams(),
	}
	slog.Debug("source created", "source", b.nextSource, "buffer", buf)
	return b.nextSource, nil
}

// DestroySource tears down the source's device, if any, and removes it.
func (b *MalgoBackend) DestroySource(id SourceID) error {
	b.mu.Lock()
	src, ok := b.sources[id]
	if b.closed {
		b.mu.Unlock()
		return ErrBackendClosed
	}
	if !ok {
		b.mu.Unlock()
		return ErrUnknownSource
	}
	delete(b.sources, id)
	b.mu.Unlock()

	src.mu.Lock()
	src.signalDoneLocked()
	src.state = StateStopped
	src.mu.Unlock()
	slog.Debug("source destroyed", "source", id)
	return nil
}

// Play starts or resumes playback. Playing sources restart from the
// beginning; paused sources resume where they left off.
func (b *MalgoBackend) Play(id SourceID) error {
	src, err := b.lookup(id)
	if err != nil {
		return err
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	if src.state == StatePaused && src.device != nil {
		if err := src.device.Start(); err != nil {
			slog.Error("failed to resume playback device", "source", id, "error", err)
			return err
		}
		src.state = StatePlaying
		slog.Debug("source resumed", "source", id, "frame_offset", src.offset)
		return nil
	}

	// Restart from the top: retire any previous device first.
	src.signalDoneLocked()
	src.offset = 0

	if err := b.startDeviceLocked(id, src); err != nil {
		return err
	}
	src.state = StatePlaying
	slog.Debug("source playing", "source", id)
	return nil
}

// Pause halts a Playing source's device, keeping the frame offset.
func (b *MalgoBackend) Pause(id SourceID) error {
	src, err := b.lookup(id)
	if err != nil {
		return err
	}

	src.mu.Lock()
	device := src.device
	playing := src.state == StatePlaying
	if playing {
		src.state = StatePaused
	}
	src.mu.Unlock()

	if playing && device != nil {
		if err := device.Stop(); err != nil {
			slog.Error("failed to halt playback device", "source", id, "error", err)
			return err
		}
		slog.Debug("source paused", "source", id)
	}
	return nil
}

// Stop tears down the source's device and rewinds it. A source that was
// never played stays Initial.
func (b *MalgoBackend) Stop(id SourceID) error {
	src, err := b.lookup(id)
	if err != nil {
		return err
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	src.signalDoneLocked()
	src.offset = 0
	if src.state != StateInitial {
		src.state = StateStopped
	}
	slog.Debug("source stopped", "source", id)
	return nil
}

// State returns the source's current state.
func (b *MalgoBackend) State(id SourceID) (State, error) {
	src, err := b.lookup(id)
	if err != nil {
		return StateInitial, err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.state, nil
}

// SetSourceFloat stores a scalar parameter.
func (b *MalgoBackend) SetSourceFloat(id SourceID, param FloatParam, value float32) error {
	src, err := b.lookup(id)
	if err != nil {
		return err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.params.setFloat(param, value)
}

// SourceFloat reads a scalar parameter.
func (b *MalgoBackend) SourceFloat(id SourceID, param FloatParam) (float32, error) {
	src, err := b.lookup(id)
	if err != nil {
		return 0, err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.params.float(param)
}

// SetSourceVector stores a vector parameter.
func (b *MalgoBackend) SetSourceVector(id SourceID, param VectorParam, value Vector) error {
	src, err := b.lookup(id)
	if err != nil {
		return err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.params.setVector(param, value)
}

// SourceVector reads a vector parameter.
func (b *MalgoBackend) SourceVector(id SourceID, param VectorParam) (Vector, error) {
	src, err := b.lookup(id)
	if err != nil {
		return Vector{}, err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.params.vector(param)
}

// SetSourceBool stores a boolean parameter.
func (b *MalgoBackend) SetSourceBool(id SourceID, param BoolParam, value bool) error {
	src, err := b.lookup(id)
	if err != nil {
		return err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.params.setBool(param, value)
}

// SourceBool reads a boolean parameter.
func (b *MalgoBackend) SourceBool(id SourceID, param BoolParam) (bool, error) {
	src, err := b.lookup(id)
	if err != nil {
		return false, err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.params.boolean(param)
}

// Close tears down every source device and drops all tables.
func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sources := b.sources
	b.sources = make(map[SourceID]*malgoSource)
	b.buffers = make(map[BufferID]*AudioData)
	b.mu.Unlock()

	for id, src := range sources {
		src.mu.Lock()
		src.signalDoneLocked()
		src.mu.Unlock()
		slog.Debug("source torn down on close", "source", id)
	}
	slog.Debug("malgo audio backend closed", "sources_stopped", len(sources))
	return nil
}

// lookup resolves a live source handle.
func (b *MalgoBackend) lookup(id SourceID) (*malgoSource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBackendClosed
	}
	src, ok := b.sources[id]
	if !ok {
		return nil, ErrUnknownSource
	}
	return src, nil
}

// startDeviceLocked initializes and starts a playback device for src.
// Caller holds src.mu.
func (b *MalgoBackend) startDeviceLocked(id SourceID, src *malgoSource) error {
	data := src.data

	pitch := src.params.pitch
	if pitch <= 0 || math.IsNaN(float64(pitch)) {
		pitch = 1.0
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = data.Format
	config.Playback.Channels = data.Channels
	config.SampleRate = uint32(float64(data.SampleRate) * float64(pitch))
	config.Alsa.NoMMap = 1

	bytesPerFrame := int(data.Channels) * data.BytesPerSample()
	totalFrames := uint32(data.Frames())
	done := make(chan struct{})
	once := &sync.Once{}
	signal := func() { once.Do(func() { close(done) }) }

	onSamples := func(pOutput, _ []byte, framecount uint32) {
		src.mu.Lock()
		offset := src.offset
		params := src.params
		src.mu.Unlock()

		start := int(offset) * bytesPerFrame
		if start >= len(data.Samples) {
			if params.looping {
				src.mu.Lock()
				src.offset = 0
				src.mu.Unlock()
				start = 0
			} else {
				fillSilence(pOutput)
				signal()
				return
			}
		}

		want := int(framecount) * bytesPerFrame
		avail := len(data.Samples) - start
		n := want
		if n > avail {
			n = avail
		}

		copy(pOutput[:n], data.Samples[start:start+n])
		// The tail must be silence or the device plays garbage
		fillSilence(pOutput[n:])

		if gain := effectiveGain(params); gain != 1.0 {
			scaleSamples(pOutput[:n], data.Format, gain)
		}

		src.mu.Lock()
		src.offset += framecount
		finished := !params.looping && src.offset >= totalFrames
		src.mu.Unlock()

		if finished {
			signal()
		}
	}

	device, err := malgo.InitDevice(b.ctx.Malgo().Context, config, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		slog.Error("failed to initialize playback device", "source", id, "error", err)
		return err
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		slog.Error("failed to start playback device", "source", id, "error", err)
		return err
	}

	src.device = device
	src.done = done
	src.once = once

	// Retire the device once the buffer runs out or the source is
	// stopped/destroyed. Runs outside src.mu so the data callback can
	// drain while the device shuts down.
	go func() {
		<-done
		device.Stop()
		device.Uninit()

		src.mu.Lock()
		if src.device == device {
			src.device = nil
			src.offset = 0
			if src.state == StatePlaying {
				src.state = StateStopped
			}
		}
		src.mu.Unlock()
		slog.Debug("playback device retired", "source", id)
	}()

	return nil
}

// signalDoneLocked hands the current device, if any, to its monitor
// goroutine for teardown. Caller holds src.mu.
func (s *malgoSource) signalDoneLocked() {
	if s.once != nil {
		once := s.once
		done := s.done
		once.Do(func() { close(done) })
		s.once = nil
		s.done = nil
		s.device = nil
	}
}

// effectiveGain computes the rendered gain for a source: the gain slot
// scaled by inverse clamped distance attenuation, then clamped to the
// min/max gain bounds. The listener sits at the origin.
func effectiveGain(p sourceParams) float32 {
	gain := p.gain

	if p.refDistance > 0 && p.rolloff > 0 {
		dx := float64(p.position[0])
		dy := float64(p.position[1])
		dz := float64(p.position[2])
		dist := float32(math.Sqrt(dx*dx + dy*dy + dz*dz))

		if dist < p.refDistance {
			dist = p.refDistance
		}
		if dist > p.maxDistance {
			dist = p.maxDistance
		}
		denom := p.refDistance + p.rolloff*(dist-p.refDistance)
		if denom > 0 {
			gain *= p.refDistance / denom
		}
	}

	if gain < p.minGain {
		gain = p.minGain
	}
	if gain > p.maxGain {
		gain = p.maxGain
	}
	return gain
}

func fillSilence(out []byte) {
	for i := range out {
		out[i] = 0
	}
}

// scaleSamples applies a gain factor to interleaved PCM in place.
func scaleSamples(samples []byte, format malgo.FormatType, gain float32) {
	switch format {
	case malgo.FormatS16:
		for i := 0; i+1 < len(samples); i += 2 {
			v := int16(samples[i]) | int16(samples[i+1])<<8
			v = int16(float32(v) * gain)
			samples[i] = byte(v)
			samples[i+1] = byte(v >> 8)
		}
	case malgo.FormatS24:
		for i := 0; i+2 < len(samples); i += 3 {
			v := int32(samples[i]) | int32(samples[i+1])<<8 | int32(samples[i+2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF) // sign extend
			}
			v = int32(float32(v) * gain)
			samples[i] = byte(v)
			samples[i+1] = byte(v >> 8)
			samples[i+2] = byte(v >> 16)
		}
	case malgo.FormatS32:
		for i := 0; i+3 < len(samples); i += 4 {
			v := int32(samples[i]) | int32(samples[i+1])<<8 | int32(samples[i+2])<<16 | int32(samples[i+3])<<24
			v = int32(float32(v) * gain)
			samples[i] = byte(v)
			samples[i+1] = byte(v >> 8)
			samples[i+2] = byte(v >> 16)
			samples[i+3] = byte(v >> 24)
		}
	default:
		slog.Warn("gain scaling not implemented for format", "format", format)
	}
}
