package audio

import (
	"log/slog"
	"math"
	"sync"
)

// sourceParams is the per-source parameter store shared by backends.
// Zero value is not useful; use defaultSourceParams.
type sourceParams struct {
	gain        float32
	minGain     float32
	maxGain     float32
	pitch       float32
	maxDistance float32
	refDistance float32
	rolloff     float32
	position    Vector
	direction   Vector
	looping     bool
	relative    bool
}

// defaultSourceParams returns the documented defaults for a fresh source.
func defaultSourceParams() sourceParams {
	return sourceParams{
		gain:        1.0,
		minGain:     0.0,
		maxGain:     1.0,
		pitch:       1.0,
		maxDistance: float32(math.Inf(1)),
		refDistance: 1.0,
		rolloff:     1.0,
	}
}

func (p *sourceParams) setFloat(param FloatParam, v float32) error {
	switch param {
	case ParamGain:
		p.gain = v
	case ParamMinGain:
		p.minGain = v
	case ParamMaxGain:
		p.maxGain = v
	case ParamPitch:
		p.pitch = v
	case ParamMaxDistance:
		p.maxDistance = v
	case ParamReferenceDistance:
		p.refDistance = v
	case ParamRolloffFactor:
		p.rolloff = v
	default:
		return ErrInvalidParam
	}
	return nil
}

func (p *sourceParams) float(param FloatParam) (float32, error) {
	switch param {
	case ParamGain:
		return p.gain, nil
	case ParamMinGain:
		return p.minGain, nil
	case ParamMaxGain:
		return p.maxGain, nil
	case ParamPitch:
		return p.pitch, nil
	case ParamMaxDistance:
		return p.maxDistance, nil
	case ParamReferenceDistance:
		return p.refDistance, nil
	case ParamRolloffFactor:
		return p.rolloff, nil
	default:
		return 0, ErrInvalidParam
	}
}

func (p *sourceParams) setVector(param VectorParam, v Vector) error {
	switch param {
	case ParamPosition:
		p.position = v
	case ParamDirection:
		p.direction = v
	default:
		return ErrInvalidParam
	}
	return nil
}

func (p *sourceParams) vector(param VectorParam) (Vector, error) {
	switch param {
	case ParamPosition:
		return p.position, nil
	case ParamDirection:
		return p.direction, nil
	default:
		return Vector{}, ErrInvalidParam
	}
}

func (p *sourceParams) setBool(param BoolParam, v bool) error {
	switch param {
	case ParamLooping:
		p.looping = v
	case ParamRelative:
		p.relative = v
	default:
		return ErrInvalidParam
	}
	return nil
}

func (p *sourceParams) boolean(param BoolParam) (bool, error) {
	switch param {
	case ParamLooping:
		return p.looping, nil
	case ParamRelative:
		return p.relative, nil
	default:
		return false, ErrInvalidParam
	}
}

type nullSource struct {
	buffer BufferID
	state  State
	params sourceParams
}

// NullBackend is a SourceBackend that tracks buffers, sources, parameters,
// and the full state machine without rendering anything. It serves headless
// environments and is the reference implementation the unit tests run
// against. Sources never exhaust on their own; only transport calls move
// the state machine.
type NullBackend struct {
	mu         sync.Mutex
	buffers    map[BufferID]*AudioData
	sources    map[SourceID]*nullSource
	nextBuffer BufferID
	nextSource SourceID
	closed     bool
}

// NewNullBackend creates an empty null backend.
func NewNullBackend() *NullBackend {
	slog.Debug("creating null audio backend")
	return &NullBackend{
		buffers: make(map[BufferID]*AudioData),
		sources: make(map[SourceID]*nullSource),
	}
}

// CreateBuffer registers immutable audio data and returns its handle.
func (b *NullBackend) CreateBuffer(data *AudioData) (BufferID, error) {
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
	return b.nextBuffer, nil
}

// DestroyBuffer removes a buffer. Sources bound to it keep their binding;
// callers are responsible for keeping buffers alive past their sources.
func (b *NullBackend) DestroyBuffer(id BufferID) error {
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

// CreateSource creates a source bound to buf with default parameters,
// in the Initial state.
func (b *NullBackend) CreateSource(buf BufferID) (SourceID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrBackendClosed
	}
	if _, ok := b.buffers[buf]; !ok {
		return 0, ErrUnknownBuffer
	}

	b.nextSource++
	b.sources[b.nextSource] = &nullSource{
		buffer: buf,
		state:  StateInitial,
		params: defaultSourceParams(),
	}
	return b.nextSource, nil
}

// DestroySource removes a source.
func (b *NullBackend) DestroySource(id SourceID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBackendClosed
	}
	if _, ok := b.sources[id]; !ok {
		return ErrUnknownSource
	}
	delete(b.sources, id)
	return nil
}

// Play moves the source to Playing from any state. Idempotent.
func (b *NullBackend) Play(id SourceID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return err
	}
	src.state = StatePlaying
	return nil
}

// Pause moves a Playing source to Paused; anything else is a no-op.
func (b *NullBackend) Pause(id SourceID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return err
	}
	if src.state == StatePlaying {
		src.state = StatePaused
	}
	return nil
}

// Stop moves a Playing or Paused source to Stopped. A source that was
// never played stays Initial. Idempotent.
func (b *NullBackend) Stop(id SourceID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return err
	}
	if src.state == StatePlaying || src.state == StatePaused {
		src.state = StateStopped
	}
	return nil
}

// State returns the source's current state.
func (b *NullBackend) State(id SourceID) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return StateInitial, err
	}
	return src.state, nil
}

// SetSourceFloat stores a scalar parameter.
func (b *NullBackend) SetSourceFloat(id SourceID, param FloatParam, value float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return err
	}
	return src.params.setFloat(param, value)
}

// SourceFloat reads a scalar parameter.
func (b *NullBackend) SourceFloat(id SourceID, param FloatParam) (float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return 0, err
	}
	return src.params.float(param)
}

// SetSourceVector stores a vector parameter.
func (b *NullBackend) SetSourceVector(id SourceID, param VectorParam, value Vector) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return err
	}
	return src.params.setVector(param, value)
}

// SourceVector reads a vector parameter.
func (b *NullBackend) SourceVector(id SourceID, param VectorParam) (Vector, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return Vector{}, err
	}
	return src.params.vector(param)
}

// SetSourceBool stores a boolean parameter.
func (b *NullBackend) SetSourceBool(id SourceID, param BoolParam, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return err
	}
	return src.params.setBool(param, value)
}

// SourceBool reads a boolean parameter.
func (b *NullBackend) SourceBool(id SourceID, param BoolParam) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.source(id)
	if err != nil {
		return false, err
	}
	return src.params.boolean(param)
}

// Close drops every source and buffer.
func (b *NullBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.sources = make(map[SourceID]*nullSource)
	b.buffers = make(map[BufferID]*AudioData)
	slog.Debug("null audio backend closed")
	return nil
}

// source looks up a live source; caller holds b.mu.
func (b *NullBackend) source(id SourceID) (*nullSource, error) {
	if b.closed {
		return nil, ErrBackendClosed
	}
	src, ok := b.sources[id]
	if !ok {
		return nil, ErrUnknownSource
	}
	return src, nil
}
