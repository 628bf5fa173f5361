package audio

import "errors"

// Common errors for SourceBackend implementations
var (
	ErrBackendClosed = errors.New("audio backend is closed")
	ErrUnknownSource = errors.New("unknown source handle")
	ErrUnknownBuffer = errors.New("unknown buffer handle")
	ErrInvalidParam  = errors.New("invalid parameter slot")
	ErrNilAudioData  = errors.New("audio data is nil or empty")
)

// SourceID is an opaque backend identifier for one playback source.
// A source is exclusively owned by the Sound that created it.
type SourceID uint32

// BufferID is an opaque backend identifier for one uploaded audio buffer.
// A buffer may be bound to any number of sources.
type BufferID uint32

// Vector is a three dimensional float vector in right-handed coordinates
// (X right, Y up, Z toward the viewer).
type Vector [3]float32

// FloatParam names a scalar parameter slot on a source.
type FloatParam int

const (
	ParamGain FloatParam = iota
	ParamMinGain
	ParamMaxGain
	ParamPitch
	ParamMaxDistance
	ParamReferenceDistance
	ParamRolloffFactor
)

// VectorParam names a vector parameter slot on a source.
type VectorParam int

const (
	ParamPosition VectorParam = iota
	ParamDirection
)

// BoolParam names a boolean parameter slot on a source.
type BoolParam int

const (
	ParamLooping BoolParam = iota
	ParamRelative
)

// SourceBackend is the rendering API the Sound forwards to: buffer upload,
// source lifecycle, transport control, and named parameter slots.
// Implementations must keep the source state machine consistent:
// Initial -> Playing -> {Paused <-> Playing, Stopped}, Stop on an
// Initial source leaves it Initial, and destroying a source is final.
type SourceBackend interface {
	// Buffer management
	CreateBuffer(data *AudioData) (BufferID, error)
	DestroyBuffer(id BufferID) error

	// Source lifecycle. CreateSource binds the source to the given
	// buffer for the source's entire lifetime.
	CreateSource(buf BufferID) (SourceID, error)
	DestroySource(id SourceID) error

	// Transport
	Play(id SourceID) error
	Pause(id SourceID) error
	Stop(id SourceID) error
	State(id SourceID) (State, error)

	// Parameter slots
	SetSourceFloat(id SourceID, param FloatParam, value float32) error
	SourceFloat(id SourceID, param FloatParam) (float32, error)
	SetSourceVector(id SourceID, param VectorParam, value Vector) error
	SourceVector(id SourceID, param VectorParam) (Vector, error)
	SetSourceBool(id SourceID, param BoolParam, value bool) error
	SourceBool(id SourceID, param BoolParam) (bool, error)

	// Close releases every remaining source and buffer.
	Close() error
}
