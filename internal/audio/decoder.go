package audio

import (
	"errors"
	"io"
	"time"

	"github.com/gen2brain/malgo"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// AudioData is fully decoded, immutable PCM audio ready for upload to a
// backend buffer. Once created it is never mutated, so it can be shared
// between any number of sources without synchronization.
type AudioData struct {
	Samples    []byte           // Interleaved raw PCM
	Channels   uint32           // Number of audio channels
	SampleRate uint32           // Sample rate in Hz
	Format     malgo.FormatType // Sample format (e.g. malgo.FormatS16)
}

// BytesPerSample returns the size of one sample for the data's format.
func (d *AudioData) BytesPerSample() int {
	return bytesPerSample(d.Format)
}

// Frames returns the number of sample frames in the data.
func (d *AudioData) Frames() int {
	stride := int(d.Channels) * d.BytesPerSample()
	if stride == 0 {
		return 0
	}
	return len(d.Samples) / stride
}

// Duration returns the playback duration at the nominal sample rate.
func (d *AudioData) Duration() time.Duration {
	if d.SampleRate == 0 {
		return 0
	}
	return time.Duration(d.Frames()) * time.Second / time.Duration(d.SampleRate)
}

// Decoder turns one encoded audio format into AudioData.
type Decoder interface {
	// Decode reads encoded audio from reader and returns decoded PCM.
	Decode(reader io.Reader) (*AudioData, error)

	// CanDecode checks if this decoder handles the given filename.
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles.
	FormatName() string
}

func bytesPerSample(format malgo.FormatType) int {
	switch format {
	case malgo.FormatU8:
		return 1
	case malgo.FormatS16:
		return 2
	case malgo.FormatS24:
		return 3
	case malgo.FormatS32, malgo.FormatF32:
		return 4
	default:
		return 2
	}
}
