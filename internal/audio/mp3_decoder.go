package audio

import (
	"io"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder decodes MPEG-1 layer 3 files.
type Mp3Decoder struct{}

// NewMp3Decoder creates a new MP3 decoder instance.
func NewMp3Decoder() *Mp3Decoder {
	return &Mp3Decoder{}
}

// Decode reads MP3 audio from reader and returns decoded PCM.
// go-mp3 always emits 16-bit signed stereo.
func (d *Mp3Decoder) Decode(reader io.Reader) (*AudioData, error) {
	decoder, err := mp3.NewDecoder(reader)
	if err != nil {
		slog.Error("failed to open MP3 stream", "error", err)
		return nil, ErrInvalidData
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		slog.Error("invalid MP3 sample rate", "sample_rate", sampleRate)
		return nil, ErrInvalidData
	}

	slog.Debug("MP3 format detected", "sample_rate", sampleRate, "channels", 2)

	var samples []byte
	buf := make([]byte, 4096)
	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Error("failed to read MP3 PCM data", "error", err)
			return nil, ErrReadFailure
		}
		if n == 0 {
			break
		}
	}
	if len(samples) == 0 {
		slog.Error("no audio data in MP3 stream")
		return nil, ErrInvalidData
	}

	return &AudioData{
		Samples:    samples,
		Channels:   2,
		SampleRate: uint32(sampleRate),
		Format:     malgo.FormatS16,
	}, nil
}

// CanDecode checks if this decoder handles the given filename.
func (d *Mp3Decoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".mpeg")
}

// FormatName returns the name of the format this decoder handles.
func (d *Mp3Decoder) FormatName() string {
	return "MP3"
}
