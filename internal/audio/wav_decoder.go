package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/youpy/go-wav"
)

// WavDecoder decodes RIFF WAVE files.
type WavDecoder struct{}

// NewWavDecoder creates a new WAV decoder instance.
func NewWavDecoder() *WavDecoder {
	return &WavDecoder{}
}

// Decode reads WAV audio from reader and returns decoded PCM.
func (d *WavDecoder) Decode(reader io.Reader) (*AudioData, error) {
	// go-wav needs a ReadSeeker, so buffer the whole stream first
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read WAV stream", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	wavReader := wav.NewReader(bytes.NewReader(data))
	format, err := wavReader.Format()
	if err != nil {
		slog.Error("failed to read WAV format chunk", "error", err)
		return nil, ErrInvalidData
	}
	if format.NumChannels == 0 || format.SampleRate == 0 {
		slog.Error("invalid WAV format parameters",
			"channels", format.NumChannels,
			"sample_rate", format.SampleRate)
		return nil, ErrInvalidData
	}

	var malgoFormat malgo.FormatType
	switch format.BitsPerSample {
	case 16:
		malgoFormat = malgo.FormatS16
	case 24:
		malgoFormat = malgo.FormatS24
	case 32:
		malgoFormat = malgo.FormatS32
	default:
		slog.Error("unsupported WAV bit depth", "bits", format.BitsPerSample)
		return nil, ErrUnsupportedFormat
	}

	slog.Debug("WAV format detected",
		"sample_rate", format.SampleRate,
		"channels", format.NumChannels,
		"bits_per_sample", format.BitsPerSample)

	var samples []wav.Sample
	for {
		chunk, err := wavReader.ReadSamples()
		if err == io.EOF || len(chunk) == 0 {
			break
		}
		if err != nil {
			slog.Error("failed to read WAV samples", "error", err)
			return nil, ErrReadFailure
		}
		samples = append(samples, chunk...)
	}
	if len(samples) == 0 {
		slog.Error("no audio data in WAV stream")
		return nil, ErrInvalidData
	}

	// Re-interleave into little-endian raw bytes
	stride := int(format.BitsPerSample) / 8
	raw := make([]byte, 0, len(samples)*int(format.NumChannels)*stride)
	for _, sample := range samples {
		for ch := 0; ch < int(format.NumChannels); ch++ {
			var val int
			if ch < len(sample.Values) {
				val = sample.Values[ch]
			}
			for b := 0; b < stride; b++ {
				raw = append(raw, byte(val>>(8*b)))
			}
		}
	}

	return &AudioData{
		Samples:    raw,
		Channels:   uint32(format.NumChannels),
		SampleRate: uint32(format.SampleRate),
		Format:     malgoFormat,
	}, nil
}

// CanDecode checks if this decoder handles the given filename.
func (d *WavDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave")
}

// FormatName returns the name of the format this decoder handles.
func (d *WavDecoder) FormatName() string {
	return "WAV"
}
