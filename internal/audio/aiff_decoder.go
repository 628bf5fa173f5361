package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// AiffDecoder decodes AIFF files.
type AiffDecoder struct{}

// NewAiffDecoder creates a new AIFF decoder instance.
func NewAiffDecoder() *AiffDecoder {
	return &AiffDecoder{}
}

// Decode reads AIFF audio from reader and returns decoded PCM.
func (d *AiffDecoder) Decode(reader io.Reader) (*AudioData, error) {
	// go-audio/aiff needs a ReadSeeker
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read AIFF stream", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	decoder := aiff.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		slog.Error("invalid AIFF file")
		return nil, ErrInvalidData
	}

	sampleRate := uint32(decoder.SampleRate)
	channels := uint32(decoder.NumChans)
	bitDepth := int(decoder.SampleBitDepth())
	if channels == 0 || sampleRate == 0 || bitDepth == 0 {
		slog.Error("invalid AIFF format parameters",
			"channels", channels,
			"sample_rate", sampleRate,
			"bit_depth", bitDepth)
		return nil, ErrInvalidData
	}

	var malgoFormat malgo.FormatType
	switch bitDepth {
	case 16:
		malgoFormat = malgo.FormatS16
	case 24:
		malgoFormat = malgo.FormatS24
	case 32:
		malgoFormat = malgo.FormatS32
	default:
		slog.Error("unsupported AIFF bit depth", "bits", bitDepth)
		return nil, ErrUnsupportedFormat
	}

	slog.Debug("AIFF format detected",
		"sample_rate", sampleRate,
		"channels", channels,
		"bits_per_sample", bitDepth)

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		slog.Error("failed to read AIFF samples", "error", err)
		return nil, ErrReadFailure
	}
	if pcm == nil || len(pcm.Data) == 0 {
		slog.Error("no audio data in AIFF file")
		return nil, ErrInvalidData
	}

	return &AudioData{
		Samples:    intBufferToBytes(pcm, bitDepth),
		Channels:   channels,
		SampleRate: sampleRate,
		Format:     malgoFormat,
	}, nil
}

// intBufferToBytes packs decoded integer samples into interleaved
// little-endian raw bytes at the given bit depth.
func intBufferToBytes(pcm *audio.IntBuffer, bitDepth int) []byte {
	stride := bitDepth / 8
	raw := make([]byte, 0, len(pcm.Data)*stride)
	for _, sample := range pcm.Data {
		for b := 0; b < stride; b++ {
			raw = append(raw, byte(sample>>(8*b)))
		}
	}
	return raw
}

// CanDecode checks if this decoder handles the given filename.
func (d *AiffDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".aiff") || strings.HasSuffix(lower, ".aif")
}

// FormatName returns the name of the format this decoder handles.
func (d *AiffDecoder) FormatName() string {
	return "AIFF"
}
