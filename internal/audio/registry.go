package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DecoderRegistry holds the known format decoders and picks one for a file,
// preferring magic-byte detection over the filename extension.
type DecoderRegistry struct {
	decoders []Decoder
}

// NewDecoderRegistry creates an empty registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{}
}

// NewDefaultRegistry creates a registry with the WAV, MP3, and AIFF decoders.
func NewDefaultRegistry() *DecoderRegistry {
	r := NewDecoderRegistry()
	r.Register(NewWavDecoder())
	r.Register(NewMp3Decoder())
	r.Register(NewAiffDecoder())

	slog.Debug("default decoder registry initialized", "formats", r.SupportedFormats())
	return r
}

// Register appends a decoder. Earlier registrations win on extension ties.
func (r *DecoderRegistry) Register(d Decoder) {
	if d == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}
	r.decoders = append(r.decoders, d)
	slog.Debug("decoder registered", "format", d.FormatName(), "total", len(r.decoders))
}

// SupportedFormats returns the names of every registered format.
func (r *DecoderRegistry) SupportedFormats() []string {
	formats := make([]string, 0, len(r.decoders))
	for _, d := range r.decoders {
		formats = append(formats, d.FormatName())
	}
	return formats
}

// DetectByName picks a decoder from the filename extension alone.
func (r *DecoderRegistry) DetectByName(filename string) Decoder {
	if filename == "" {
		return nil
	}
	for _, d := range r.decoders {
		if d.CanDecode(filename) {
			slog.Debug("format detected by extension", "filename", filename, "format", d.FormatName())
			return d
		}
	}
	slog.Debug("no decoder matches filename", "filename", filename)
	return nil
}

// DetectByContent sniffs magic bytes from reader, falling back to the
// extension when the content is unrecognized or unreadable.
func (r *DecoderRegistry) DetectByContent(filename string, reader io.Reader) Decoder {
	header := make([]byte, 512)
	n, err := reader.Read(header)
	if (err != nil && err != io.EOF) || n == 0 {
		slog.Debug("unable to read header for magic detection, using extension",
			"filename", filename, "error", err)
		return r.DetectByName(filename)
	}

	mime := strings.ToLower(mimetype.Detect(header[:n]).String())
	slog.Debug("magic byte detection", "filename", filename, "mime", mime, "bytes", n)

	var format string
	switch {
	case strings.Contains(mime, "wav") || mime == "audio/vnd.wave":
		format = "WAV"
	case strings.Contains(mime, "mpeg") || strings.Contains(mime, "mp3"):
		format = "MP3"
	case strings.Contains(mime, "aiff"):
		format = "AIFF"
	}

	if format != "" {
		if d := r.byFormat(format); d != nil {
			slog.Debug("format detected by magic bytes", "filename", filename, "format", format)
			return d
		}
	}
	return r.DetectByName(filename)
}

// Decode buffers the reader, picks a decoder, and decodes.
func (r *DecoderRegistry) Decode(filename string, reader io.Reader) (*AudioData, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read audio content", "filename", filename, "error", err)
		return nil, fmt.Errorf("failed to read audio content: %w", err)
	}

	decoder := r.DetectByContent(filename, bytes.NewReader(content))
	if decoder == nil {
		slog.Error("no suitable decoder", "filename", filename)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	data, err := decoder.Decode(bytes.NewReader(content))
	if err != nil {
		slog.Error("decode failed",
			"filename", filename,
			"format", decoder.FormatName(),
			"error", err)
		return nil, err
	}

	slog.Info("audio decoded",
		"filename", filename,
		"format", decoder.FormatName(),
		"channels", data.Channels,
		"sample_rate", data.SampleRate,
		"bytes", len(data.Samples))
	return data, nil
}

func (r *DecoderRegistry) byFormat(name string) Decoder {
	for _, d := range r.decoders {
		if strings.EqualFold(d.FormatName(), name) {
			return d
		}
	}
	return nil
}
