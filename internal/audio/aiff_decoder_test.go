package audio

import (
	"bytes"
	"testing"
)

func TestAiffDecoderInterface(t *testing.T) {
	decoder := NewAiffDecoder()

	var _ Decoder = decoder

	if decoder.FormatName() != "AIFF" {
		t.Errorf("format name = %q, expected AIFF", decoder.FormatName())
	}
}

func TestAiffDecoderCanDecode(t *testing.T) {
	decoder := NewAiffDecoder()

	tests := []struct {
		filename string
		expected bool
	}{
		{"audio.aiff", true},
		{"sound.AIFF", true},
		{"clip.aif", true},
		{"clip.AIF", true},
		{"audio.wav", false},
		{"audio.mp3", false},
		{"", false},
		{"aiff", false},
	}

	for _, tt := range tests {
		if got := decoder.CanDecode(tt.filename); got != tt.expected {
			t.Errorf("CanDecode(%q) = %v, expected %v", tt.filename, got, tt.expected)
		}
	}
}

func TestAiffDecoderDecodeInvalidData(t *testing.T) {
	decoder := NewAiffDecoder()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", nil},
		{"garbage", []byte("not an aiff file at all")},
		{"wav data", generateTestWAV()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := decoder.Decode(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if data != nil {
				t.Error("expected nil data on error")
			}
		})
	}
}
