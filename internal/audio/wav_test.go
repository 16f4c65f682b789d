package audio

import (
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768, 5}
	sampleRate := 16000

	data, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	decoded, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if rate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, rate)
	}

	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}

	for i, s := range samples {
		if decoded[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, decoded[i])
		}
	}
}

func TestEncodeWAVEmptySamples(t *testing.T) {
	_, err := EncodeWAV(nil, 16000)
	if err == nil {
		t.Error("Expected error for empty samples")
	}
}

func TestEncodeWAVInvalidSampleRate(t *testing.T) {
	_, err := EncodeWAV([]int16{1, 2, 3}, 0)
	if err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestDecodeWAVTooShort(t *testing.T) {
	_, _, err := DecodeWAV([]byte{1, 2, 3})
	if err == nil {
		t.Error("Expected error for truncated data")
	}
}

func TestDecodeWAVBadMagic(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	data, err := EncodeWAV(samples, 8000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Corrupt the RIFF marker
	copy(data[0:4], []byte("JUNK"))

	if _, _, err := DecodeWAV(data); err == nil {
		t.Error("Expected error for missing RIFF header")
	}
}

func TestToFloat(t *testing.T) {
	samples := []int16{-2, 0, 3}
	floats := ToFloat(samples)

	if len(floats) != len(samples) {
		t.Fatalf("Expected %d values, got %d", len(samples), len(floats))
	}

	want := []float64{-2, 0, 3}
	for i := range want {
		if floats[i] != want[i] {
			t.Errorf("Value %d: expected %f, got %f", i, want[i], floats[i])
		}
	}
}
