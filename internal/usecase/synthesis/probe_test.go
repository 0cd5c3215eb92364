package synthesis

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, sampleRate, samples int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func TestProbeDuration(t *testing.T) {
	clip := writeTestWAV(t, 8000, 8000)

	got := ProbeDuration(clip)
	if math.Abs(got-1.0) > 0.01 {
		t.Fatalf("expected about 1s, got %v", got)
	}
}

func TestProbeDuration_NotWAV(t *testing.T) {
	if got := ProbeDuration([]byte("ID3 mp3 bytes")); got != 0 {
		t.Fatalf("expected 0 for non-wav audio, got %v", got)
	}
	if got := ProbeDuration(nil); got != 0 {
		t.Fatalf("expected 0 for empty audio, got %v", got)
	}
}
