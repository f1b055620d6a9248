package media_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/storyboard/storyboard/pkg/media"
)

func TestWAVDurationRoundTrip(t *testing.T) {
	const (
		sampleRate = 24000
		channels   = 1
		width      = 2
		seconds    = 2.5
	)
	pcm := make([]byte, int(seconds*sampleRate)*channels*width)
	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := media.WriteWAV(path, pcm, channels, sampleRate, width); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := media.WAVDuration(path)
	if err != nil {
		t.Fatalf("duration failed: %v", err)
	}
	if math.Abs(got-seconds) > 0.001 {
		t.Fatalf("duration = %fs, want %fs", got, seconds)
	}
}

func TestWAVDurationStereo(t *testing.T) {
	const (
		sampleRate = 44100
		channels   = 2
		width      = 2
	)
	pcm := make([]byte, sampleRate*channels*width) // one second
	path := filepath.Join(t.TempDir(), "stereo.wav")
	if err := media.WriteWAV(path, pcm, channels, sampleRate, width); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := media.WAVDuration(path)
	if err != nil {
		t.Fatalf("duration failed: %v", err)
	}
	if math.Abs(got-1.0) > 0.001 {
		t.Fatalf("duration = %fs, want 1s", got)
	}
}

func TestWAVDurationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := media.WAVDuration(path); err == nil {
		t.Fatal("garbage accepted as wav")
	}
}

func TestWAVDurationMissingFile(t *testing.T) {
	if _, err := media.WAVDuration(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("missing file accepted")
	}
}
