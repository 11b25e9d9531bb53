package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCommandCapturer(t *testing.T) {
	// Stand in for a real recorder with cp: the "recording" is a prepared
	// WAV file copied to the requested output path.
	src := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(src, EncodeWAV(testClip()), 0o644); err != nil {
		t.Fatalf("writing sample: %v", err)
	}

	capturer := NewCommandCapturer("cp "+src+" {file}", 16000, 3)
	clip, err := capturer.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if clip.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", clip.SampleRate)
	}
	if len(clip.Samples) == 0 {
		t.Error("expected samples in captured clip")
	}
}

func TestCommandCapturerRejectsWrongRate(t *testing.T) {
	src := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(src, EncodeWAV(testClip()), 0o644); err != nil {
		t.Fatalf("writing sample: %v", err)
	}

	capturer := NewCommandCapturer("cp "+src+" {file}", 44100, 3)
	if _, err := capturer.Capture(context.Background()); err == nil {
		t.Error("expected error for sample rate mismatch")
	}
}

func TestCommandCapturerFailure(t *testing.T) {
	capturer := NewCommandCapturer("false", 16000, 3)
	if _, err := capturer.Capture(context.Background()); err == nil {
		t.Error("expected error when the recorder command fails")
	}
}
