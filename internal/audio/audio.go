// Package audio defines the capture collaborator boundary: a fixed-duration
// mono PCM clip source and the WAV framing used to move clips around.
package audio

import (
	"context"
	"fmt"
)

// Clip is a fixed-duration mono PCM16 recording.
type Clip struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Validate checks that the clip matches the expected format.
func (c *Clip) Validate(sampleRate int) error {
	if len(c.Samples) == 0 {
		return fmt.Errorf("empty clip")
	}
	if c.SampleRate != sampleRate {
		return fmt.Errorf("unexpected sample rate: got %d, want %d", c.SampleRate, sampleRate)
	}
	return nil
}

// Capturer produces one clip per call. Capture blocks for the configured
// recording duration; ctx aborts a capture that has not completed.
type Capturer interface {
	Capture(ctx context.Context) (*Clip, error)
}
