package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CommandCapturer records clips by running an external recorder command
// (arecord, sox, ffmpeg and similar). The command template may use the
// placeholders {file}, {rate} and {duration}; the recorded WAV file is read
// back and decoded after the command exits.
type CommandCapturer struct {
	command    string
	sampleRate int
	duration   int
}

// defaultCaptureCommand records with ALSA's arecord, which is present on
// most Linux systems.
const defaultCaptureCommand = "arecord -q -f S16_LE -c 1 -r {rate} -d {duration} {file}"

// NewCommandCapturer creates a capturer. An empty command falls back to
// arecord.
func NewCommandCapturer(command string, sampleRate, durationSeconds int) *CommandCapturer {
	if command == "" {
		command = defaultCaptureCommand
	}
	return &CommandCapturer{
		command:    command,
		sampleRate: sampleRate,
		duration:   durationSeconds,
	}
}

// Capture runs the recorder command for the configured duration and returns
// the decoded clip. The context aborts the recorder process; a capture that
// already finished recording is returned normally.
func (c *CommandCapturer) Capture(ctx context.Context) (*Clip, error) {
	tmpDir, err := os.MkdirTemp("", "voice-capture-*")
	if err != nil {
		return nil, fmt.Errorf("creating capture directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	wavPath := filepath.Join(tmpDir, "capture.wav")

	replacer := strings.NewReplacer(
		"{file}", wavPath,
		"{rate}", strconv.Itoa(c.sampleRate),
		"{duration}", strconv.Itoa(c.duration),
	)
	parts := strings.Fields(replacer.Replace(c.command))
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty capture command")
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("recorder command failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("reading recorded file: %w", err)
	}
	clip, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("decoding recorded file: %w", err)
	}
	if err := clip.Validate(c.sampleRate); err != nil {
		return nil, fmt.Errorf("invalid recording: %w", err)
	}
	return clip, nil
}
