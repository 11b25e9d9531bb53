package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/voice-attendance/internal/audio"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Enroll a student with a voice sample",
	Long: `Enroll a student in the attendance system.

The voice sample is either read from a WAV file (--audio) or captured from
the microphone. The sample is sent to the embedding server and the resulting
voiceprint is stored together with the student record. Enrolling an existing
--id again replaces both the metadata and the voiceprint.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("id", "", "Student ID (generated when empty)")
	enrollCmd.Flags().String("standard", "", "Standard (grade)")
	enrollCmd.Flags().String("division", "", "Division within the standard")
	enrollCmd.Flags().String("year", "", "Academic year")
	enrollCmd.Flags().String("roll-no", "", "Roll number")
	enrollCmd.Flags().String("emergency-contact", "", "Emergency contact number")
	enrollCmd.Flags().String("audio", "", "Path to a WAV file (captures from microphone when empty)")
}

// sampleWAV loads the WAV sample from the given path or records one from
// the microphone.
func sampleWAV(ctx context.Context, cfg *config.Config, path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading audio file: %w", err)
		}
		if _, err := audio.DecodeWAV(data); err != nil {
			return nil, fmt.Errorf("invalid audio file %s: %w", path, err)
		}
		return data, nil
	}

	capturer := audio.NewCommandCapturer(cfg.Audio.CaptureCommand, cfg.Audio.SampleRate, cfg.Audio.DurationSeconds)
	fmt.Printf("Recording %d seconds of audio...\n", cfg.Audio.DurationSeconds)
	clip, err := capturer.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing audio: %w", err)
	}
	return audio.EncodeWAV(clip), nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	wavData, err := sampleWAV(ctx, cfg, mustGetString(cmd, "audio"))
	if err != nil {
		return err
	}

	fmt.Println("Computing voiceprint...")
	embedding, err := svc.embedder.Embed(ctx, wavData)
	if err != nil {
		return fmt.Errorf("computing embedding: %w", err)
	}

	student := database.Student{
		ID:               mustGetString(cmd, "id"),
		Name:             args[0],
		Standard:         mustGetString(cmd, "standard"),
		Division:         mustGetString(cmd, "division"),
		Year:             mustGetString(cmd, "year"),
		RollNo:           mustGetString(cmd, "roll-no"),
		EmergencyContact: mustGetString(cmd, "emergency-contact"),
	}

	stored, err := svc.roster.Register(ctx, student, embedding)
	if err != nil {
		return fmt.Errorf("enrolling student: %w", err)
	}

	fmt.Printf("Enrolled %s (ID: %s, voiceprint dimension: %d)\n", stored.Name, stored.ID, len(embedding))
	return nil
}
