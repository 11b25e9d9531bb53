package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/voice-attendance/internal/audio"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/recognize"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Listen for voices and mark attendance",
	Long: `Run the recognition loop: capture a voice sample, compare it against the
enrolled voiceprints, and mark the matched student present for today.

The loop repeats until interrupted. Use --once for a single cycle, which is
useful for scripting and for testing the microphone setup.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Bool("once", false, "Run a single recognition cycle and exit")
	recognizeCmd.Flags().Bool("index", false, "Build an in-memory HNSW index for faster matching")
}

func printCycle(cycle recognize.Cycle, threshold float64) {
	switch {
	case cycle.Err != nil:
		fmt.Printf("[%s] cycle failed: %v\n", cycle.At.Format("15:04:05"), cycle.Err)
	case !cycle.Result.Matched:
		fmt.Printf("[%s] no match (best similarity below %.2f)\n", cycle.At.Format("15:04:05"), threshold)
	case cycle.Student != nil:
		fmt.Printf("[%s] matched %s (similarity %.3f) - marked present\n",
			cycle.At.Format("15:04:05"), cycle.Student.Name, cycle.Result.Similarity)
	default:
		fmt.Printf("[%s] matched %s (similarity %.3f) - marked present\n",
			cycle.At.Format("15:04:05"), cycle.Result.StudentID, cycle.Result.Similarity)
	}
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if mustGetBool(cmd, "index") {
		fmt.Println("Building in-memory HNSW index for voiceprint matching...")
		if err := svc.matcher.EnableIndex(ctx, cfg.Matcher.IndexCandidates); err != nil {
			fmt.Printf("Warning: failed to build HNSW index: %v\n", err)
			fmt.Println("Matching will scan all voiceprints (slower)")
		}
	}

	capturer := audio.NewCommandCapturer(cfg.Audio.CaptureCommand, cfg.Audio.SampleRate, cfg.Audio.DurationSeconds)
	session := recognize.NewSession(capturer, svc.embedder, svc.matcher, svc.ledger, svc.handle.Students, func(c recognize.Cycle) {
		printCycle(c, svc.matcher.Threshold())
	})

	if mustGetBool(cmd, "once") {
		cycle := session.Once(ctx)
		printCycle(cycle, svc.matcher.Threshold())
		return cycle.Err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := session.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("Listening (threshold %.2f, %ds samples). Press Ctrl+C to stop.\n",
		svc.matcher.Threshold(), cfg.Audio.DurationSeconds)

	<-sigChan
	fmt.Println("\nStopping after the current cycle...")
	cancel()
	session.Stop()
	return nil
}
