package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the attendance web server.

The server exposes a JSON API for enrolling students, recognizing voice
samples, and reading the attendance ledger. Voice samples are uploaded as
WAV files and forwarded to the embedding server.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("index", true, "Build an in-memory HNSW index for faster matching")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Printf("Using %s storage backend\n", cfg.Storage.Backend)

	if mustGetBool(cmd, "index") {
		fmt.Println("Building in-memory HNSW index for voiceprint matching...")
		if err := svc.matcher.EnableIndex(ctx, cfg.Matcher.IndexCandidates); err != nil {
			fmt.Printf("Warning: failed to build HNSW index: %v\n", err)
			fmt.Println("Matching will scan all voiceprints (slower)")
		}
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, svc.roster, svc.matcher, svc.ledger, svc.embedder)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting voice attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
