package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voice-attendance",
	Short: "A CLI tool for voice-based attendance tracking",
	Long: `Voice Attendance is a CLI application that identifies enrolled students
by their voice and records daily attendance. Students are enrolled with a
short audio sample; recognition compares new samples against the stored
voiceprints using cosine similarity.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
