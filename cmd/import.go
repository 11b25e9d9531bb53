package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/voice-attendance/internal/audio"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <roster.csv>",
	Short: "Bulk-enroll students from a CSV file",
	Long: `Bulk-enroll students from a CSV roster.

The CSV must have a header row with at least "name" and "audio" columns.
Optional columns: id, standard, division, year, roll_no, emergency_contact.
The audio column holds a WAV file path, resolved relative to --audio-dir
(default: the CSV file's directory).

Rows that fail to enroll are reported and skipped; the import continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("audio-dir", "", "Base directory for relative audio paths (defaults to the CSV directory)")
}

// importRow is one parsed roster line.
type importRow struct {
	student   database.Student
	audioPath string
	line      int
}

func parseRosterCSV(path, audioDir string) ([]importRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "audio"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("roster is missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []importRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading roster line %d: %w", line, err)
		}

		audioPath := field(record, "audio")
		if !filepath.IsAbs(audioPath) {
			audioPath = filepath.Join(audioDir, audioPath)
		}
		rows = append(rows, importRow{
			student: database.Student{
				ID:               field(record, "id"),
				Name:             field(record, "name"),
				Standard:         field(record, "standard"),
				Division:         field(record, "division"),
				Year:             field(record, "year"),
				RollNo:           field(record, "roll_no"),
				EmergencyContact: field(record, "emergency_contact"),
			},
			audioPath: audioPath,
			line:      line,
		})
	}
	return rows, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	audioDir := mustGetString(cmd, "audio-dir")
	if audioDir == "" {
		audioDir = filepath.Dir(args[0])
	}

	rows, err := parseRosterCSV(args[0], audioDir)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("Roster is empty, nothing to import")
		return nil
	}

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)

	var enrolled, failed int
	for _, row := range rows {
		bar.Add(1)

		wavData, err := os.ReadFile(row.audioPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d (%s): reading audio: %v\n", row.line, row.student.Name, err)
			failed++
			continue
		}
		if _, err := audio.DecodeWAV(wavData); err != nil {
			fmt.Fprintf(os.Stderr, "line %d (%s): invalid audio: %v\n", row.line, row.student.Name, err)
			failed++
			continue
		}

		embedding, err := svc.embedder.Embed(ctx, wavData)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d (%s): computing embedding: %v\n", row.line, row.student.Name, err)
			failed++
			continue
		}

		if _, err := svc.roster.Register(ctx, row.student, embedding); err != nil {
			fmt.Fprintf(os.Stderr, "line %d (%s): enrolling: %v\n", row.line, row.student.Name, err)
			failed++
			continue
		}
		enrolled++
	}

	fmt.Printf("Imported %d students (%d failed)\n", enrolled, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d rows failed to import", failed, len(rows))
	}
	return nil
}
