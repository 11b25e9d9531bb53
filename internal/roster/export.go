package roster

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// ExportCSV writes the student directory as CSV.
func ExportCSV(w io.Writer, students []database.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Roll No", "Standard", "Division", "Year", "Emergency Contact"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, s := range students {
		record := []string{s.Name, s.RollNo, s.Standard, s.Division, s.Year, s.EmergencyContact}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV record for %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
