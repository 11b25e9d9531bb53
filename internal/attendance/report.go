package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/roster"
)

// ReportKey identifies one section of the grouped attendance report.
type ReportKey struct {
	Year     string `json:"year"`
	Standard string `json:"standard"`
	Division string `json:"division"`
	Date     string `json:"date"`
}

// ReportGroup is one section of the grouped attendance report.
type ReportGroup struct {
	Key      ReportKey          `json:"key"`
	Students []database.Student `json:"students"`
}

// GroupedReport joins the ledger with the student directory and groups
// present students by (year, standard, division, date). Students no longer
// in the directory are skipped; the ledger keeps their IDs but there is no
// metadata left to report. The report is recomputed on every call.
func GroupedReport(ctx context.Context, ledger *Ledger, r *roster.Roster) ([]ReportGroup, error) {
	days, err := ledger.All(ctx)
	if err != nil {
		return nil, err
	}

	students := make(map[string]database.Student)
	for s, err := range r.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("loading student directory: %w", err)
		}
		students[s.ID] = s
	}

	byKey := make(map[ReportKey][]database.Student)
	for date, ids := range days {
		for _, id := range ids {
			s, ok := students[id]
			if !ok {
				continue
			}
			key := ReportKey{Year: s.Year, Standard: s.Standard, Division: s.Division, Date: date}
			byKey[key] = append(byKey[key], s)
		}
	}

	keys := make([]ReportKey, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Standard != b.Standard {
			return a.Standard < b.Standard
		}
		if a.Division != b.Division {
			return a.Division < b.Division
		}
		return a.Date < b.Date
	})

	groups := make([]ReportGroup, 0, len(keys))
	for _, key := range keys {
		members := byKey[key]
		sort.Slice(members, func(i, j int) bool {
			if members[i].RollNo != members[j].RollNo {
				return members[i].RollNo < members[j].RollNo
			}
			return members[i].Name < members[j].Name
		})
		groups = append(groups, ReportGroup{Key: key, Students: members})
	}
	return groups, nil
}

// ExportCSV writes the grouped report as CSV, one row per present student.
func ExportCSV(w io.Writer, groups []ReportGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Year", "Standard", "Division", "Name", "Roll No"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, g := range groups {
		for _, s := range g.Students {
			record := []string{g.Key.Date, g.Key.Year, g.Key.Standard, g.Key.Division, s.Name, s.RollNo}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("writing CSV record: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
