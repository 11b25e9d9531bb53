package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/voice-attendance/internal/attendance"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect and export the attendance ledger",
}

var attendanceShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Show attendance for a date (defaults to today)",
	Long: `Show which students were marked present on a date. The date is given as
YYYY-MM-DD and defaults to today. Dates with no recorded attendance show an
empty list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAttendanceShow,
}

var attendanceReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the full ledger grouped by class and date",
	RunE:  runAttendanceReport,
}

var attendanceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the attendance ledger as CSV",
	RunE:  runAttendanceExport,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceShowCmd)
	attendanceCmd.AddCommand(attendanceReportCmd)
	attendanceCmd.AddCommand(attendanceExportCmd)

	attendanceExportCmd.Flags().String("output", "", "Write CSV to a file instead of stdout")
}

func runAttendanceShow(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	date := database.Today()
	if len(args) == 1 {
		date = args[0]
		if !database.ValidDay(date) {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ids, err := svc.ledger.PresentOn(ctx, date)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Printf("No attendance recorded for %s\n", date)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLL NO")
	for _, id := range ids {
		// Students removed after being marked stay in the ledger by ID only.
		name, rollNo := "(removed)", ""
		if s, err := svc.roster.Find(ctx, id); err == nil {
			name, rollNo = s.Name, s.RollNo
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, name, rollNo)
	}
	w.Flush()
	fmt.Printf("\n%d present on %s\n", len(ids), date)
	return nil
}

func runAttendanceReport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	groups, err := attendance.GroupedReport(ctx, svc.ledger, svc.roster)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("No attendance recorded")
		return nil
	}

	for _, g := range groups {
		fmt.Printf("%s - Year %s, Standard %s, Division %s (%d present)\n",
			g.Key.Date, g.Key.Year, g.Key.Standard, g.Key.Division, len(g.Students))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, s := range g.Students {
			fmt.Fprintf(w, "  %s\t%s\n", s.RollNo, s.Name)
		}
		w.Flush()
		fmt.Println()
	}
	return nil
}

func runAttendanceExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	groups, err := attendance.GroupedReport(ctx, svc.ledger, svc.roster)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := mustGetString(cmd, "output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return attendance.ExportCSV(out, groups)
}
