package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/roster"
	"github.com/spf13/cobra"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Manage enrolled students",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled students",
	Long: `List enrolled students. With --grouped, students are shown per class
group (year, standard, division) ordered by roll number.`,
	RunE: runStudentsList,
}

var studentsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search students by name or roll number",
	Long: `Search students by name or roll number. Matching is case-insensitive
and ignores diacritics, so "rene" finds "René".`,
	Args: cobra.ExactArgs(1),
	RunE: runStudentsSearch,
}

var studentsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a student and their voiceprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsRemove,
}

var studentsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the student directory as CSV",
	RunE:  runStudentsExport,
}

func init() {
	rootCmd.AddCommand(studentsCmd)
	studentsCmd.AddCommand(studentsListCmd)
	studentsCmd.AddCommand(studentsSearchCmd)
	studentsCmd.AddCommand(studentsRemoveCmd)
	studentsCmd.AddCommand(studentsExportCmd)

	studentsListCmd.Flags().Bool("grouped", false, "Group students by class (year, standard, division)")
	studentsExportCmd.Flags().String("output", "", "Write CSV to a file instead of stdout")
}

func printStudentTable(students []database.Student) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLL NO\tSTANDARD\tDIVISION\tYEAR")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.RollNo, s.Standard, s.Division, s.Year)
	}
	w.Flush()
}

func runStudentsList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	students, err := svc.roster.Search(ctx, "")
	if err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Println("No students enrolled")
		return nil
	}

	if !mustGetBool(cmd, "grouped") {
		printStudentTable(students)
		fmt.Printf("\n%d students\n", len(students))
		return nil
	}

	for _, group := range roster.GroupStudents(students) {
		fmt.Printf("Year %s, Standard %s, Division %s (%d students)\n",
			group.Key.Year, group.Key.Standard, group.Key.Division, len(group.Students))
		printStudentTable(group.Students)
		fmt.Println()
	}
	return nil
}

func runStudentsSearch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	students, err := svc.roster.Search(ctx, args[0])
	if err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Printf("No students matching %q\n", args[0])
		return nil
	}
	printStudentTable(students)
	return nil
}

func runStudentsRemove(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	student, err := svc.roster.Find(ctx, args[0])
	if err != nil {
		return fmt.Errorf("finding student %s: %w", args[0], err)
	}
	if err := svc.roster.Remove(ctx, args[0]); err != nil {
		return fmt.Errorf("removing student %s: %w", args[0], err)
	}
	fmt.Printf("Removed %s (ID: %s)\n", student.Name, student.ID)
	return nil
}

func runStudentsExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	students, err := svc.roster.Search(ctx, "")
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
		fmt.Fprintf(os.Stderr, "Exporting %d students to %s\n", len(students), path)
	}
	return roster.ExportCSV(out, students)
}
