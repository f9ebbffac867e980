package scholarflow

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/scholarflow/scholarflow/internal/export"
	"github.com/scholarflow/scholarflow/internal/student"
	"github.com/scholarflow/scholarflow/internal/student/ledger"
	"github.com/scholarflow/scholarflow/internal/student/storage"
)

const dateLayout = "2006-01-02"

func newFlagSet(env *cmdEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.errOut)
	return fs
}

func parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}

func runAdd(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "add")
	name := fs.String("name", "", "student name (required)")
	father := fs.String("father", "", "father's name")
	photo := fs.String("photo", "", "photo reference")
	address := fs.String("address", "", "home address")
	contact := fs.String("contact", "", "contact number")
	course := fs.String("course", "", "enrolled course")
	frequency := fs.String("frequency", string(student.FrequencyMonthly), "fee frequency (Monthly|Annually|OneTime|Installment)")
	fee := fs.Float64("fee", 0, "fee amount per cycle")
	installments := fs.Int("installments", 0, "total installments (Installment plans only)")
	due := fs.String("due", "", "first due date as YYYY-MM-DD (default: one cycle from today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	freq := student.FeeFrequency(*frequency)
	nextDue := student.ProposeNextDueDate(freq, time.Now())
	if *due != "" {
		parsed, err := parseDate(*due)
		if err != nil {
			return err
		}
		nextDue = parsed
	}

	record, err := env.svc.CreateStudent(ctx, student.NewStudentInput{
		Name:              *name,
		FatherName:        *father,
		Photo:             *photo,
		Address:           *address,
		ContactNumber:     *contact,
		Course:            *course,
		FeeFrequency:      freq,
		MonthlyFee:        *fee,
		TotalInstallments: *installments,
		NextDueDate:       nextDue,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Enrolled %s (%s), next due %s\n",
		record.Name, record.ID, record.NextDueDate.Format(dateLayout))
	return nil
}

func runEdit(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "edit")
	id := fs.String("id", "", "student id (required)")
	name := fs.String("name", "", "student name")
	father := fs.String("father", "", "father's name")
	photo := fs.String("photo", "", "photo reference")
	address := fs.String("address", "", "home address")
	contact := fs.String("contact", "", "contact number")
	course := fs.String("course", "", "enrolled course")
	frequency := fs.String("frequency", "", "fee frequency (Monthly|Annually|OneTime|Installment)")
	fee := fs.Float64("fee", 0, "fee amount per cycle")
	installments := fs.Int("installments", 0, "total installments (Installment plans only)")
	due := fs.String("due", "", "next due date as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	record, err := findStudent(ctx, env.svc, *id)
	if err != nil {
		return err
	}

	// Start from the current record so unset flags leave fields alone.
	input := student.UpdateStudentInput{
		Name:              record.Name,
		FatherName:        record.FatherName,
		Photo:             record.Photo,
		Address:           record.Address,
		ContactNumber:     record.ContactNumber,
		Course:            record.Course,
		FeeFrequency:      record.FeeFrequency,
		MonthlyFee:        record.MonthlyFee,
		TotalInstallments: record.TotalInstallments,
		NextDueDate:       record.NextDueDate,
	}
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			input.Name = *name
		case "father":
			input.FatherName = *father
		case "photo":
			input.Photo = *photo
		case "address":
			input.Address = *address
		case "contact":
			input.ContactNumber = *contact
		case "course":
			input.Course = *course
		case "frequency":
			input.FeeFrequency = student.FeeFrequency(*frequency)
		case "fee":
			input.MonthlyFee = *fee
		case "installments":
			input.TotalInstallments = *installments
		case "due":
			parsed, err := parseDate(*due)
			if err != nil {
				parseErr = err
				return
			}
			input.NextDueDate = parsed
		}
	})
	if parseErr != nil {
		return parseErr
	}

	updated, err := env.svc.UpdateStudent(ctx, *id, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Updated %s (%s)\n", updated.Name, updated.ID)
	return nil
}

func runRemove(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "remove")
	id := fs.String("id", "", "student id (required)")
	yes := fs.Bool("yes", false, "confirm deletion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}
	if !*yes {
		return fmt.Errorf("removing a student deletes their payment history; re-run with -yes to confirm")
	}
	if err := env.svc.DeleteStudent(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Removed %s\n", *id)
	return nil
}

func runList(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	students, err := env.svc.Students(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Fprintln(env.out, "No students enrolled.")
		return nil
	}

	now := time.Now()
	tw := tabwriter.NewWriter(env.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOURSE\tFREQUENCY\tFEE\tPAID\tNEXT DUE\tSTATUS")
	for _, s := range students {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			s.ID, s.Name, s.Course, s.FeeFrequency,
			s.MonthlyFee, s.TotalPaid(),
			s.NextDueDate.Format(dateLayout), s.Status(now))
	}
	return tw.Flush()
}

func runPay(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "pay")
	id := fs.String("id", "", "student id (required)")
	amount := fs.Float64("amount", 0, "payment amount (required)")
	notes := fs.String("notes", "", "optional payment notes")
	due := fs.String("due", "", "next due date as YYYY-MM-DD (default: one cycle from today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	var nextDue time.Time
	if *due != "" {
		parsed, err := parseDate(*due)
		if err != nil {
			return err
		}
		nextDue = parsed
	} else {
		record, err := findStudent(ctx, env.svc, *id)
		if err != nil {
			return err
		}
		nextDue = student.ProposeNextDueDate(record.FeeFrequency, time.Now())
	}

	record, err := env.svc.AddPayment(ctx, ledger.AddPaymentInput{
		StudentID:   *id,
		Amount:      *amount,
		NextDueDate: nextDue,
		Notes:       *notes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Recorded %.2f for %s, next due %s\n",
		*amount, record.Name, record.NextDueDate.Format(dateLayout))
	return nil
}

func runStats(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "stats")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := env.svc.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Students:        %d\n", stats.TotalStudents)
	fmt.Fprintf(env.out, "Total collected: %.2f\n", stats.TotalCollected)
	fmt.Fprintf(env.out, "Pending amount:  %.2f\n", stats.PendingAmount)
	fmt.Fprintf(env.out, "Overdue:         %d\n", stats.OverdueCount)
	return nil
}

func runExportCSV(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "export-csv")
	output := fs.String("o", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	students, err := env.svc.Students(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Fprintln(env.errOut, "No students to export.")
		return nil
	}

	w, closeFn, err := openOutput(env, *output)
	if err != nil {
		return err
	}
	defer closeFn()
	return export.WriteCSV(w, students, time.Now())
}

func runBackup(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "backup")
	output := fs.String("o", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	students, err := env.svc.Students(ctx)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(env, *output)
	if err != nil {
		return err
	}
	defer closeFn()
	return export.WriteBackup(w, students)
}

func runRestore(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "restore")
	input := fs.String("i", "", "backup file to restore (required)")
	yes := fs.Bool("yes", false, "confirm replacing all current records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-i is required")
	}
	if !*yes {
		return fmt.Errorf("restore replaces every current record; re-run with -yes to confirm")
	}

	f, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	if err := export.Restore(ctx, env.store, f); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Restored records from %s\n", *input)
	return nil
}

func runInsight(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "insight")
	if err := fs.Parse(args); err != nil {
		return err
	}

	students, err := env.svc.Students(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.out, env.insightGenerator().Generate(ctx, students, time.Now()))
	return nil
}

func findStudent(ctx context.Context, svc *ledger.Service, id string) (student.Student, error) {
	students, err := svc.Students(ctx)
	if err != nil {
		return student.Student{}, err
	}
	for _, s := range students {
		if s.ID == id {
			return s, nil
		}
	}
	return student.Student{}, fmt.Errorf("student %s: %w", id, storage.ErrNotFound)
}

func openOutput(env *cmdEnv, path string) (w io.Writer, closeFn func(), err error) {
	if path == "" {
		return env.out, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(env.errOut, "Error: close output file: %v\n", closeErr)
		}
	}, nil
}
