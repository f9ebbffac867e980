package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/scholarflow/scholarflow/internal/student"
)

// csvHeader is a compatibility contract: downstream spreadsheets key on
// these exact column names.
var csvHeader = []string{
	"ID", "Name", "Father Name", "Course", "Fee Type", "Cycle Amount",
	"Contact", "Address", "Enrollment Date", "Total Paid", "Status",
}

// WriteCSV projects each student to one flat row. Text fields are
// quote-wrapped with embedded quotes doubled (encoding/csv escaping), and
// the enrollment date keeps only its date portion. An empty collection
// writes nothing at all.
func WriteCSV(w io.Writer, students []student.Student, now time.Time) error {
	if len(students) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range students {
		row := []string{
			s.ID,
			s.Name,
			s.FatherName,
			s.Course,
			string(s.FeeFrequency),
			formatAmount(s.MonthlyFee),
			s.ContactNumber,
			s.Address,
			s.EnrollmentDate.Format("2006-01-02"),
			formatAmount(s.TotalPaid()),
			string(s.Status(now)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
