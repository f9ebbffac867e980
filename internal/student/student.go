// Package student holds the fee-tracking domain model and its derivations.
package student

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	perrors "github.com/scholarflow/scholarflow/internal/platform/errors"
	"github.com/scholarflow/scholarflow/internal/platform/id"
)

// FeeFrequency describes the recurring billing cycle for a student.
type FeeFrequency string

const (
	// FrequencyMonthly bills one cycle per month.
	FrequencyMonthly FeeFrequency = "Monthly"
	// FrequencyAnnually bills one cycle per year.
	FrequencyAnnually FeeFrequency = "Annually"
	// FrequencyOneTime bills a single cycle at enrollment.
	FrequencyOneTime FeeFrequency = "OneTime"
	// FrequencyInstallment splits the total across a fixed number of cycles.
	FrequencyInstallment FeeFrequency = "Installment"
)

// FeeStatus is the derived due state of a student. It is never persisted.
type FeeStatus string

const (
	// StatusPaid is defined in the model but currently unreachable:
	// CalculateStatus only produces Pending or Overdue.
	StatusPaid FeeStatus = "Paid"
	// StatusPending indicates the next due date is today or later.
	StatusPending FeeStatus = "Pending"
	// StatusOverdue indicates the next due date has passed.
	StatusOverdue FeeStatus = "Overdue"
)

// Payment is one recorded transaction. Payments are append-only: once
// recorded they are never mutated or removed while their student exists.
type Payment struct {
	ID     string    `json:"id"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
	Notes  string    `json:"notes,omitempty"`
}

// Student is one enrolled individual. The JSON field names are a
// compatibility contract with previously written backups and must not change.
type Student struct {
	ID            string       `json:"id" validate:"required"`
	Name          string       `json:"name" validate:"required"`
	FatherName    string       `json:"fatherName,omitempty"`
	Photo         string       `json:"photo,omitempty"`
	Address       string       `json:"address"`
	ContactNumber string       `json:"contactNumber"`
	Course        string       `json:"course"`

	// Fee configuration. MonthlyFee is the amount per cycle regardless of
	// frequency; TotalInstallments only applies to Installment plans.
	FeeFrequency      FeeFrequency `json:"feeFrequency"`
	MonthlyFee        float64      `json:"monthlyFee"`
	TotalInstallments int          `json:"totalInstallments,omitempty"`

	EnrollmentDate time.Time `json:"enrollmentDate"`
	NextDueDate    time.Time `json:"nextDueDate"`
	Payments       []Payment `json:"payments"`
}

// TotalPaid returns the lifetime sum of this student's payment amounts.
func (s Student) TotalPaid() float64 {
	var total float64
	for _, p := range s.Payments {
		total += p.Amount
	}
	return total
}

// LastPayment returns the most recently recorded payment, if any.
// Payments are stored in recording order, so the last element is the newest.
func (s Student) LastPayment() (Payment, bool) {
	if len(s.Payments) == 0 {
		return Payment{}, false
	}
	return s.Payments[len(s.Payments)-1], true
}

// CalculateStatus derives the fee status of a due date relative to now.
// The comparison is day-granular: both sides are truncated to midnight, so
// a student due today is Pending, not Overdue.
func CalculateStatus(nextDueDate, now time.Time) FeeStatus {
	due := truncateToDay(nextDueDate)
	today := truncateToDay(now)
	if today.After(due) {
		return StatusOverdue
	}
	return StatusPending
}

// Status derives the student's current fee status.
func (s Student) Status(now time.Time) FeeStatus {
	return CalculateStatus(s.NextDueDate, now)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewStudentInput describes the information needed to enroll a student.
type NewStudentInput struct {
	Name              string       `validate:"required"`
	FatherName        string
	Photo             string
	Address           string
	ContactNumber     string
	Course            string
	FeeFrequency      FeeFrequency `validate:"required,oneof=Monthly Annually OneTime Installment"`
	MonthlyFee        float64      `validate:"gte=0"`
	TotalInstallments int          `validate:"omitempty,gt=0"`
	NextDueDate       time.Time    `validate:"required"`
}

// UpdateStudentInput describes the fields an edit may change. Enrollment
// date and historical payments are never part of an edit.
type UpdateStudentInput struct {
	Name              string       `validate:"required"`
	FatherName        string
	Photo             string
	Address           string
	ContactNumber     string
	Course            string
	FeeFrequency      FeeFrequency `validate:"required,oneof=Monthly Annually OneTime Installment"`
	MonthlyFee        float64      `validate:"gte=0"`
	TotalInstallments int          `validate:"omitempty,gt=0"`
	NextDueDate       time.Time    `validate:"required"`
}

// New enrolls a student: validates the input, assigns an id and the
// enrollment timestamp, and starts with an empty payment ledger.
func New(input NewStudentInput, now func() time.Time, idGenerator func() (string, error)) (Student, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return Student{}, perrors.Wrap(perrors.CodeStudentInvalidInput, "invalid student input", err)
	}

	studentID, err := idGenerator()
	if err != nil {
		return Student{}, fmt.Errorf("generate student id: %w", err)
	}

	return Student{
		ID:                studentID,
		Name:              input.Name,
		FatherName:        strings.TrimSpace(input.FatherName),
		Photo:             input.Photo,
		Address:           strings.TrimSpace(input.Address),
		ContactNumber:     strings.TrimSpace(input.ContactNumber),
		Course:            strings.TrimSpace(input.Course),
		FeeFrequency:      input.FeeFrequency,
		MonthlyFee:        input.MonthlyFee,
		TotalInstallments: input.TotalInstallments,
		EnrollmentDate:    now().UTC(),
		NextDueDate:       input.NextDueDate,
		Payments:          []Payment{},
	}, nil
}

// ApplyUpdate overwrites the editable fields of the student. The id,
// enrollment date, and payment history are left untouched.
func (s *Student) ApplyUpdate(input UpdateStudentInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return perrors.Wrap(perrors.CodeStudentInvalidInput, "invalid student input", err)
	}

	s.Name = input.Name
	s.FatherName = strings.TrimSpace(input.FatherName)
	s.Photo = input.Photo
	s.Address = strings.TrimSpace(input.Address)
	s.ContactNumber = strings.TrimSpace(input.ContactNumber)
	s.Course = strings.TrimSpace(input.Course)
	s.FeeFrequency = input.FeeFrequency
	s.MonthlyFee = input.MonthlyFee
	s.TotalInstallments = input.TotalInstallments
	s.NextDueDate = input.NextDueDate
	return nil
}
