// Package ledger orchestrates student record mutations and payment
// recording over the collection store.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	perrors "github.com/scholarflow/scholarflow/internal/platform/errors"
	"github.com/scholarflow/scholarflow/internal/platform/id"
	"github.com/scholarflow/scholarflow/internal/student"
	"github.com/scholarflow/scholarflow/internal/student/storage"
)

// Service mutates the student collection. All writes go through the store's
// whole-collection read-modify-write; the service never touches the
// persistence medium directly.
type Service struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() (string, error)
}

// NewService builds a ledger service. The clock and id generator default to
// time.Now and the platform generator when nil.
func NewService(store storage.Store, logger *zap.Logger, now func() time.Time, idGenerator func() (string, error)) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return &Service{store: store, log: logger, now: now, newID: idGenerator}, nil
}

// Students returns the full collection.
func (svc *Service) Students(ctx context.Context) ([]student.Student, error) {
	return svc.store.GetAll(ctx)
}

// Stats recomputes the dashboard aggregates from current store contents.
func (svc *Service) Stats(ctx context.Context) (student.DashboardStats, error) {
	students, err := svc.store.GetAll(ctx)
	if err != nil {
		return student.DashboardStats{}, err
	}
	return student.ComputeDashboardStats(students, svc.now()), nil
}

// CreateStudent enrolls a new student and persists the collection.
func (svc *Service) CreateStudent(ctx context.Context, input student.NewStudentInput) (student.Student, error) {
	record, err := student.New(input, svc.now, svc.newID)
	if err != nil {
		return student.Student{}, err
	}
	if err := svc.store.Save(ctx, record); err != nil {
		return student.Student{}, fmt.Errorf("save student: %w", err)
	}
	svc.log.Info("student enrolled",
		zap.String("student_id", record.ID),
		zap.String("frequency", string(record.FeeFrequency)))
	return record, nil
}

// UpdateStudent applies an edit to an existing student. Historical payments
// and the enrollment date are never modified.
func (svc *Service) UpdateStudent(ctx context.Context, studentID string, input student.UpdateStudentInput) (student.Student, error) {
	record, err := svc.getByID(ctx, studentID)
	if err != nil {
		return student.Student{}, err
	}
	if err := record.ApplyUpdate(input); err != nil {
		return student.Student{}, err
	}
	if err := svc.store.Save(ctx, record); err != nil {
		return student.Student{}, fmt.Errorf("save student: %w", err)
	}
	svc.log.Info("student updated", zap.String("student_id", record.ID))
	return record, nil
}

// DeleteStudent removes a student; the embedded payments go with the record,
// so no orphan payments can exist.
func (svc *Service) DeleteStudent(ctx context.Context, studentID string) error {
	if err := svc.store.Delete(ctx, studentID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	svc.log.Info("student deleted", zap.String("student_id", studentID))
	return nil
}

// AddPaymentInput describes one payment to record. NextDueDate is supplied
// by the caller; the ledger performs no date arithmetic and does not check
// that the new date follows the previous one.
type AddPaymentInput struct {
	StudentID   string
	Amount      float64
	NextDueDate time.Time
	Notes       string
}

// AddPayment appends exactly one payment to the student's ledger, stamps it
// with the current instant, and advances the student's next due date to the
// supplied value. An unknown student id returns storage.ErrNotFound and
// writes nothing.
func (svc *Service) AddPayment(ctx context.Context, input AddPaymentInput) (student.Student, error) {
	if strings.TrimSpace(input.StudentID) == "" {
		return student.Student{}, storage.ErrNotFound
	}
	if input.Amount <= 0 {
		return student.Student{}, perrors.New(perrors.CodePaymentInvalidAmount, "payment amount must be positive")
	}
	if input.NextDueDate.IsZero() {
		return student.Student{}, perrors.New(perrors.CodeStudentInvalidInput, "next due date is required")
	}

	record, err := svc.getByID(ctx, input.StudentID)
	if err != nil {
		return student.Student{}, err
	}

	paymentID, err := svc.newID()
	if err != nil {
		return student.Student{}, fmt.Errorf("generate payment id: %w", err)
	}
	payment := student.Payment{
		ID:     paymentID,
		Amount: input.Amount,
		Date:   svc.now().UTC(),
		Notes:  strings.TrimSpace(input.Notes),
	}

	record.Payments = append(record.Payments, payment)
	record.NextDueDate = input.NextDueDate

	if err := svc.store.Save(ctx, record); err != nil {
		return student.Student{}, fmt.Errorf("save student: %w", err)
	}
	svc.log.Info("payment recorded",
		zap.String("student_id", record.ID),
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", payment.Amount))
	return record, nil
}

func (svc *Service) getByID(ctx context.Context, studentID string) (student.Student, error) {
	students, err := svc.store.GetAll(ctx)
	if err != nil {
		return student.Student{}, err
	}
	for _, record := range students {
		if record.ID == studentID {
			return record, nil
		}
	}
	return student.Student{}, storage.ErrNotFound
}
