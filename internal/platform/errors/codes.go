// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Student record errors
	CodeStudentNotFound     Code = "STUDENT_NOT_FOUND"
	CodeStudentNameEmpty    Code = "STUDENT_NAME_EMPTY"
	CodeStudentInvalidInput Code = "STUDENT_INVALID_INPUT"

	// Payment errors
	CodePaymentInvalidAmount Code = "PAYMENT_INVALID_AMOUNT"

	// Backup and restore errors
	CodeBackupNotArray      Code = "BACKUP_NOT_ARRAY"
	CodeBackupRecordInvalid Code = "BACKUP_RECORD_INVALID"
	CodeBackupUnreadable    Code = "BACKUP_UNREADABLE"

	// Insight collaborator errors
	CodeInsightKeyMissing Code = "INSIGHT_KEY_MISSING"
	CodeInsightTransport  Code = "INSIGHT_TRANSPORT"

	// Storage errors
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)
