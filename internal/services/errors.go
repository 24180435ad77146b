package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common service errors. Handlers match these with errors.Is to pick
// transport codes; no string matching anywhere.
var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrInvalidState = errors.New("invalid state transition")
	ErrDuplicate    = errors.New("duplicate record")

	// Validation failed before any persistence; never retried.
	ErrValidation = errors.New("invalid input")

	// No applicable rule and no direct manager; the expense is left unsubmitted.
	ErrUnroutableExpense = errors.New("expense cannot be routed")

	// Workflow/state errors, surfaced verbatim with no partial mutation.
	ErrNotEligibleApprover = errors.New("user is not an eligible approver for this expense")
	ErrOutOfOrderApproval  = errors.New("a lower approval level is still outstanding")
	ErrAlreadyResolved     = errors.New("approval at this level is already resolved")
	ErrExpenseFinalized    = errors.New("expense already reached a terminal state")

	// Transient storage failure; callers may retry with backoff. The engine
	// itself never retries.
	ErrStorageUnavailable = errors.New("storage temporarily unavailable")
)

// validationError wraps ErrValidation with a caller-facing reason
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// wrapStorageErr classifies repository failures: timeouts, cancellation and
// connection-level Postgres errors become ErrStorageUnavailable so the
// boundary layer can distinguish transient faults from domain errors.
func wrapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions, class 57: operator intervention
		// (e.g. shutdown), 40001/40P01: serialization/deadlock — all retryable.
		switch {
		case len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57"),
			pgErr.Code == "40001", pgErr.Code == "40P01":
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	return err
}

// isDomainErr reports whether err is one of the typed engine errors that
// must pass through wrapStorageErr untouched.
func isDomainErr(err error) bool {
	for _, domain := range []error{
		ErrNotFound, ErrUnauthorized, ErrInvalidState, ErrDuplicate,
		ErrValidation, ErrUnroutableExpense, ErrNotEligibleApprover,
		ErrOutOfOrderApproval, ErrAlreadyResolved, ErrExpenseFinalized,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
