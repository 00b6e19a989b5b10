package workflow

import (
	"errors"
	"fmt"

	"github.com/wolfeidau/tokenboard/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrIllegalTransition   = errors.New("illegal transition")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidInput        = errors.New("invalid input")
)

// TransitionError explains which transition rule a request violated.
// It matches ErrIllegalTransition with errors.Is.
type TransitionError struct {
	From models.TicketStatus
	To   models.TicketStatus
	Rule string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s: %s", e.From, e.To, e.Rule)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

func illegal(from, to models.TicketStatus, rule string) error {
	return &TransitionError{From: from, To: to, Rule: rule}
}

func denied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
