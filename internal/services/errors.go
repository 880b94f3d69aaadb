package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = repositories.ErrNotFound
	// ErrForbidden is returned when the actor does not own the resource.
	ErrForbidden = errors.New("actor is not allowed to act on this resource")
	// ErrEmptyCart is returned by checkout when the cart has no entries.
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func newValidationError(message string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// fromValidator converts validator field errors into a ValidationError.
func fromValidator(message string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newValidationError(message, map[string]string{"_": err.Error()})
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			fields[field] = fe.Tag() + "=" + fe.Param()
		} else {
			fields[field] = fe.Tag()
		}
	}
	return newValidationError(message, fields)
}

// PersistenceError is a storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// TransitionError is an illegal or raced status change. Current is the
// order's status as last read.
type TransitionError struct {
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
	Role    models.ActorRole
	Current models.OrderStatus
	Err     error
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("order %s: %s may not move %s -> %s", e.OrderID, e.Role, e.From, e.To)
	if e.Current != e.From {
		msg += fmt.Sprintf(" (current status %s)", e.Current)
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return e.Err }
