package service

import (
	"errors"
	"fmt"
)

var (
	// ErrConfirmConflict означает, что подтверждение создало бы пересечение
	// с другой подтвержденной заявкой
	ErrConfirmConflict = errors.New("confirming would conflict with another confirmed reservation")
	// ErrUnauthorized возвращается при попытке операции без прав
	ErrUnauthorized = errors.New("operation not permitted")
	// ErrPastDate заявка на прошедшую дату
	ErrPastDate = errors.New("reservation date is in the past")
	// ErrDateTooFar заявка слишком далеко в будущем
	ErrDateTooFar = errors.New("reservation date is too far ahead")
	// ErrRangeUnavailable диапазон занят на момент создания заявки
	ErrRangeUnavailable = errors.New("range is no longer available")
)

// ValidationError describes a rejected draft field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

// IsValidation reports whether err is a draft validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
