package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrChildNotFound    = errors.New("child not found")
	ErrWordListNotFound = errors.New("word list not found")
	ErrWordNotFound     = errors.New("word not found")
	ErrFontNotFound     = errors.New("font not found")
)

// ValidationError reports a request that was rejected before any change
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

func validateMonth(field string, month *int) error {
	if month != nil && (*month < 1 || *month > 12) {
		return ValidationError{Field: field, Message: "month must be between 1 and 12"}
	}
	return nil
}

func validateYear(field string, year *int) error {
	if year != nil && (*year < 1900 || *year > 2200) {
		return ValidationError{Field: field, Message: "year is out of range"}
	}
	return nil
}
