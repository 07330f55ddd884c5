package usecases

import (
	"proyecto_reservas/internal/entities"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minDateLength  = 8 // fits YYYY-MM-DD and shorter forms like 10/01/26
	minNameLength  = 2
	minPhoneLength = 6

	// Upper bounds follow the reservations table columns.
	maxShortLength = 64
	maxNameLength  = 255
	maxPeople      = 1000
)

// ValidateField checks input against the rule of the given field and returns
// the value to store.
func ValidateField(field, input string) (string, error) {
	value := strings.TrimSpace(input)
	switch field {
	case entities.FieldDate:
		if value == "" {
			return "", &entities.ValidationError{Field: field, Reason: "empty"}
		}
		if utf8.RuneCountInString(value) < minDateLength {
			return "", &entities.ValidationError{Field: field, Reason: "too short"}
		}
		if utf8.RuneCountInString(value) > maxShortLength {
			return "", &entities.ValidationError{Field: field, Reason: "too long"}
		}
	case entities.FieldTime:
		if !strings.Contains(value, ":") {
			return "", &entities.ValidationError{Field: field, Reason: "missing ':' separator"}
		}
		if utf8.RuneCountInString(value) > maxShortLength {
			return "", &entities.ValidationError{Field: field, Reason: "too long"}
		}
	case entities.FieldPeople:
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", &entities.ValidationError{Field: field, Reason: "not a number"}
		}
		if n <= 0 {
			return "", &entities.ValidationError{Field: field, Reason: "must be positive"}
		}
		if n > maxPeople {
			return "", &entities.ValidationError{Field: field, Reason: "too many"}
		}
		value = strconv.Itoa(n)
	case entities.FieldName:
		if utf8.RuneCountInString(value) < minNameLength {
			return "", &entities.ValidationError{Field: field, Reason: "too short"}
		}
		if utf8.RuneCountInString(value) > maxNameLength {
			return "", &entities.ValidationError{Field: field, Reason: "too long"}
		}
	case entities.FieldPhone:
		compact := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, value)
		if utf8.RuneCountInString(compact) < minPhoneLength {
			return "", &entities.ValidationError{Field: field, Reason: "too short"}
		}
		if utf8.RuneCountInString(value) > maxShortLength {
			return "", &entities.ValidationError{Field: field, Reason: "too long"}
		}
	default:
		return "", &entities.ValidationError{Field: field, Reason: "unknown field"}
	}
	return value, nil
}
