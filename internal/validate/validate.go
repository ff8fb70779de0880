// Package validate checks the name and count fields of a tasbih entry.
package validate

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLen = 20
	MaxCount   = 9999
)

var (
	ErrEmptyName        = errors.New("name is required")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidChars     = errors.New("name contains invalid characters")
	ErrEmptyCount       = errors.New("count is required")
	ErrNotNumeric       = errors.New("count is not numeric")
	ErrCountTooLarge    = errors.New("count too large")
	ErrCountNotPositive = errors.New("count not positive")
)

var messages = map[error]string{
	ErrEmptyName:        "Name is required",
	ErrNameTooLong:      "Name must be 20 characters or less",
	ErrInvalidChars:     "Name contains invalid characters",
	ErrEmptyCount:       "Count is required",
	ErrNotNumeric:       "Count must be a number",
	ErrCountTooLarge:    "Count must be less than 9999",
	ErrCountNotPositive: "Count must be positive",
}

// Name checks a display name.
func Name(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(s) > MaxNameLen {
		return ErrNameTooLong
	}
	if strings.ContainsAny(s, "<>{}") {
		return ErrInvalidChars
	}
	return nil
}

// Count checks a count field and returns its value.
func Count(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, ErrEmptyCount
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrNotNumeric
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// only digits reach here, so the sole failure is overflow
		return 0, ErrCountTooLarge
	}
	if n > MaxCount {
		return 0, ErrCountTooLarge
	}
	if n <= 0 {
		return 0, ErrCountNotPositive
	}
	return n, nil
}

// Entry validates both fields and reports every failure at once.
func Entry(name, count string) (int, error) {
	nameErr := Name(name)
	n, countErr := Count(count)
	if err := errors.Join(nameErr, countErr); err != nil {
		return 0, err
	}
	return n, nil
}

// Messages returns the user-facing text for each failure in err, in order.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, Messages(e)...)
		}
		return out
	}
	return []string{Message(err)}
}

// Message returns the user-facing text for a single validation failure.
func Message(err error) string {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}
