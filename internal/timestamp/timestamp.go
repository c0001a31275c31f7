// Package timestamp converts between human-readable timestamp strings
// ("02:15", "1:02:15", "135") and integer seconds.
package timestamp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformed is returned by Parse for any input IsValid rejects.
var ErrMalformed = errors.New("malformed timestamp")

var (
	bareForm  = regexp.MustCompile(`^\d+$`)
	colonForm = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
)

// IsValid reports whether text is a bare non-negative integer, MM:SS, or
// HH:MM:SS. Minute and second components must be below 60; the leading
// component of the three-part form is hours and is unconstrained.
func IsValid(text string) bool {
	trimmed := strings.TrimSpace(text)

	if bareForm.MatchString(trimmed) {
		return true
	}

	if !colonForm.MatchString(trimmed) {
		return false
	}

	parts := strings.Split(trimmed, ":")
	for i, p := range parts {
		if i == 0 && len(parts) == 3 {
			continue // hours
		}
		n, err := strconv.Atoi(p)
		if err != nil || n >= 60 {
			return false
		}
	}
	return true
}

// Parse converts a timestamp string to seconds. It rejects anything IsValid
// rejects with ErrMalformed instead of coercing it to zero.
func Parse(text string) (int, error) {
	trimmed := strings.TrimSpace(text)

	if !IsValid(trimmed) {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
	}

	if bareForm.MatchString(trimmed) {
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		return n, nil
	}

	parts := strings.Split(trimmed, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		total = total*60 + n
	}
	return total, nil
}

// Format renders seconds as "MM:SS" below one hour and "H:MM:SS" above.
// Negative input is clamped to zero.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
