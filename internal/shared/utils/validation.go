package utils

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String length limits
const (
	MaxTerminalNameLength = 64
	MaxPathLength         = 4096
	MaxChordLength        = 64
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	if !utf8.ValidString(value) {
		return fmt.Errorf("%s is not valid UTF-8", fieldName)
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateTerminalName validates a user supplied terminal name. Control
// characters would end up in tab labels and escape sequences.
func ValidateTerminalName(name string) error {
	if err := ValidateString(name, "name", 1, MaxTerminalNameLength, true); err != nil {
		return err
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("name contains control characters")
		}
	}
	return nil
}

// ValidatePath validates an optional directory path
func ValidatePath(path, fieldName string) error {
	return ValidateString(path, fieldName, 0, MaxPathLength, false)
}

// ValidateChord validates a key chord string before parsing
func ValidateChord(chord string) error {
	return ValidateString(chord, "chord", 1, MaxChordLength, true)
}
