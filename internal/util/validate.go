package util

import (
	"fmt"
	"regexp"
)

// maxLabelLen is the longest label accepted, matching a DNS hostname label.
const maxLabelLen = 63

// validLabelChars matches only alphanumeric characters, hyphens, and periods.
var validLabelChars = regexp.MustCompile(`^[a-zA-Z0-9.\-]+$`)

// ValidateLabel checks that an instance label can double as its hostname:
//   - Between 1 and 63 characters
//   - Only alphanumeric characters, hyphens (-), and periods (.)
//   - First character must be alphanumeric
//   - Last character must not be a hyphen or period
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if len(label) > maxLabelLen {
		return fmt.Errorf("label must be at most %d characters, got %d", maxLabelLen, len(label))
	}

	if !validLabelChars.MatchString(label) {
		return fmt.Errorf("label %q contains invalid characters (only a-z, A-Z, 0-9, hyphens, and periods are allowed)", label)
	}

	if !isAlphanumeric(label[0]) {
		return fmt.Errorf("label must start with an alphanumeric character, got %q", string(label[0]))
	}

	last := label[len(label)-1]
	if last == '-' || last == '.' {
		return fmt.Errorf("label must not end with a hyphen or period, got %q", string(last))
	}

	return nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
