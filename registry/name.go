package registry

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength    = 100
	invalidNameChars = `/\:*?"<>|`
)

// ValidateName checks that name can be used both as an index identifier and
// as a single directory component under the storage root.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidName, MaxNameLength)
	}

	if strings.ContainsAny(name, invalidNameChars) {
		return fmt.Errorf("%w: name must not contain any of %s", ErrInvalidName, invalidNameChars)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}

	return nil
}
