package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput indicates a required field was absent when resolution ran.
	// Required fields are never defaulted.
	ErrMalformedInput = errors.New("malformed host fleet config")
)

// MalformedInputError lists the required fields missing from a spec.
type MalformedInputError struct {
	Fields []string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: missing required field(s): %s", ErrMalformedInput, strings.Join(e.Fields, ", "))
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
