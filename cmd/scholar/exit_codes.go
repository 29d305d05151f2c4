package main

import (
	"errors"

	scholar "github.com/alnah/go-scholar"
)

// Exit codes for the scholar CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // Stage, settings, config or I/O failure
	ExitUsage   = 2 // Invalid flags, arguments or input path
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrConflictingModes) ||
		errors.Is(err, scholar.ErrInvalidInput) ||
		errors.Is(err, scholar.ErrInvalidMode) {
		return ExitUsage
	}

	return ExitGeneral
}
