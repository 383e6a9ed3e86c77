package errors

import (
	"context"
	"errors"
)

// exitCodeMap maps error codes to process exit statuses for the CLI.
var exitCodeMap = map[string]int{
	CodeInternal:               1,
	CodeValidation:             2,
	CodeNotFound:               3,
	CodeUnauthorized:           4,
	CodeAuthFailed:             4,
	CodeTimeout:                5,
	CodeUnavailable:            6,
	CodeFetchFailed:            7,
	CodePersistenceUnavailable: 8,
	CodeSelectionLimitReached:  9,
}

// ExitCode returns the exit status for an error. A nil error exits 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	if status, ok := exitCodeMap[Code(err)]; ok {
		return status
	}
	return 1
}

// UserMessage returns the text shown to a user for an error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "An unexpected error occurred"
	}

	switch appErr.Code {
	case CodeFetchFailed:
		return "Failed to load cars. Please try again."
	case CodeSelectionLimitReached:
		return "Compare Limit: " + appErr.Message
	case CodeInternal:
		return "An unexpected error occurred"
	}
	return appErr.Message
}
