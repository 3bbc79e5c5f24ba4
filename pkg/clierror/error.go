// Package clierror provides structured errors for CLI output with codes,
// exit codes, and remediation hints.
package clierror

import (
	"encoding/json"
	"fmt"
	"os"
)

// Exit codes for teactl commands.
const (
	ExitSuccess    = 0 // Operation completed successfully
	ExitGeneral    = 1 // Unknown/unhandled error
	ExitAuth       = 2 // Not authenticated, login failed, token expired
	ExitForbidden  = 3 // Authority rejected an action the client allowed
	ExitNotFound   = 4 // Resource doesn't exist
	ExitValidation = 5 // Input rejected before any network call
)

// Error codes (strings) for programmatic error handling.
const (
	CodeAuthFailed       = "AUTH_FAILED"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeNotAuthorized    = "NOT_AUTHORIZED"
	CodeTeaNotFound      = "TEA_NOT_FOUND"
	CodeAlreadyRated     = "ALREADY_RATED"
	CodeInvalidScore     = "INVALID_SCORE"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// CLIError represents a structured error for CLI output.
type CLIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable"`
	ExitCode  int    `json:"-"` // Not serialized, used for os.Exit
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// AuthFailed creates an error for a rejected login or register attempt.
// The message comes from the authority where available.
func AuthFailed(message string) *CLIError {
	if message == "" {
		message = "authentication failed"
	}
	return &CLIError{
		Code:      CodeAuthFailed,
		Message:   message,
		Hint:      "Check your username and password",
		Retryable: true,
		ExitCode:  ExitAuth,
	}
}

// NotAuthenticated creates an error for commands that require a session.
func NotAuthenticated() *CLIError {
	return &CLIError{
		Code:      CodeNotAuthenticated,
		Message:   "not logged in",
		Hint:      "Run 'teactl login' first",
		Retryable: false,
		ExitCode:  ExitAuth,
	}
}

// NotAuthorized creates an error for a Forbidden verdict from the authority.
// Distinct from generic failure so the user understands it is a permissions
// issue, not a transient one.
func NotAuthorized(action string) *CLIError {
	return &CLIError{
		Code:      CodeNotAuthorized,
		Message:   fmt.Sprintf("not enough permissions to %s", action),
		Hint:      "Only the tea's creator or an admin can do this",
		Retryable: false,
		ExitCode:  ExitForbidden,
	}
}

// TeaNotFound creates an error when a tea doesn't exist.
func TeaNotFound(id string) *CLIError {
	return &CLIError{
		Code:      CodeTeaNotFound,
		Message:   fmt.Sprintf("tea '%s' not found", id),
		Hint:      "Check the id with 'teactl tea list'",
		Retryable: false,
		ExitCode:  ExitNotFound,
	}
}

// AlreadyRated creates an error for a repeat rating attempt.
func AlreadyRated(id string) *CLIError {
	return &CLIError{
		Code:      CodeAlreadyRated,
		Message:   fmt.Sprintf("you have already rated tea '%s'", id),
		Hint:      "Ratings cannot be changed once submitted",
		Retryable: false,
		ExitCode:  ExitValidation,
	}
}

// InvalidScore creates an error for a score outside 1..5.
func InvalidScore(score int) *CLIError {
	return &CLIError{
		Code:      CodeInvalidScore,
		Message:   fmt.Sprintf("score %d is out of range", score),
		Hint:      "Scores must be between 1 and 5",
		Retryable: false,
		ExitCode:  ExitValidation,
	}
}

// ConnectionFailed creates an error for connection failures.
func ConnectionFailed(target string) *CLIError {
	return &CLIError{
		Code:      CodeConnectionFailed,
		Message:   fmt.Sprintf("failed to connect to '%s'", target),
		Hint:      "Check network connectivity and the server URL",
		Retryable: true,
		ExitCode:  ExitGeneral,
	}
}

// InternalError creates an error for unexpected internal errors.
func InternalError(err error) *CLIError {
	msg := "an unexpected internal error occurred"
	if err != nil {
		msg = fmt.Sprintf("internal error: %s", err.Error())
	}
	return &CLIError{
		Code:      CodeInternalError,
		Message:   msg,
		Retryable: false,
		ExitCode:  ExitGeneral,
	}
}

// FormatError returns the error formatted for the given output format.
// Supported formats: "json" for JSON output, anything else for
// human-readable output.
func FormatError(err *CLIError, outputFormat string) string {
	if outputFormat == "json" {
		data, jsonErr := json.MarshalIndent(err, "", "  ")
		if jsonErr != nil {
			return fmt.Sprintf(`{"code":%q,"message":%q}`, err.Code, err.Message)
		}
		return string(data)
	}

	output := fmt.Sprintf("Error [%s]: %s", err.Code, err.Message)
	if err.Hint != "" {
		output += fmt.Sprintf("\nHint: %s", err.Hint)
	}
	return output
}

// PrintError prints the error to stderr in the appropriate format.
func PrintError(err *CLIError, outputFormat string) {
	fmt.Fprintln(os.Stderr, FormatError(err, outputFormat))
}
