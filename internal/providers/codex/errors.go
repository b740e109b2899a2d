package codex

import "errors"

// Code classifies why a generation attempt failed.
type Code string

const (
	CodeTimeout       Code = "TIMEOUT"
	CodeRateLimit     Code = "RATE_LIMIT"
	CodeEmptyResponse Code = "EMPTY_RESPONSE"
	CodeSpawnError    Code = "SPAWN_ERROR"
	CodeExitError     Code = "EXIT_ERROR"
)

// Error is a classified generation failure.
type Error struct {
	Code     Code
	ExitCode int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the classification of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}
