package main

import (
	"errors"
	"fmt"

	"github.com/ochairo/ctkrunner/internal/domain/services"
)

// Exit codes for CLI commands
const (
	exitSuccess      = 0 // Successful execution
	exitFailure      = 1 // Command failed (bad config, unreadable input, ...)
	exitCommandError = 2 // Run aborted by a fatal condition
)

// exitError carries the process exit code of a failed command
type exitError struct {
	Code    int
	Message string
	Err     error
}

func (e *exitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *exitError) Unwrap() error {
	return e.Err
}

func wrapExitError(code int, message string, err error) *exitError {
	return &exitError{Code: code, Message: message, Err: err}
}

// wrapRunError classifies an orchestrator error
func wrapRunError(message string, err error) *exitError {
	if services.IsFatal(err) {
		return wrapExitError(exitCommandError, message, err)
	}
	return wrapExitError(exitFailure, message, err)
}

// getExitCode extracts the exit code from an error; plain errors map to exitFailure
func getExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if services.IsFatal(err) {
		return exitCommandError
	}
	return exitFailure
}
