// Package clierr defines structured error types for CLI commands and HTTP
// responses. Errors carry a machine-readable code, a human-readable
// message, and optional details for agent consumption.
package clierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/enrich"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// Error code constants: uppercase, underscore-separated, stable across minor versions.
const (
	StoreNotFound  = "STORE_NOT_FOUND"
	StoreMalformed = "STORE_MALFORMED"
	TaskNotFound   = "TASK_NOT_FOUND"
	DirNotFound    = "DIR_NOT_FOUND"
	NotARepository = "NOT_A_REPOSITORY"
	InvalidCommit  = "INVALID_COMMIT"
	CommitNotFound = "COMMIT_NOT_FOUND"
	InvalidInput   = "INVALID_INPUT"
	ConfigInvalid  = "CONFIG_INVALID"
	ConfigNotFound = "CONFIG_NOT_FOUND"
	ConfigExists   = "CONFIG_EXISTS"
	InternalError  = "INTERNAL_ERROR"
)

// Error represents a structured CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
	err     error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the error the Error was classified from, if any.
func (e *Error) Unwrap() error { return e.err }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// HTTPStatus maps the code onto an HTTP status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case InvalidInput, InvalidCommit:
		return http.StatusBadRequest
	case TaskNotFound, DirNotFound, CommitNotFound, StoreNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// sentinels maps package errors onto codes.
var sentinels = []struct {
	err  error
	code string
}{
	{task.ErrStoreNotFound, StoreNotFound},
	{task.ErrStoreMalformed, StoreMalformed},
	{enrich.ErrTaskNotFound, TaskNotFound},
	{gitview.ErrDirNotFound, DirNotFound},
	{gitview.ErrNotRepository, NotARepository},
	{gitview.ErrInvalidCommit, InvalidCommit},
	{gitview.ErrCommitNotFound, CommitNotFound},
	{config.ErrInvalid, ConfigInvalid},
	{config.ErrNotFound, ConfigNotFound},
}

// From classifies err. An *Error is returned as-is; known sentinels get
// their code; anything else is an InternalError. From(nil) is nil.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return &Error{Code: s.code, Message: err.Error(), err: err}
		}
	}
	return &Error{Code: InternalError, Message: err.Error(), err: err}
}
