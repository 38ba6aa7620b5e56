// Package errors defines the typed error taxonomy of the build orchestrator
// and its mapping to HTTP status responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	models "github.com/sessionforge/build-orchestrator/models/common"
)

// CannotStartBuildError means submitting a Build/BuildRun, or confirming its
// visibility after creation, failed. The trigger attempt is lost.
type CannotStartBuildError struct {
	Name string
	Err  error
}

func (e *CannotStartBuildError) Error() string {
	return fmt.Sprintf("cannot start build %s: %v", e.Name, e.Err)
}

func (e *CannotStartBuildError) Unwrap() error { return e.Err }

// DeleteBuildError means a cluster deletion request failed, i.e. a cancellation
// or teardown did not fully succeed.
type DeleteBuildError struct {
	Kind string
	Name string
	Err  error
}

func (e *DeleteBuildError) Error() string {
	return fmt.Sprintf("failed to delete %s %s: %v", e.Kind, e.Name, e.Err)
}

func (e *DeleteBuildError) Unwrap() error { return e.Err }

// CacheError means the watch-cache itself is unreachable or erroring. It is a
// transient infrastructure condition, explicitly distinct from "not found".
type CacheError struct {
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("build run cache unavailable: %v", e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// IntermittentError is an ambiguous cluster API failure that could not be
// classified as a confirmed absence. Callers may retry.
type IntermittentError struct {
	Err error
}

func (e *IntermittentError) Error() string {
	return fmt.Sprintf("intermittent cluster error: %v", e.Err)
}

func (e *IntermittentError) Unwrap() error { return e.Err }

// ProgrammingError signals a violated invariant, e.g. multiple cache entries
// for a single name. It indicates a defect, not a recoverable condition.
type ProgrammingError struct {
	Message string
}

func (e *ProgrammingError) Error() string { return e.Message }

// APIStatus is implemented by errors carrying a client-visible Status.
type APIStatus interface {
	Status() *models.Status
}

// StatusError wraps a Status into an error for the REST layer.
type StatusError struct {
	ErrStatus models.Status
}

var _ error = &StatusError{}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return e.ErrStatus.Message
}

// Status returns the client-visible status of the error.
func (e *StatusError) Status() *models.Status {
	return &e.ErrStatus
}

func NotFoundMessage(kind, name string) string {
	return fmt.Sprintf("%s %s not found", kind, name)
}

func InvalidMessage(name, reason string) string {
	message := fmt.Sprintf("%s is invalid", name)
	if len(reason) > 0 {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return message
}

func NewBadRequest(message string) *StatusError {
	return &StatusError{
		models.Status{
			Status:  models.StatusFailure,
			Reason:  models.StatusReasonBadRequest,
			Code:    http.StatusBadRequest,
			Message: message,
		},
	}
}

func NewNotFound(kind, name string) *StatusError {
	return &StatusError{
		models.Status{
			Status:  models.StatusFailure,
			Reason:  models.StatusReasonNotFound,
			Code:    http.StatusNotFound,
			Message: NotFoundMessage(kind, name),
		},
	}
}

func NewInvalidWithReason(name, reason string) *StatusError {
	return &StatusError{
		models.Status{
			Status:  models.StatusFailure,
			Reason:  models.StatusReasonInvalid,
			Code:    http.StatusUnprocessableEntity,
			Message: InvalidMessage(name, reason),
		},
	}
}

func NewUnavailable(message string) *StatusError {
	return &StatusError{
		models.Status{
			Status:  models.StatusFailure,
			Reason:  models.StatusReasonUnavailable,
			Code:    http.StatusServiceUnavailable,
			Message: message,
		},
	}
}

func NewUnknown(err error) *StatusError {
	return &StatusError{
		models.Status{
			Status:  models.StatusFailure,
			Reason:  models.StatusReasonUnknown,
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		},
	}
}

// NewFromError maps a domain error to its client-visible status. A degraded
// cache or an ambiguous cluster failure is a retryable server condition and is
// never reported as "not found".
func NewFromError(err error) *StatusError {
	var (
		statusErr       *StatusError
		cacheErr        *CacheError
		intermittentErr *IntermittentError
		startErr        *CannotStartBuildError
		deleteErr       *DeleteBuildError
	)
	switch {
	case errors.As(err, &statusErr):
		return statusErr
	case errors.As(err, &cacheErr):
		return NewUnavailable(cacheErr.Error())
	case errors.As(err, &intermittentErr):
		return NewUnavailable(intermittentErr.Error())
	case errors.As(err, &startErr), errors.As(err, &deleteErr):
		return NewUnknown(err)
	default:
		return NewUnknown(err)
	}
}

// ReasonForError returns the machine-readable reason an error maps to.
func ReasonForError(err error) models.StatusReason {
	var apiStatus APIStatus
	if errors.As(err, &apiStatus) {
		return apiStatus.Status().Reason
	}
	return NewFromError(err).Status().Reason
}
