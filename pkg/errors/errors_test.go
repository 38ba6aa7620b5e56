package errors_test

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	models "github.com/sessionforge/build-orchestrator/models/common"
	"github.com/sessionforge/build-orchestrator/pkg/errors"
)

func TestNewFromError_StatusErrorPassesThrough(t *testing.T) {
	notFound := errors.NewNotFound("build", "build-1")
	status := errors.NewFromError(notFound).Status()
	assert.Equal(t, http.StatusNotFound, status.Code)
	assert.Equal(t, models.StatusReasonNotFound, status.Reason)
	assert.Equal(t, "build build-1 not found", status.Message)
}

func TestNewFromError_CacheErrorIsRetryableServerCondition(t *testing.T) {
	err := &errors.CacheError{Err: fmt.Errorf("connection refused")}
	status := errors.NewFromError(err).Status()
	// a degraded cache must never surface as "not found"
	assert.Equal(t, http.StatusServiceUnavailable, status.Code)
	assert.Equal(t, models.StatusReasonUnavailable, status.Reason)
}

func TestNewFromError_IntermittentErrorIsRetryableServerCondition(t *testing.T) {
	err := &errors.IntermittentError{Err: fmt.Errorf("etcdserver: request timed out")}
	status := errors.NewFromError(err).Status()
	assert.Equal(t, http.StatusServiceUnavailable, status.Code)
	assert.Equal(t, models.StatusReasonUnavailable, status.Reason)
}

func TestNewFromError_CannotStartBuildError(t *testing.T) {
	err := &errors.CannotStartBuildError{Name: "build-1", Err: fmt.Errorf("denied")}
	status := errors.NewFromError(err).Status()
	assert.Equal(t, http.StatusInternalServerError, status.Code)
	assert.Contains(t, status.Message, "cannot start build build-1")
}

func TestNewFromError_DeleteBuildError(t *testing.T) {
	err := &errors.DeleteBuildError{Kind: "BuildRun", Name: "build-1", Err: fmt.Errorf("denied")}
	status := errors.NewFromError(err).Status()
	assert.Equal(t, http.StatusInternalServerError, status.Code)
	assert.Contains(t, status.Message, "failed to delete BuildRun build-1")
}

func TestNewFromError_UnknownError(t *testing.T) {
	status := errors.NewFromError(goerrors.New("boom")).Status()
	assert.Equal(t, http.StatusInternalServerError, status.Code)
	assert.Equal(t, models.StatusReasonUnknown, status.Reason)
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	assert.ErrorIs(t, &errors.CacheError{Err: cause}, cause)
	assert.ErrorIs(t, &errors.IntermittentError{Err: cause}, cause)
	assert.ErrorIs(t, &errors.CannotStartBuildError{Name: "b", Err: cause}, cause)
	assert.ErrorIs(t, &errors.DeleteBuildError{Kind: "Build", Name: "b", Err: cause}, cause)
}

func TestReasonForError(t *testing.T) {
	assert.Equal(t, models.StatusReasonNotFound, errors.ReasonForError(errors.NewNotFound("build", "b")))
	assert.Equal(t, models.StatusReasonUnavailable, errors.ReasonForError(&errors.CacheError{Err: fmt.Errorf("down")}))
	assert.Equal(t, models.StatusReasonUnknown, errors.ReasonForError(goerrors.New("boom")))
}
