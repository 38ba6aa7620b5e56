package builds_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"k8s.io/utils/ptr"

	"github.com/sessionforge/build-orchestrator/api/controllers/builds"
	"github.com/sessionforge/build-orchestrator/api/handlers/builds/mock"
	"github.com/sessionforge/build-orchestrator/internal/test"
	"github.com/sessionforge/build-orchestrator/models"
	models_common "github.com/sessionforge/build-orchestrator/models/common"
	apierrors "github.com/sessionforge/build-orchestrator/pkg/errors"
)

func setupTest(t *testing.T) (*test.ControllerTestUtils, *mock.MockBuildHandler) {
	ctrl := gomock.NewController(t)
	handler := mock.NewMockBuildHandler(ctrl)
	controllerTestUtils := test.NewControllerTestUtils(builds.New(handler))
	return &controllerTestUtils, handler
}

func inProgressBuild(id string) *models.Build {
	return &models.Build{
		ID:            id,
		EnvironmentID: "env-1",
		Created:       time.Now(),
		Status:        models.BuildStatusInProgress,
	}
}

func TestTriggerBuild_Created(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		TriggerBuild(test.RequestContextMatcher{}, "env-1").
		Return(inProgressBuild("build-1"), nil).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodPost, "/api/v1/environments/env-1/builds")
	response := <-responseChan
	assert.Equal(t, http.StatusCreated, response.StatusCode)

	var returned models.Build
	require.NoError(t, test.GetResponseBody(response, &returned))
	assert.Equal(t, "build-1", returned.ID)
	assert.Equal(t, models.BuildStatusInProgress, returned.Status)
}

func TestTriggerBuild_EnvironmentNotFound(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		TriggerBuild(test.RequestContextMatcher{}, "missing").
		Return(nil, apierrors.NewNotFound("environment", "missing")).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodPost, "/api/v1/environments/missing/builds")
	response := <-responseChan
	assert.Equal(t, http.StatusNotFound, response.StatusCode)

	var status models_common.Status
	require.NoError(t, test.GetResponseBody(response, &status))
	assert.Equal(t, models_common.StatusReasonNotFound, status.Reason)
}

func TestGetBuild_Ok(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		GetBuild(test.RequestContextMatcher{}, "build-1").
		Return(inProgressBuild("build-1"), nil).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/builds/build-1")
	response := <-responseChan
	assert.Equal(t, http.StatusOK, response.StatusCode)
}

func TestGetBuild_DegradedBackendIsUnavailable(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		GetBuild(test.RequestContextMatcher{}, "build-1").
		Return(nil, &apierrors.CacheError{Err: assert.AnError}).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/builds/build-1")
	response := <-responseChan
	assert.Equal(t, http.StatusServiceUnavailable, response.StatusCode)
}

func TestGetBuilds_Ok(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		ListBuilds(test.RequestContextMatcher{}, "env-1").
		Return([]models.Build{*inProgressBuild("build-1"), *inProgressBuild("build-2")}, nil).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/environments/env-1/builds")
	response := <-responseChan
	assert.Equal(t, http.StatusOK, response.StatusCode)

	var returned models.BuildList
	require.NoError(t, test.GetResponseBody(response, &returned))
	assert.Len(t, returned.Builds, 2)
}

func TestPatchBuild_Cancel(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	cancelled := inProgressBuild("build-1")
	cancelled.Status = models.BuildStatusCancelled
	handler.EXPECT().
		CancelBuild(test.RequestContextMatcher{}, "build-1").
		Return(cancelled, nil).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequestWithBody(context.Background(), http.MethodPatch, "/api/v1/builds/build-1",
		models.BuildPatch{Status: models.BuildStatusCancelled})
	response := <-responseChan
	assert.Equal(t, http.StatusOK, response.StatusCode)

	var returned models.Build
	require.NoError(t, test.GetResponseBody(response, &returned))
	assert.Equal(t, models.BuildStatusCancelled, returned.Status)
}

func TestPatchBuild_OnlyCancellationIsSupported(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().CancelBuild(gomock.Any(), gomock.Any()).Times(0)

	responseChan := controllerTestUtils.ExecuteRequestWithBody(context.Background(), http.MethodPatch, "/api/v1/builds/build-1",
		models.BuildPatch{Status: models.BuildStatusSucceeded})
	response := <-responseChan
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestPatchBuild_EmptyBodyIsBadRequest(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().CancelBuild(gomock.Any(), gomock.Any()).Times(0)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodPatch, "/api/v1/builds/build-1")
	response := <-responseChan
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestPatchBuild_TerminalBuildIsUnprocessable(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		CancelBuild(test.RequestContextMatcher{}, "build-1").
		Return(nil, apierrors.NewInvalidWithReason("build-1", "build is already succeeded")).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequestWithBody(context.Background(), http.MethodPatch, "/api/v1/builds/build-1",
		models.BuildPatch{Status: models.BuildStatusCancelled})
	response := <-responseChan
	assert.Equal(t, http.StatusUnprocessableEntity, response.StatusCode)
}

func TestGetBuildLogs_DefaultTail(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		GetBuildLogs(test.RequestContextMatcher{}, "build-1", gomock.Nil()).
		Return(&models.BuildLogs{Logs: map[string]string{"step-build-and-push": "exporting layers"}}, nil).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/builds/build-1/logs")
	response := <-responseChan
	assert.Equal(t, http.StatusOK, response.StatusCode)

	var returned models.BuildLogs
	require.NoError(t, test.GetResponseBody(response, &returned))
	assert.Contains(t, returned.Logs, "step-build-and-push")
}

func TestGetBuildLogs_MaxLinesIsForwarded(t *testing.T) {
	controllerTestUtils, handler := setupTest(t)
	handler.EXPECT().
		GetBuildLogs(test.RequestContextMatcher{}, "build-1", gomock.Eq(ptr.To(int64(25)))).
		Return(&models.BuildLogs{Logs: map[string]string{}}, nil).
		Times(1)

	responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/builds/build-1/logs?max_lines=25")
	response := <-responseChan
	assert.Equal(t, http.StatusOK, response.StatusCode)
}

func TestGetBuildLogs_InvalidMaxLines(t *testing.T) {
	for _, raw := range []string{"zero", "-1", "0"} {
		t.Run(raw, func(t *testing.T) {
			controllerTestUtils, handler := setupTest(t)
			handler.EXPECT().GetBuildLogs(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			responseChan := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/builds/build-1/logs?max_lines="+raw)
			response := <-responseChan
			assert.Equal(t, http.StatusBadRequest, response.StatusCode)
		})
	}
}
