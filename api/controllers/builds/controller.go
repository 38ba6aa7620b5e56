package builds

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sessionforge/build-orchestrator/api/controllers"
	handlers "github.com/sessionforge/build-orchestrator/api/handlers/builds"
	"github.com/sessionforge/build-orchestrator/models"
	apiErrors "github.com/sessionforge/build-orchestrator/pkg/errors"
)

const (
	environmentIDParam = "environmentId"
	buildIDParam       = "buildId"
	maxLinesQueryParam = "max_lines"
)

type buildController struct {
	*controllers.ControllerBase
	handler handlers.BuildHandler
}

// New create a new build controller
func New(handler handlers.BuildHandler) controllers.Controller {
	return &buildController{
		handler: handler,
	}
}

// GetRoutes List the supported routes of this controller
func (controller *buildController) GetRoutes() []controllers.Route {
	routes := []controllers.Route{
		{
			Path:    fmt.Sprintf("/environments/:%s/builds", environmentIDParam),
			Method:  http.MethodPost,
			Handler: controller.TriggerBuild,
		},
		{
			Path:    fmt.Sprintf("/environments/:%s/builds", environmentIDParam),
			Method:  http.MethodGet,
			Handler: controller.GetBuilds,
		},
		{
			Path:    fmt.Sprintf("/builds/:%s", buildIDParam),
			Method:  http.MethodGet,
			Handler: controller.GetBuild,
		},
		{
			Path:    fmt.Sprintf("/builds/:%s", buildIDParam),
			Method:  http.MethodPatch,
			Handler: controller.PatchBuild,
		},
		{
			Path:    fmt.Sprintf("/builds/:%s/logs", buildIDParam),
			Method:  http.MethodGet,
			Handler: controller.GetBuildLogs,
		},
	}
	return routes
}

// TriggerBuild Trigger a build for an environment
func (controller *buildController) TriggerBuild(c *gin.Context) {
	// swagger:operation POST /environments/{environmentId}/builds Build triggerBuild
	// ---
	// summary: Trigger build
	// parameters:
	// - name: environmentId
	//   in: path
	//   description: Id of the environment
	//   type: string
	//   required: true
	//
	// responses:
	//	 "201":
	//	   description: "Build accepted"
	//	   schema:
	//	     "$ref": "#/definitions/Build"
	//	 "404":
	//	   description: "Not found"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "422":
	//	   description: "Invalid data in request"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "500":
	//	   description: "Internal server error"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	environmentID := c.Param(environmentIDParam)
	logger := log.Ctx(c.Request.Context())
	logger.Info().Msgf("Trigger build for environment %s", environmentID)

	build, err := controller.handler.TriggerBuild(c.Request.Context(), environmentID)
	if err != nil {
		controller.HandleError(c, err)
		return
	}

	logger.Info().Msgf("Build %s has been created", build.ID)
	c.JSON(http.StatusCreated, build)
}

// GetBuilds Get all builds of an environment
func (controller *buildController) GetBuilds(c *gin.Context) {
	// swagger:operation GET /environments/{environmentId}/builds Build getBuilds
	// ---
	// summary: Gets builds
	// parameters:
	// - name: environmentId
	//   in: path
	//   description: Id of the environment
	//   type: string
	//   required: true
	//
	// responses:
	//	 "200":
	//	   description: "Successful get builds"
	//	   schema:
	//	     "$ref": "#/definitions/BuildList"
	//	 "404":
	//	   description: "Not found"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "500":
	//	   description: "Internal server error"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	environmentID := c.Param(environmentIDParam)
	logger := log.Ctx(c.Request.Context())
	logger.Info().Msgf("Get builds for environment %s", environmentID)

	builds, err := controller.handler.ListBuilds(c.Request.Context(), environmentID)
	if err != nil {
		controller.HandleError(c, err)
		return
	}
	logger.Debug().Msgf("Found %d builds", len(builds))
	c.JSON(http.StatusOK, models.BuildList{Builds: builds})
}

// GetBuild Gets build
func (controller *buildController) GetBuild(c *gin.Context) {
	// swagger:operation GET /builds/{buildId} Build getBuild
	// ---
	// summary: Gets build
	// parameters:
	// - name: buildId
	//   in: path
	//   description: Id of the build
	//   type: string
	//   required: true
	//
	// responses:
	//	 "200":
	//	   description: "Successful get build"
	//	   schema:
	//	     "$ref": "#/definitions/Build"
	//	 "404":
	//	   description: "Not found"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "503":
	//	   description: "Temporarily unavailable"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	buildID := c.Param(buildIDParam)
	logger := log.Ctx(c.Request.Context())
	logger.Info().Msgf("Get build %s", buildID)

	build, err := controller.handler.GetBuild(c.Request.Context(), buildID)
	if err != nil {
		controller.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, build)
}

// PatchBuild Patch build; only cancellation is supported
func (controller *buildController) PatchBuild(c *gin.Context) {
	// swagger:operation PATCH /builds/{buildId} Build patchBuild
	// ---
	// summary: Patch build
	// parameters:
	// - name: buildId
	//   in: path
	//   description: Id of the build
	//   type: string
	//   required: true
	// - name: buildPatch
	//   in: body
	//   description: Patch to apply
	//   required: true
	//   schema:
	//   	 "$ref": "#/definitions/BuildPatch"
	//
	// responses:
	//	 "200":
	//	   description: "Build cancelled"
	//	   schema:
	//	     "$ref": "#/definitions/Build"
	//	 "400":
	//	   description: "Bad request"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "404":
	//	   description: "Not found"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "422":
	//	   description: "Invalid data in request"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "500":
	//	   description: "Internal server error"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	buildID := c.Param(buildIDParam)
	logger := log.Ctx(c.Request.Context())
	logger.Info().Msgf("Patch build %s", buildID)

	var patch models.BuildPatch
	if body, _ := io.ReadAll(c.Request.Body); len(body) > 0 {
		if err := json.Unmarshal(body, &patch); err != nil {
			_ = c.Error(err)
			controller.HandleError(c, apiErrors.NewInvalidWithReason("payload", "invalid JSON"))
			return
		}
	}
	if patch.Status != models.BuildStatusCancelled {
		controller.HandleError(c, apiErrors.NewBadRequest(fmt.Sprintf("only status %s can be requested", models.BuildStatusCancelled)))
		return
	}

	build, err := controller.handler.CancelBuild(c.Request.Context(), buildID)
	if err != nil {
		controller.HandleError(c, err)
		return
	}

	logger.Info().Msgf("Build %s has been cancelled", buildID)
	c.JSON(http.StatusOK, build)
}

// GetBuildLogs Gets build logs
func (controller *buildController) GetBuildLogs(c *gin.Context) {
	// swagger:operation GET /builds/{buildId}/logs Build getBuildLogs
	// ---
	// summary: Gets build logs
	// parameters:
	// - name: buildId
	//   in: path
	//   description: Id of the build
	//   type: string
	//   required: true
	// - name: max_lines
	//   in: query
	//   description: Maximum number of log lines per container
	//   type: integer
	//   required: false
	//
	// responses:
	//	 "200":
	//	   description: "Successful get build logs"
	//	   schema:
	//	     "$ref": "#/definitions/BuildLogs"
	//	 "400":
	//	   description: "Bad request"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "404":
	//	   description: "Not found"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	//	 "500":
	//	   description: "Internal server error"
	//	   schema:
	//	     "$ref": "#/definitions/Status"
	buildID := c.Param(buildIDParam)
	logger := log.Ctx(c.Request.Context())
	logger.Info().Msgf("Get logs of build %s", buildID)

	var maxLines *int64
	if raw := c.Query(maxLinesQueryParam); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			controller.HandleError(c, apiErrors.NewBadRequest(fmt.Sprintf("%s must be a positive integer", maxLinesQueryParam)))
			return
		}
		maxLines = &parsed
	}

	buildLogs, err := controller.handler.GetBuildLogs(c.Request.Context(), buildID, maxLines)
	if err != nil {
		controller.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildLogs)
}
