package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sessionforge/build-orchestrator/api/controllers"
)

const (
	apiVersionRoute = "/api/v1"
)

// NewServer creates the build orchestrator REST service
func NewServer(controllers ...controllers.Controller) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.RemoveExtraSlash = true
	engine.Use(zerologRequestLogger(), gin.Recovery())

	v1Router := engine.Group(apiVersionRoute)
	{
		initializeAPIServer(v1Router, controllers)
	}

	return engine
}

func initializeAPIServer(router gin.IRoutes, controllers []controllers.Controller) {
	for _, controller := range controllers {
		for _, route := range controller.GetRoutes() {
			addHandlerRoute(router, route)
		}
	}
}

func addHandlerRoute(router gin.IRoutes, route controllers.Route) {
	router.Handle(route.Method, route.Path, route.Handler)
}

// zerologRequestLogger attaches a request-scoped logger with a request id to
// the context and logs every handled request.
func zerologRequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := log.Logger.With().Str("request_id", uuid.NewString()).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Handled request")
	}
}
