package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sessionforge/build-orchestrator/models"
	apierrors "github.com/sessionforge/build-orchestrator/pkg/errors"
)

var (
	nrBuildsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "build_orchestrator_builds_triggered",
		Help: "The total number of builds triggered",
	})
	nrBuildsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "build_orchestrator_builds_completed",
		Help: "The total number of builds reaching a terminal state",
	}, []string{"status"})
	nrErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "build_orchestrator_errors",
		Help: "The total number of build orchestrator errors",
	}, []string{"err_reason", "method"})
)

// BuildTriggered counts one accepted build trigger.
func BuildTriggered() {
	nrBuildsTriggered.Inc()
}

// BuildCompleted counts one build reaching the given terminal status.
func BuildCompleted(status models.BuildStatus) {
	nrBuildsCompleted.With(prometheus.Labels{"status": string(status)}).Inc()
}

// OperationError counts one failed operation by its mapped error reason.
func OperationError(method string, err error) {
	nrErrors.With(prometheus.Labels{
		"err_reason": string(apierrors.ReasonForError(err)),
		"method":     method,
	}).Inc()
}
