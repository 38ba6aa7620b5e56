package builds

import (
	"sort"
	"sync"

	"github.com/sessionforge/build-orchestrator/models"
)

// Registry is the platform-side record of builds. Records are created on
// trigger and mutated only through Transition, which enforces the forward-only
// state machine: terminal states latch and are never rewritten.
type Registry struct {
	mu     sync.RWMutex
	builds map[string]models.Build
}

// NewRegistry creates an empty build registry.
func NewRegistry() *Registry {
	return &Registry{builds: make(map[string]models.Build)}
}

// Add inserts a build record. An existing record with the same id is kept
// untouched, so a crash-and-retry trigger cannot reset observed state.
func (r *Registry) Add(build models.Build) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.builds[build.ID]; ok {
		return
	}
	r.builds[build.ID] = build
}

// Get returns a copy of the build record, or nil when unknown.
func (r *Registry) Get(id string) *models.Build {
	r.mu.RLock()
	defer r.mu.RUnlock()
	build, ok := r.builds[id]
	if !ok {
		return nil
	}
	return &build
}

// ListByEnvironment returns copies of all records owned by the environment,
// newest first.
func (r *Registry) ListByEnvironment(environmentID string) []models.Build {
	r.mu.RLock()
	defer r.mu.RUnlock()
	builds := make([]models.Build, 0)
	for _, build := range r.builds {
		if build.EnvironmentID == environmentID {
			builds = append(builds, build)
		}
	}
	sort.Slice(builds, func(i, j int) bool { return builds[i].Created.After(builds[j].Created) })
	return builds
}

// Transition moves the build into status and returns the resulting record and
// whether the transition was applied. Illegal transitions, including any
// transition out of a terminal state, leave the record untouched. The result
// is stored only when the new status is succeeded and the error reason only
// when it is failed.
func (r *Registry) Transition(id string, status models.BuildStatus, errorReason *string, result *models.BuildResult) (*models.Build, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	build, ok := r.builds[id]
	if !ok {
		return nil, false
	}
	if !build.Status.CanTransitionTo(status) {
		return &build, false
	}
	build.Status = status
	build.ErrorReason = nil
	build.Result = nil
	switch status {
	case models.BuildStatusSucceeded:
		build.Result = result
	case models.BuildStatusFailed:
		build.ErrorReason = errorReason
	}
	r.builds[id] = build
	return &build, true
}
