package models

import (
	"time"
)

// BuildStatus is the closed set of platform build states. in_progress is the
// only non-terminal state; terminal states latch.
type BuildStatus string

const (
	BuildStatusInProgress BuildStatus = "in_progress"
	BuildStatusSucceeded  BuildStatus = "succeeded"
	BuildStatusFailed     BuildStatus = "failed"
	BuildStatusCancelled  BuildStatus = "cancelled"
)

// IsTerminal returns true when no further transition is allowed from s.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSucceeded || s == BuildStatusFailed || s == BuildStatusCancelled
}

// IsValid returns true when s is a member of the closed state set.
func (s BuildStatus) IsValid() bool {
	return s == BuildStatusInProgress || s.IsTerminal()
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition of the state machine.
func (s BuildStatus) CanTransitionTo(next BuildStatus) bool {
	return s == BuildStatusInProgress && next.IsTerminal()
}

// EnvironmentKind distinguishes platform-provided templates from user builds.
type EnvironmentKind string

const (
	EnvironmentKindGlobal EnvironmentKind = "GLOBAL"
	EnvironmentKindCustom EnvironmentKind = "CUSTOM"
)

// BuildParameters is the complete input to one image construction.
// swagger:model BuildParameters
type BuildParameters struct {
	// RepositoryURL is the git repository holding the session sources
	RepositoryURL string `json:"repository_url"`
	// BuilderVariant selects the buildpacks builder flavour
	BuilderVariant string `json:"builder_variant"`
	// FrontendVariant selects the session frontend baked into the image
	FrontendVariant string `json:"frontend_variant"`
	// Revision is an optional branch, tag or commit; repository default when empty
	Revision *string `json:"revision,omitempty"`
	// ContextDir is an optional sub-directory used as the build context
	ContextDir *string `json:"context_dir,omitempty"`
}

// Environment is a session image template. A GLOBAL environment references a
// fixed image; a CUSTOM one produces its image through a build.
// swagger:model Environment
type Environment struct {
	ID              string           `json:"id"`
	Kind            EnvironmentKind  `json:"kind"`
	Image           *string          `json:"image,omitempty"`
	BuildParameters *BuildParameters `json:"build_parameters,omitempty"`
}

// BuildResult holds the output of a succeeded build. It is present on a Build
// if and only if the status is succeeded.
// swagger:model BuildResult
type BuildResult struct {
	// Image is the produced container image reference
	Image string `json:"image"`
	// CompletedAt is the completion time reported by the build run
	CompletedAt time.Time `json:"completed_at"`
	// RepositoryURL is the source repository the image was built from
	RepositoryURL string `json:"repository_url"`
	// CommitSha is the resolved revision the image was built from
	CommitSha string `json:"commit_sha"`
}

// Build is the platform-side record of one image construction.
// swagger:model Build
type Build struct {
	ID            string       `json:"id"`
	EnvironmentID string       `json:"environment_id"`
	Created       time.Time    `json:"created"`
	Status        BuildStatus  `json:"status"`
	ErrorReason   *string      `json:"error_reason,omitempty"`
	Result        *BuildResult `json:"result,omitempty"`
}

// BuildList is the response body of a build enumeration.
// swagger:model BuildList
type BuildList struct {
	Builds []Build `json:"builds"`
}

// BuildLogs maps container names to their most recent log lines.
// swagger:model BuildLogs
type BuildLogs struct {
	Logs map[string]string `json:"logs"`
}

// BuildPatch is the request body of a build mutation; only cancellation is
// supported.
// swagger:model BuildPatch
type BuildPatch struct {
	Status BuildStatus `json:"status"`
}
