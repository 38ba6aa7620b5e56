// Package shipwright mirrors the subset of the shipwright.io/v1beta1 API
// consumed by the build orchestrator. The schema is an external contract owned
// by the Shipwright project; field names and JSON tags must match it exactly.
package shipwright

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	Group   = "shipwright.io"
	Version = "v1beta1"

	BuildKind      = "Build"
	BuildRunKind   = "BuildRun"
	BuildPlural    = "builds"
	BuildRunPlural = "buildruns"
)

// GroupVersion is the API group/version of the Shipwright build resources.
var GroupVersion = schema.GroupVersion{Group: Group, Version: Version}

// BuildSourceType describes the origin of the sources a Build consumes.
type BuildSourceType string

const (
	GitType BuildSourceType = "Git"
)

// Git holds the git repository coordinates of a build source.
type Git struct {
	URL      string  `json:"url"`
	Revision *string `json:"revision,omitempty"`
}

// Source describes where the sources of a Build come from.
type Source struct {
	Type       BuildSourceType `json:"type"`
	ContextDir *string         `json:"contextDir,omitempty"`
	Git        *Git            `json:"git,omitempty"`
}

// Strategy references the BuildStrategy executing the build, e.g. buildpacks.
type Strategy struct {
	Name string  `json:"name"`
	Kind *string `json:"kind,omitempty"`
}

// ParamValue is a name/value parameter passed to the build strategy.
type ParamValue struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

// Image refers to the container image produced by a build.
type Image struct {
	Image string `json:"image"`
}

// BuildSpec defines the desired state of a Build.
type BuildSpec struct {
	Source      *Source          `json:"source,omitempty"`
	Strategy    Strategy         `json:"strategy"`
	ParamValues []ParamValue     `json:"paramValues,omitempty"`
	Output      Image            `json:"output"`
	Timeout     *metav1.Duration `json:"timeout,omitempty"`
}

// BuildStatus defines the observed state of a Build.
type BuildStatus struct {
	Registered *corev1.ConditionStatus `json:"registered,omitempty"`
	Reason     *string                 `json:"reason,omitempty"`
	Message    *string                 `json:"message,omitempty"`
}

// Build is the Shipwright custom resource declaring how an image is built.
type Build struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   BuildSpec   `json:"spec"`
	Status BuildStatus `json:"status,omitempty"`
}

// ReferencedBuild refers to the Build a BuildRun executes.
type ReferencedBuild struct {
	Name *string `json:"name,omitempty"`
}

// BuildRunSpec defines the desired state of a BuildRun.
type BuildRunSpec struct {
	Build *ReferencedBuild `json:"build,omitempty"`
}

// Condition describes the state of a BuildRun at a certain point.
type Condition struct {
	Type               string                 `json:"type"`
	Status             corev1.ConditionStatus `json:"status"`
	LastTransitionTime metav1.Time            `json:"lastTransitionTime,omitempty"`
	Reason             string                 `json:"reason,omitempty"`
	Message            string                 `json:"message,omitempty"`
}

// ConditionSucceeded is the condition type tracking overall BuildRun outcome.
const ConditionSucceeded = "Succeeded"

// Output holds the results emitted by the build strategy for the produced image.
type Output struct {
	Digest string `json:"digest,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

// GitSourceResult holds the results of the source step for a git source.
type GitSourceResult struct {
	CommitSha    string `json:"commitSha,omitempty"`
	CommitAuthor string `json:"commitAuthor,omitempty"`
	BranchName   string `json:"branchName,omitempty"`
}

// SourceResult holds the results emitted from the source step.
type SourceResult struct {
	Git *GitSourceResult `json:"git,omitempty"`
}

// BuildRunStatus defines the observed state of a BuildRun.
type BuildRunStatus struct {
	Conditions     []Condition   `json:"conditions,omitempty"`
	StartTime      *metav1.Time  `json:"startTime,omitempty"`
	CompletionTime *metav1.Time  `json:"completionTime,omitempty"`
	Output         *Output       `json:"output,omitempty"`
	Source         *SourceResult `json:"source,omitempty"`
	BuildSpec      *BuildSpec    `json:"buildSpec,omitempty"`
}

// BuildRun is the Shipwright custom resource tracking one execution of a Build.
type BuildRun struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   BuildRunSpec   `json:"spec"`
	Status BuildRunStatus `json:"status,omitempty"`
}

// SucceededCondition returns the Succeeded condition of the build run, or nil
// when the cluster has not reported one yet.
func (br *BuildRun) SucceededCondition() *Condition {
	for i := range br.Status.Conditions {
		if br.Status.Conditions[i].Type == ConditionSucceeded {
			return &br.Status.Conditions[i]
		}
	}
	return nil
}

// OutputImage returns the image reference the run produced, preferring the
// spec recorded on the run status over the digest-less declaration.
func (br *BuildRun) OutputImage() string {
	if br.Status.BuildSpec != nil && br.Status.BuildSpec.Output.Image != "" {
		return br.Status.BuildSpec.Output.Image
	}
	return ""
}

// CommitSha returns the resolved source revision of the run, if reported.
func (br *BuildRun) CommitSha() string {
	if br.Status.Source != nil && br.Status.Source.Git != nil {
		return br.Status.Source.Git.CommitSha
	}
	return ""
}
