package builds

import (
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/utils/ptr"

	"github.com/sessionforge/build-orchestrator/models"
	"github.com/sessionforge/build-orchestrator/pkg/shipwright"
)

// outcome is the interpretation of one BuildRun observation in terms of the
// closed platform state set.
type outcome struct {
	status      models.BuildStatus
	errorReason *string
	result      *models.BuildResult
}

// deriveOutcome translates the raw Succeeded condition of a BuildRun into a
// platform build status. Anything unrecognized stays in_progress: reporting
// "still running" is always safer than a false terminal state.
func deriveOutcome(buildRun *shipwright.BuildRun, fallbackRepositoryURL string) outcome {
	condition := buildRun.SucceededCondition()
	if condition == nil {
		return outcome{status: models.BuildStatusInProgress}
	}

	switch condition.Status {
	case corev1.ConditionTrue:
		image := buildRun.OutputImage()
		if image == "" {
			// completion without a published image is not a success yet
			return outcome{status: models.BuildStatusInProgress}
		}
		return outcome{
			status: models.BuildStatusSucceeded,
			result: &models.BuildResult{
				Image:         image,
				CompletedAt:   completionTime(buildRun),
				RepositoryURL: repositoryURL(buildRun, fallbackRepositoryURL),
				CommitSha:     buildRun.CommitSha(),
			},
		}
	case corev1.ConditionFalse:
		return outcome{
			status:      models.BuildStatusFailed,
			errorReason: ptr.To(conditionText(condition)),
		}
	default:
		return outcome{status: models.BuildStatusInProgress}
	}
}

func completionTime(buildRun *shipwright.BuildRun) time.Time {
	if buildRun.Status.CompletionTime != nil {
		return buildRun.Status.CompletionTime.Time
	}
	return time.Now()
}

func repositoryURL(buildRun *shipwright.BuildRun, fallback string) string {
	if buildRun.Status.BuildSpec != nil &&
		buildRun.Status.BuildSpec.Source != nil &&
		buildRun.Status.BuildSpec.Source.Git != nil {
		return buildRun.Status.BuildSpec.Source.Git.URL
	}
	return fallback
}

func conditionText(condition *shipwright.Condition) string {
	switch {
	case condition.Reason != "" && condition.Message != "":
		return fmt.Sprintf("%s: %s", condition.Reason, condition.Message)
	case condition.Message != "":
		return condition.Message
	case condition.Reason != "":
		return condition.Reason
	default:
		return "build failed"
	}
}
