package builds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/ptr"

	"github.com/sessionforge/build-orchestrator/models"
	"github.com/sessionforge/build-orchestrator/pkg/buildcache"
	"github.com/sessionforge/build-orchestrator/pkg/cluster"
	apierrors "github.com/sessionforge/build-orchestrator/pkg/errors"
	"github.com/sessionforge/build-orchestrator/pkg/metrics"
	"github.com/sessionforge/build-orchestrator/pkg/shipwright"
	"github.com/sessionforge/build-orchestrator/pkg/store"
)

const (
	// EnvironmentIDLabel correlates cluster build objects with the owning
	// session environment.
	EnvironmentIDLabel = "sessionforge.io/environment-id"

	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "build-orchestrator"

	clusterBuildStrategyKind = "ClusterBuildStrategy"

	builderParamName  = "builder"
	frontendParamName = "frontend"
)

// BuildHandler reconciles cluster build state into the platform build model
// and serves the REST build operations.
type BuildHandler interface {
	// TriggerBuild creates the Build/BuildRun pair for an environment
	TriggerBuild(ctx context.Context, environmentID string) (*models.Build, error)
	// GetBuild gets the current status of a build
	GetBuild(ctx context.Context, buildID string) (*models.Build, error)
	// ListBuilds lists the builds of an environment
	ListBuilds(ctx context.Context, environmentID string) ([]models.Build, error)
	// CancelBuild cancels an in-progress build
	CancelBuild(ctx context.Context, buildID string) (*models.Build, error)
	// GetBuildLogs gets the container logs of the build run pods
	GetBuildLogs(ctx context.Context, buildID string, maxLines *int64) (*models.BuildLogs, error)
}

type buildHandler struct {
	env          *models.Env
	buildClient  *cluster.BuildClient
	cacheClient  *buildcache.Client
	logReader    *cluster.LogReader
	environments store.EnvironmentStore
	registry     *Registry
}

// New Constructor for build handler
func New(env *models.Env, buildClient *cluster.BuildClient, cacheClient *buildcache.Client, logReader *cluster.LogReader, environments store.EnvironmentStore) BuildHandler {
	return &buildHandler{
		env:          env,
		buildClient:  buildClient,
		cacheClient:  cacheClient,
		logReader:    logReader,
		environments: environments,
		registry:     NewRegistry(),
	}
}

// TriggerBuild creates the Build/BuildRun pair for an environment
func (handler *buildHandler) TriggerBuild(ctx context.Context, environmentID string) (*models.Build, error) {
	logger := log.Ctx(ctx)

	environment, err := handler.environments.GetEnvironment(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	if environment == nil {
		return nil, apierrors.NewNotFound("environment", environmentID)
	}
	if environment.Kind != models.EnvironmentKindCustom || environment.BuildParameters == nil {
		return nil, apierrors.NewInvalidWithReason(environmentID, "environment does not build an image")
	}
	parameters := environment.BuildParameters

	buildID := fmt.Sprintf("build-%s", uuid.NewString())
	build := models.Build{
		ID:            buildID,
		EnvironmentID: environmentID,
		Created:       time.Now(),
		Status:        models.BuildStatusInProgress,
	}

	if _, err := handler.buildClient.Builds.Create(ctx, handler.newBuildResource(buildID, environmentID, parameters)); err != nil {
		return nil, handler.failTrigger(ctx, build, err)
	}
	if _, err := handler.buildClient.BuildRuns.Create(ctx, handler.newBuildRunResource(buildID, environmentID)); err != nil {
		return nil, handler.failTrigger(ctx, build, err)
	}

	handler.registry.Add(build)
	metrics.BuildTriggered()
	logger.Info().Msgf("Build %s started for environment %s", buildID, environmentID)
	return &build, nil
}

// failTrigger records the lost trigger attempt as a failed build so that it
// stays inspectable, and returns the original error.
func (handler *buildHandler) failTrigger(ctx context.Context, build models.Build, err error) error {
	build.Status = models.BuildStatusFailed
	build.ErrorReason = ptr.To(err.Error())
	handler.registry.Add(build)
	metrics.OperationError("trigger_build", err)
	metrics.BuildCompleted(models.BuildStatusFailed)
	log.Ctx(ctx).Error().Err(err).Msgf("Build %s could not be started", build.ID)
	return err
}

// GetBuild gets the current status of a build
func (handler *buildHandler) GetBuild(ctx context.Context, buildID string) (*models.Build, error) {
	record := handler.registry.Get(buildID)
	if record == nil {
		return nil, apierrors.NewNotFound("build", buildID)
	}
	if record.Status.IsTerminal() {
		return record, nil
	}
	return handler.refreshBuild(ctx, *record)
}

// ListBuilds lists the builds of an environment
func (handler *buildHandler) ListBuilds(ctx context.Context, environmentID string) ([]models.Build, error) {
	environment, err := handler.environments.GetEnvironment(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	if environment == nil {
		return nil, apierrors.NewNotFound("environment", environmentID)
	}

	records := handler.registry.ListByEnvironment(environmentID)
	if len(records) == 0 {
		records = handler.rehydrate(ctx, environmentID)
	}

	results := make([]models.Build, len(records))
	var group errgroup.Group
	for i, record := range records {
		group.Go(func() error {
			if record.Status.IsTerminal() {
				results[i] = record
				return nil
			}
			refreshed, err := handler.refreshBuild(ctx, record)
			if err != nil {
				// best-effort enumeration keeps the last known state
				log.Ctx(ctx).Warn().Err(err).Msgf("Failed to refresh status of build %s", record.ID)
				results[i] = record
				return nil
			}
			results[i] = *refreshed
			return nil
		})
	}
	_ = group.Wait()
	return results, nil
}

// CancelBuild cancels an in-progress build
func (handler *buildHandler) CancelBuild(ctx context.Context, buildID string) (*models.Build, error) {
	record := handler.registry.Get(buildID)
	if record == nil {
		return nil, apierrors.NewNotFound("build", buildID)
	}
	if record.Status.IsTerminal() {
		return nil, apierrors.NewInvalidWithReason(buildID, fmt.Sprintf("build is already %s", record.Status))
	}

	// the local record turns terminal first; the cluster deletion that follows
	// is at-least-once and safe to repeat
	cancelled, applied := handler.registry.Transition(buildID, models.BuildStatusCancelled, nil, nil)
	if applied {
		metrics.BuildCompleted(models.BuildStatusCancelled)
	}

	if err := handler.buildClient.BuildRuns.Delete(ctx, buildID); err != nil {
		metrics.OperationError("cancel_build", err)
		return nil, err
	}
	log.Ctx(ctx).Info().Msgf("Build %s has been cancelled", buildID)
	return cancelled, nil
}

// GetBuildLogs gets the container logs of the build run pods
func (handler *buildHandler) GetBuildLogs(ctx context.Context, buildID string, maxLines *int64) (*models.BuildLogs, error) {
	record := handler.registry.Get(buildID)
	if record == nil {
		return nil, apierrors.NewNotFound("build", buildID)
	}
	tailLines := handler.env.LogTailLines
	if maxLines != nil && *maxLines > 0 {
		tailLines = *maxLines
	}
	containerLogs, err := handler.logReader.GetBuildRunLogs(ctx, buildID, tailLines)
	if err != nil {
		metrics.OperationError("get_build_logs", err)
		return nil, err
	}
	return &models.BuildLogs{Logs: containerLogs}, nil
}

// refreshBuild advances a non-terminal record from the current BuildRun
// observation. An unobservable run leaves the record in_progress; absence is
// never interpreted as a terminal outcome.
func (handler *buildHandler) refreshBuild(ctx context.Context, record models.Build) (*models.Build, error) {
	buildRun, err := handler.observeBuildRun(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if buildRun == nil {
		return &record, nil
	}

	observed := deriveOutcome(buildRun, handler.repositoryURLOf(ctx, record.EnvironmentID))
	if !observed.status.IsTerminal() {
		return &record, nil
	}
	updated, applied := handler.registry.Transition(record.ID, observed.status, observed.errorReason, observed.result)
	if applied {
		metrics.BuildCompleted(observed.status)
		log.Ctx(ctx).Info().Msgf("Build %s reached status %s", record.ID, observed.status)
	}
	return updated, nil
}

// observeBuildRun reads the correlated BuildRun, preferring the watch-cache
// and falling back to a direct cluster read when the cache is degraded.
func (handler *buildHandler) observeBuildRun(ctx context.Context, name string) (*shipwright.BuildRun, error) {
	buildRun, err := handler.cacheClient.GetBuildRun(ctx, name)
	if err == nil {
		return buildRun, nil
	}
	var cacheErr *apierrors.CacheError
	if !errors.As(err, &cacheErr) {
		return nil, err
	}
	log.Ctx(ctx).Warn().Err(err).Msgf("Build run cache degraded, reading %s from cluster", name)
	return handler.buildClient.BuildRuns.Get(ctx, name)
}

// rehydrate rebuilds registry records from cluster state, e.g. after a
// restart. Listing failures degrade to an empty result.
func (handler *buildHandler) rehydrate(ctx context.Context, environmentID string) []models.Build {
	selector := labels.Set{EnvironmentIDLabel: environmentID}.String()
	buildRuns, err := handler.buildClient.BuildRuns.List(ctx, selector)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msgf("Failed to list build runs for environment %s", environmentID)
		return nil
	}
	for _, buildRun := range buildRuns {
		handler.registry.Add(models.Build{
			ID:            buildRun.Name,
			EnvironmentID: environmentID,
			Created:       buildRun.CreationTimestamp.Time,
			Status:        models.BuildStatusInProgress,
		})
	}
	return handler.registry.ListByEnvironment(environmentID)
}

func (handler *buildHandler) repositoryURLOf(ctx context.Context, environmentID string) string {
	environment, err := handler.environments.GetEnvironment(ctx, environmentID)
	if err != nil || environment == nil || environment.BuildParameters == nil {
		return ""
	}
	return environment.BuildParameters.RepositoryURL
}

func (handler *buildHandler) newBuildResource(buildID, environmentID string, parameters *models.BuildParameters) *shipwright.Build {
	return &shipwright.Build{
		ObjectMeta: metav1.ObjectMeta{
			Name:      buildID,
			Namespace: handler.env.BuildNamespace,
			Labels:    buildLabels(environmentID),
		},
		Spec: shipwright.BuildSpec{
			Source: &shipwright.Source{
				Type:       shipwright.GitType,
				ContextDir: parameters.ContextDir,
				Git: &shipwright.Git{
					URL:      parameters.RepositoryURL,
					Revision: parameters.Revision,
				},
			},
			Strategy: shipwright.Strategy{
				Name: handler.env.BuildStrategyName,
				Kind: ptr.To(clusterBuildStrategyKind),
			},
			ParamValues: []shipwright.ParamValue{
				{Name: builderParamName, Value: ptr.To(parameters.BuilderVariant)},
				{Name: frontendParamName, Value: ptr.To(parameters.FrontendVariant)},
			},
			Output:  shipwright.Image{Image: fmt.Sprintf("%s:%s", handler.env.OutputImageRepository, buildID)},
			Timeout: &metav1.Duration{Duration: handler.env.BuildTimeout},
		},
	}
}

func (handler *buildHandler) newBuildRunResource(buildID, environmentID string) *shipwright.BuildRun {
	return &shipwright.BuildRun{
		ObjectMeta: metav1.ObjectMeta{
			Name:      buildID,
			Namespace: handler.env.BuildNamespace,
			Labels:    buildLabels(environmentID),
		},
		Spec: shipwright.BuildRunSpec{
			Build: &shipwright.ReferencedBuild{Name: ptr.To(buildID)},
		},
	}
}

func buildLabels(environmentID string) map[string]string {
	return map[string]string{
		EnvironmentIDLabel: environmentID,
		managedByLabel:     managedByValue,
	}
}
