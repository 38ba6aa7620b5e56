package cluster_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubetesting "k8s.io/client-go/testing"

	"github.com/sessionforge/build-orchestrator/pkg/cluster"
	apierrors "github.com/sessionforge/build-orchestrator/pkg/errors"
	"github.com/sessionforge/build-orchestrator/pkg/shipwright"
)

const testNamespace = "sessionforge-builds"

func newDynamicClient(t *testing.T, objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	t.Helper()
	listKinds := map[schema.GroupVersionResource]string{
		cluster.BuildDescriptor.GroupVersionResource():    "BuildList",
		cluster.BuildRunDescriptor.GroupVersionResource(): "BuildRunList",
	}
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds, objects...)
}

func newBuildClient(client *dynamicfake.FakeDynamicClient) *cluster.BuildClient {
	return cluster.NewBuildClient(client, testNamespace, 3, time.Millisecond)
}

func aBuild(name string) *shipwright.Build {
	return &shipwright.Build{
		TypeMeta:   metav1.TypeMeta{APIVersion: cluster.BuildDescriptor.APIVersion(), Kind: shipwright.BuildKind},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: testNamespace},
		Spec: shipwright.BuildSpec{
			Source: &shipwright.Source{
				Type: shipwright.GitType,
				Git:  &shipwright.Git{URL: "https://git.test/session.git"},
			},
		},
	}
}

func asUnstructured(t *testing.T, obj any) *unstructured.Unstructured {
	t.Helper()
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	require.NoError(t, err)
	return &unstructured.Unstructured{Object: content}
}

func TestCreate_ConfirmsVisibilityBeforeReturning(t *testing.T) {
	client := newDynamicClient(t)
	buildClient := newBuildClient(client)

	created, err := buildClient.Builds.Create(context.Background(), aBuild("build-1"))
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "build-1", created.Name)

	fetched, err := buildClient.Builds.Get(context.Background(), "build-1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "https://git.test/session.git", fetched.Spec.Source.Git.URL)
}

func TestCreate_SubmissionFailureIsCannotStartBuild(t *testing.T) {
	client := newDynamicClient(t)
	client.PrependReactor("create", shipwright.BuildPlural, func(action kubetesting.Action) (bool, runtime.Object, error) {
		return true, nil, k8serrors.NewForbidden(
			schema.GroupResource{Group: shipwright.Group, Resource: shipwright.BuildPlural}, "build-1", nil)
	})
	buildClient := newBuildClient(client)

	_, err := buildClient.Builds.Create(context.Background(), aBuild("build-1"))
	var cannotStart *apierrors.CannotStartBuildError
	require.ErrorAs(t, err, &cannotStart)
	assert.Equal(t, "build-1", cannotStart.Name)
}

func TestCreate_ObjectNeverBecomingVisibleIsCannotStartBuild(t *testing.T) {
	client := newDynamicClient(t)
	client.PrependReactor("get", shipwright.BuildPlural, func(action kubetesting.Action) (bool, runtime.Object, error) {
		return true, nil, k8serrors.NewNotFound(
			schema.GroupResource{Group: shipwright.Group, Resource: shipwright.BuildPlural}, "build-1")
	})
	buildClient := newBuildClient(client)

	_, err := buildClient.Builds.Create(context.Background(), aBuild("build-1"))
	var cannotStart *apierrors.CannotStartBuildError
	require.ErrorAs(t, err, &cannotStart)
	assert.Contains(t, cannotStart.Error(), "not visible after 3 attempts")
}

func TestCreate_DuplicateCreateSucceedsWhenObjectExists(t *testing.T) {
	client := newDynamicClient(t, asUnstructured(t, aBuild("build-1")))
	buildClient := newBuildClient(client)

	created, err := buildClient.Builds.Create(context.Background(), aBuild("build-1"))
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "build-1", created.Name)
}

func TestGet_NotFoundReturnsNilWithoutError(t *testing.T) {
	buildClient := newBuildClient(newDynamicClient(t))

	build, err := buildClient.Builds.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, build)
}

func TestGet_TransientFailureIsIntermittent(t *testing.T) {
	client := newDynamicClient(t)
	client.PrependReactor("get", shipwright.BuildRunPlural, func(action kubetesting.Action) (bool, runtime.Object, error) {
		return true, nil, k8serrors.NewInternalError(assert.AnError)
	})
	buildClient := newBuildClient(client)

	_, err := buildClient.BuildRuns.Get(context.Background(), "build-1")
	var intermittent *apierrors.IntermittentError
	assert.ErrorAs(t, err, &intermittent)
}

func TestList_BadRequestDegradesToEmptyResult(t *testing.T) {
	client := newDynamicClient(t)
	client.PrependReactor("list", shipwright.BuildRunPlural, func(action kubetesting.Action) (bool, runtime.Object, error) {
		return true, nil, k8serrors.NewBadRequest("malformed selector")
	})
	buildClient := newBuildClient(client)

	buildRuns, err := buildClient.BuildRuns.List(context.Background(), "bad==selector")
	require.NoError(t, err)
	assert.Empty(t, buildRuns)
}

func TestList_TransientFailureIsIntermittent(t *testing.T) {
	client := newDynamicClient(t)
	client.PrependReactor("list", shipwright.BuildRunPlural, func(action kubetesting.Action) (bool, runtime.Object, error) {
		return true, nil, k8serrors.NewInternalError(assert.AnError)
	})
	buildClient := newBuildClient(client)

	_, err := buildClient.BuildRuns.List(context.Background(), "")
	var intermittent *apierrors.IntermittentError
	assert.ErrorAs(t, err, &intermittent)
}

func TestList_ReturnsExistingObjects(t *testing.T) {
	client := newDynamicClient(t,
		asUnstructured(t, aBuild("build-1")),
		asUnstructured(t, aBuild("build-2")))
	buildClient := newBuildClient(client)

	builds, err := buildClient.Builds.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, builds, 2)
}

func TestDelete_RemovesObject(t *testing.T) {
	client := newDynamicClient(t, asUnstructured(t, aBuild("build-1")))
	buildClient := newBuildClient(client)

	require.NoError(t, buildClient.Builds.Delete(context.Background(), "build-1"))

	build, err := buildClient.Builds.Get(context.Background(), "build-1")
	require.NoError(t, err)
	assert.Nil(t, build)
}

func TestDelete_AlreadyGoneIsAnError(t *testing.T) {
	// deletion of an unknown name is reported rather than swallowed, so a
	// caller cannot mistake a typo for a successful cancellation
	buildClient := newBuildClient(newDynamicClient(t))

	err := buildClient.Builds.Delete(context.Background(), "missing")
	var deleteErr *apierrors.DeleteBuildError
	require.ErrorAs(t, err, &deleteErr)
	assert.Equal(t, shipwright.BuildKind, deleteErr.Kind)
}
