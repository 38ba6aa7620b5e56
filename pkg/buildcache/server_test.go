package buildcache_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/sessionforge/build-orchestrator/pkg/buildcache"
	"github.com/sessionforge/build-orchestrator/pkg/shipwright"
)

const serverTestNamespace = "sessionforge-builds"

func newServerUnderTest(t *testing.T, objects ...runtime.Object) *buildcache.Client {
	t.Helper()
	listKinds := map[schema.GroupVersionResource]string{
		buildcache.BuildRunGroupVersionResource(): "BuildRunList",
	}
	dynamicClient := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds, objects...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	server, err := buildcache.NewServer(ctx, dynamicClient, serverTestNamespace)
	require.NoError(t, err)
	t.Cleanup(server.Stop)

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return buildcache.New(httpServer.URL, time.Second)
}

func mirroredBuildRun(t *testing.T, name string) *unstructured.Unstructured {
	t.Helper()
	buildRun := shipwright.BuildRun{
		TypeMeta: metav1.TypeMeta{
			APIVersion: shipwright.GroupVersion.String(),
			Kind:       shipwright.BuildRunKind,
		},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: serverTestNamespace},
	}
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&buildRun)
	require.NoError(t, err)
	return &unstructured.Unstructured{Object: content}
}

func TestServer_ServesMirroredBuildRunByName(t *testing.T) {
	client := newServerUnderTest(t, mirroredBuildRun(t, "build-1"))
	defer client.Close()

	buildRun, err := client.GetBuildRun(context.Background(), "build-1")
	require.NoError(t, err)
	require.NotNil(t, buildRun)
	assert.Equal(t, "build-1", buildRun.Name)
}

func TestServer_UnknownNameYieldsEmptyArray(t *testing.T) {
	client := newServerUnderTest(t, mirroredBuildRun(t, "build-1"))
	defer client.Close()

	buildRuns, err := client.ListBuildRuns(context.Background(), "build-2")
	require.NoError(t, err)
	assert.Empty(t, buildRuns)
}
