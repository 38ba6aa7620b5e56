package buildcache

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/dynamic/dynamicinformer"
	"k8s.io/client-go/tools/cache"

	"github.com/sessionforge/build-orchestrator/pkg/shipwright"
)

const resyncPeriod = 0

// Server is the watch-cache side-car. A dynamic shared informer keeps a mirror
// of the BuildRun objects in one namespace current without polling, and the
// HTTP surface serves lookups by name from that mirror.
type Server struct {
	informer  cache.SharedIndexInformer
	namespace string
	stop      chan struct{}
	logger    zerolog.Logger
}

// NewServer starts the BuildRun informer for namespace and waits for the
// initial cache sync.
func NewServer(ctx context.Context, client dynamic.Interface, namespace string) (*Server, error) {
	server := &Server{
		namespace: namespace,
		stop:      make(chan struct{}),
		logger:    log.Logger.With().Str("pkg", "buildrun-cache").Logger(),
	}

	factory := dynamicinformer.NewFilteredDynamicSharedInformerFactory(client, resyncPeriod, namespace, nil)
	server.informer = factory.ForResource(BuildRunGroupVersionResource()).Informer()

	_, err := server.informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			server.logger.Debug().Msgf("BuildRun object was added %s", objectName(obj))
		},
		UpdateFunc: func(_, cur interface{}) {
			server.logger.Debug().Msgf("BuildRun object was changed %s", objectName(cur))
		},
		DeleteFunc: func(obj interface{}) {
			server.logger.Debug().Msgf("BuildRun object was deleted %s", objectName(obj))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup build run informer: %w", err)
	}

	factory.Start(server.stop)
	server.logger.Info().Msg("Waiting for build run cache to sync")
	if !cache.WaitForCacheSync(ctx.Done(), server.informer.HasSynced) {
		return nil, fmt.Errorf("failed to sync build run cache")
	}
	server.logger.Info().Msg("Completed syncing build run cache")
	return server, nil
}

// Stop stops the informer.
func (s *Server) Stop() {
	close(s.stop)
}

// Handler returns the HTTP surface of the cache: GET /buildruns/:name answers
// with a JSON array holding zero or one mirrored BuildRun objects.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/buildruns/:name", s.getBuildRuns)
	return engine
}

func (s *Server) getBuildRuns(c *gin.Context) {
	name := c.Param("name")
	key := fmt.Sprintf("%s/%s", s.namespace, name)
	obj, exists, err := s.informer.GetStore().GetByKey(key)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Failed to read build run %s from cache", name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	entries := make([]interface{}, 0, 1)
	if exists {
		entries = append(entries, obj.(*unstructured.Unstructured).Object)
	}
	c.JSON(http.StatusOK, entries)
}

// BuildRunGroupVersionResource returns the resource coordinates the informer
// watches.
func BuildRunGroupVersionResource() schema.GroupVersionResource {
	return shipwright.GroupVersion.WithResource(shipwright.BuildRunPlural)
}

func objectName(obj interface{}) string {
	key, err := cache.MetaNamespaceKeyFunc(obj)
	if err != nil {
		return "<unknown>"
	}
	return key
}
