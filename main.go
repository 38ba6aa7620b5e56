package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sessionforge/build-orchestrator/api/controllers"
	buildControllers "github.com/sessionforge/build-orchestrator/api/controllers/builds"
	buildApi "github.com/sessionforge/build-orchestrator/api/handlers/builds"
	"github.com/sessionforge/build-orchestrator/models"
	"github.com/sessionforge/build-orchestrator/pkg/buildcache"
	"github.com/sessionforge/build-orchestrator/pkg/cluster"
	"github.com/sessionforge/build-orchestrator/pkg/store"
	"github.com/sessionforge/build-orchestrator/router"
)

const (
	defaultProfilePort = "7070"
	defaultMetricsPort = "9000"
)

func main() {
	ctx := context.Background()
	env := models.MustParseEnv()
	initLogger(env)

	kubeClient, dynamicClient := cluster.GetKubernetesClients(ctx)
	buildClient := cluster.NewBuildClient(dynamicClient, env.BuildNamespace, env.CreateMaxAttempts, env.CreateRetryDelay)
	logReader := cluster.NewLogReader(kubeClient, env.BuildNamespace)

	cacheClient := buildcache.New(env.CacheURL, env.CacheTimeout)
	defer cacheClient.Close()

	environments := store.NewInMemoryEnvironmentStore()
	buildHandler := buildApi.New(env, buildClient, cacheClient, logReader, environments)

	runAPIServer(ctx, env, buildControllers.New(buildHandler))
}

func initLogger(env *models.Env) {
	logLevel, err := zerolog.ParseLevel(env.LogLevel)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)
	if env.LogPrettyPrint {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func runAPIServer(ctx context.Context, env *models.Env, apiControllers ...controllers.Controller) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := initializeFlagSet()
	port := fs.StringP("port", "p", env.Port, "Port where API will be served")
	parseFlagsFromArgs(fs)

	var servers []*http.Server
	if env.UseProfiler {
		log.Info().Msgf("Initializing a profile server on a port %s", defaultProfilePort)
		servers = append(servers, &http.Server{Addr: fmt.Sprintf(":%s", defaultProfilePort)})
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	servers = append(servers, &http.Server{Addr: fmt.Sprintf(":%s", defaultMetricsPort), Handler: metricsMux})

	apiServer := &http.Server{
		Addr:        fmt.Sprintf(":%s", *port),
		Handler:     router.NewServer(apiControllers...),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	servers = append(servers, apiServer)

	startServers(servers...)

	<-ctx.Done()
	shutdownServersGracefulOnSignal(servers...)
}

func startServers(servers ...*http.Server) {
	for _, srv := range servers {
		go func() {
			log.Debug().Msgf("Starting a server on address %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msgf("Unable to start server on address %s", srv.Addr)
				return
			}
			log.Info().Msgf("Started a server on address %s", srv.Addr)
		}()
	}
}

func initializeFlagSet() *pflag.FlagSet {
	// Flag domain.
	fs := pflag.NewFlagSet("default", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "DESCRIPTION\n")
		fmt.Fprint(os.Stderr, "Session environment build orchestrator API server.\n")
		fmt.Fprint(os.Stderr, "\n")
		fmt.Fprint(os.Stderr, "FLAGS\n")
		fs.PrintDefaults()
	}
	return fs
}

func parseFlagsFromArgs(fs *pflag.FlagSet) {
	err := fs.Parse(os.Args[1:])
	switch {
	case err == pflag.ErrHelp:
		os.Exit(0)
	case err != nil:
		log.Error().Err(err).Msg("Failed to parse flags")
		fs.Usage()
		os.Exit(2)
	}
}

func shutdownServersGracefulOnSignal(servers ...*http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msgf("Shutting down server on address %s", srv.Addr)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msgf("shutdown of server on address %s returned an error", srv.Addr)
			}
		}()
	}
	wg.Wait()
}
