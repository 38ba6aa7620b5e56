package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sessionforge/build-orchestrator/models"
	"github.com/sessionforge/build-orchestrator/pkg/buildcache"
	"github.com/sessionforge/build-orchestrator/pkg/cluster"
)

func main() {
	ctx := context.Background()
	env := models.MustParseEnv()
	initLogger(env)

	_, dynamicClient := cluster.GetKubernetesClients(ctx)

	cacheServer, err := buildcache.NewServer(ctx, dynamicClient, env.BuildNamespace)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize build run cache")
	}
	defer cacheServer.Stop()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cachePort(env)),
		Handler:     cacheServer.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Msgf("Serving build run cache on address %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msgf("Unable to start server on address %s", srv.Addr)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown of cache server returned an error")
	}
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

// cachePort derives the listen port from the configured cache URL so that the
// side-car and the orchestrator agree on a single setting.
func cachePort(env *models.Env) string {
	parsed, err := url.Parse(env.CacheURL)
	if err != nil || parsed.Port() == "" {
		return "8001"
	}
	return parsed.Port()
}
