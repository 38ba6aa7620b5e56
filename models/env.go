package models

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Env instance variables
type Env struct {
	Port           string `envconfig:"PORT" default:"8080" desc:"Port where the API will be served"`
	UseProfiler    bool   `envconfig:"USE_PROFILER" default:"false" desc:"Enable the pprof profiler server"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPrettyPrint bool   `envconfig:"LOG_PRETTY" default:"false"`

	BuildNamespace        string        `envconfig:"BUILD_NAMESPACE" default:"sessionforge-builds" desc:"Namespace where Build and BuildRun resources are created"`
	BuildStrategyName     string        `envconfig:"BUILD_STRATEGY_NAME" default:"buildpacks" desc:"Name of the cluster build strategy driving image construction"`
	OutputImageRepository string        `envconfig:"OUTPUT_IMAGE_REPOSITORY" default:"registry.sessionforge.local/session-images" desc:"Registry repository receiving built images"`
	BuildTimeout          time.Duration `envconfig:"BUILD_TIMEOUT" default:"30m" desc:"Timeout set on created Build resources"`

	CacheURL     string        `envconfig:"BUILD_CACHE_URL" default:"http://localhost:8001" desc:"Base URL of the build run watch-cache side-car"`
	CacheTimeout time.Duration `envconfig:"BUILD_CACHE_TIMEOUT" default:"5s" desc:"Request timeout against the watch-cache"`

	CreateMaxAttempts int           `envconfig:"CREATE_MAX_ATTEMPTS" default:"5" desc:"Attempts when confirming visibility of a created resource"`
	CreateRetryDelay  time.Duration `envconfig:"CREATE_RETRY_DELAY" default:"200ms" desc:"Base delay between visibility checks, doubled per attempt"`

	LogTailLines int64 `envconfig:"LOG_TAIL_LINES" default:"1000" desc:"Default number of log lines returned per container"`
}

// MustParseEnv parses the environment into an Env, exiting on invalid values.
func MustParseEnv() *Env {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		_ = envconfig.Usage("", &env)
		log.Fatal().Msg(err.Error())
	}
	return &env
}
