package cluster

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

var (
	nrRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "build_orchestrator_request",
		Help: "The total number of http requests done from the build orchestrator",
	}, []string{"code", "method"})
)

// GetKubernetesClients gets clients to talk to the API, preferring a local
// kubeconfig and falling back to the in-cluster configuration.
func GetKubernetesClients(ctx context.Context) (kubernetes.Interface, dynamic.Interface) {
	pollTimeout, pollInterval := time.Minute, 15*time.Second
	kubeConfigPath := os.Getenv("HOME") + "/.kube/config"
	config, err := clientcmd.BuildConfigFromFlags("", kubeConfigPath)

	if err != nil {
		config, err = rest.InClusterConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read InClusterConfig")
		}
	}

	config.WarningHandler = rest.NoWarnings{}
	config.WrapTransport = func(rt http.RoundTripper) http.RoundTripper {
		return promhttp.InstrumentRoundTripperDuration(nrRequests, rt)
	}

	kubeClient, err := pollUntilRESTClientSuccessfulConnection(ctx, pollTimeout, pollInterval, func() (*kubernetes.Clientset, error) {
		return kubernetes.NewForConfig(config)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Kubernetes client")
	}

	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize dynamic client")
	}

	log.Info().Msgf("Successfully constructed k8s client to API server %v", config.Host)
	return kubeClient, dynamicClient
}
