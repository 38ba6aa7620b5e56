package cluster

import (
	"context"
	"io"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	apierrors "github.com/sessionforge/build-orchestrator/pkg/errors"
)

// BuildRunNameLabel is set by Shipwright on the pods backing a BuildRun.
const BuildRunNameLabel = "buildrun.shipwright.io/name"

// LogReader retrieves container logs from the pods backing a BuildRun.
type LogReader struct {
	kubeClient kubernetes.Interface
	namespace  string
}

// NewLogReader creates a LogReader scoped to the execution namespace.
func NewLogReader(kubeClient kubernetes.Interface, namespace string) *LogReader {
	return &LogReader{kubeClient: kubeClient, namespace: namespace}
}

// GetBuildRunLogs returns one text blob per container name across the pods of
// the named BuildRun, capped to the most recent tailLines lines per container.
func (r *LogReader) GetBuildRunLogs(ctx context.Context, buildRunName string, tailLines int64) (map[string]string, error) {
	selector := labels.Set{BuildRunNameLabel: buildRunName}.String()
	pods, err := r.kubeClient.CoreV1().Pods(r.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, &apierrors.IntermittentError{Err: err}
	}

	containerLogs := make(map[string]string)
	for _, pod := range pods.Items {
		containers := append(pod.Spec.InitContainers, pod.Spec.Containers...)
		for _, container := range containers {
			text, err := r.readContainerLog(ctx, pod.Name, container.Name, tailLines)
			if err != nil {
				return nil, &apierrors.IntermittentError{Err: err}
			}
			containerLogs[container.Name] = text
		}
	}
	return containerLogs, nil
}

func (r *LogReader) readContainerLog(ctx context.Context, podName, containerName string, tailLines int64) (string, error) {
	req := r.kubeClient.CoreV1().Pods(r.namespace).GetLogs(podName, &corev1.PodLogOptions{
		Container: containerName,
		TailLines: ptr.To(tailLines),
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = stream.Close() }()
	data, err := io.ReadAll(stream)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
