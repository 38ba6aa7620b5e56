// Package cluster provides typed CRUD against the Shipwright build resources
// in one fixed namespace. A single generic client is parameterized over a
// resource descriptor instead of duplicating client logic per kind.
package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	apierrors "github.com/sessionforge/build-orchestrator/pkg/errors"
	"github.com/sessionforge/build-orchestrator/pkg/retry"
	"github.com/sessionforge/build-orchestrator/pkg/shipwright"
)

// Descriptor identifies a custom resource kind by its API coordinates.
type Descriptor struct {
	Group   string
	Version string
	Kind    string
	Plural  string
}

// GroupVersionResource returns the dynamic-client resource coordinates.
func (d Descriptor) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: d.Group, Version: d.Version, Resource: d.Plural}
}

// APIVersion returns the group/version string set on created objects.
func (d Descriptor) APIVersion() string {
	return schema.GroupVersion{Group: d.Group, Version: d.Version}.String()
}

// BuildDescriptor describes the shipwright.io/v1beta1 Build resource.
var BuildDescriptor = Descriptor{
	Group:   shipwright.Group,
	Version: shipwright.Version,
	Kind:    shipwright.BuildKind,
	Plural:  shipwright.BuildPlural,
}

// BuildRunDescriptor describes the shipwright.io/v1beta1 BuildRun resource.
var BuildRunDescriptor = Descriptor{
	Group:   shipwright.Group,
	Version: shipwright.Version,
	Kind:    shipwright.BuildRunKind,
	Plural:  shipwright.BuildRunPlural,
}

// ResourceClient is a typed client for one namespaced custom resource kind.
type ResourceClient[T any] struct {
	resource    dynamic.ResourceInterface
	descriptor  Descriptor
	namespace   string
	maxAttempts int
	baseDelay   time.Duration
}

// NewResourceClient creates a client for the descriptor's kind, scoped to one
// execution namespace. maxAttempts and baseDelay bound the visibility
// confirmation performed after create.
func NewResourceClient[T any](client dynamic.Interface, namespace string, descriptor Descriptor, maxAttempts int, baseDelay time.Duration) *ResourceClient[T] {
	return &ResourceClient[T]{
		resource:    client.Resource(descriptor.GroupVersionResource()).Namespace(namespace),
		descriptor:  descriptor,
		namespace:   namespace,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Create submits the object and confirms it is visible to a subsequent read.
// A just-created object may not be immediately observable, so the existence
// check is retried with exponential backoff. A duplicate create is treated as
// success once the existence check finds the object. Submission failure or
// exhaustion without visibility yields CannotStartBuildError.
func (c *ResourceClient[T]) Create(ctx context.Context, obj *T) (*T, error) {
	u, err := c.toUnstructured(obj)
	if err != nil {
		return nil, &apierrors.CannotStartBuildError{Name: c.descriptor.Kind, Err: err}
	}
	name := u.GetName()

	if _, err := c.resource.Create(ctx, u, metav1.CreateOptions{}); err != nil && !k8serrors.IsAlreadyExists(err) {
		return nil, &apierrors.CannotStartBuildError{Name: name, Err: err}
	}

	created, err := retry.Until(ctx,
		func(ctx context.Context) (*T, error) { return c.Get(ctx, name) },
		func(value *T, _ error) bool { return value == nil },
		c.maxAttempts, c.baseDelay)
	if err != nil {
		return nil, &apierrors.CannotStartBuildError{Name: name, Err: err}
	}
	if created == nil {
		return nil, &apierrors.CannotStartBuildError{
			Name: name,
			Err:  fmt.Errorf("%s not visible after %d attempts", c.descriptor.Kind, c.maxAttempts),
		}
	}
	log.Ctx(ctx).Debug().Msgf("Created %s %s in namespace %s", c.descriptor.Kind, name, c.namespace)
	return created, nil
}

// Get returns the named object, or nil when the cluster reports not-found.
// Any other failure is an IntermittentError, distinguishing confirmed absence
// from an unknown transient condition.
func (c *ResourceClient[T]) Get(ctx context.Context, name string) (*T, error) {
	u, err := c.resource.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, &apierrors.IntermittentError{Err: err}
	}
	return c.fromUnstructured(u)
}

// List returns the objects matching labelSelector. Listing failures of the
// bad-request/not-found class degrade to an empty result so that best-effort
// enumeration never crashes a caller; anything else is an IntermittentError.
func (c *ResourceClient[T]) List(ctx context.Context, labelSelector string) ([]T, error) {
	list, err := c.resource.List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		if k8serrors.IsNotFound(err) || k8serrors.IsBadRequest(err) || k8serrors.IsInvalid(err) {
			log.Ctx(ctx).Debug().Err(err).Msgf("Listing %s returned a non-fatal error", c.descriptor.Plural)
			return nil, nil
		}
		return nil, &apierrors.IntermittentError{Err: err}
	}
	items := make([]T, 0, len(list.Items))
	for i := range list.Items {
		item, err := c.fromUnstructured(&list.Items[i])
		if err != nil {
			return nil, &apierrors.IntermittentError{Err: err}
		}
		items = append(items, *item)
	}
	return items, nil
}

// Delete requests foreground cascading deletion of the named object, so child
// resources such as build pods are removed with it. Failure, including an
// already-gone name, yields DeleteBuildError.
func (c *ResourceClient[T]) Delete(ctx context.Context, name string) error {
	propagation := metav1.DeletePropagationForeground
	err := c.resource.Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &propagation})
	if err != nil {
		return &apierrors.DeleteBuildError{Kind: c.descriptor.Kind, Name: name, Err: err}
	}
	log.Ctx(ctx).Debug().Msgf("Requested deletion of %s %s in namespace %s", c.descriptor.Kind, name, c.namespace)
	return nil
}

func (c *ResourceClient[T]) toUnstructured(obj *T) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, err
	}
	u := &unstructured.Unstructured{Object: content}
	u.SetAPIVersion(c.descriptor.APIVersion())
	u.SetKind(c.descriptor.Kind)
	return u, nil
}

func (c *ResourceClient[T]) fromUnstructured(u *unstructured.Unstructured) (*T, error) {
	var obj T
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// BuildClient bundles the typed clients for the Build/BuildRun pair of one
// execution namespace.
type BuildClient struct {
	Builds    *ResourceClient[shipwright.Build]
	BuildRuns *ResourceClient[shipwright.BuildRun]
}

// NewBuildClient creates Build and BuildRun clients for the given namespace.
func NewBuildClient(client dynamic.Interface, namespace string, maxAttempts int, baseDelay time.Duration) *BuildClient {
	return &BuildClient{
		Builds:    NewResourceClient[shipwright.Build](client, namespace, BuildDescriptor, maxAttempts, baseDelay),
		BuildRuns: NewResourceClient[shipwright.BuildRun](client, namespace, BuildRunDescriptor, maxAttempts, baseDelay),
	}
}
