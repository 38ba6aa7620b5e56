// Package buildcache talks to the watch-cache side-car, a service keeping a
// watch-fed mirror of BuildRun objects so that status polling does not hit the
// cluster API server.
package buildcache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/sessionforge/build-orchestrator/pkg/errors"
	"github.com/sessionforge/build-orchestrator/pkg/shipwright"
)

// Client queries the watch-cache over HTTP. It owns its connection pool; the
// owner must call Close at shutdown.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a cache client for the side-car at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Close releases the pooled connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// ListBuildRuns returns the cached BuildRun entries for name. Any non-success
// response or transport failure is a CacheError: the cache itself, not the
// resource, is unavailable.
func (c *Client) ListBuildRuns(ctx context.Context, name string) ([]shipwright.BuildRun, error) {
	url := fmt.Sprintf("%s/buildruns/%s", c.baseURL, name)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &apierrors.CacheError{Err: err}
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &apierrors.CacheError{Err: err}
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return nil, &apierrors.CacheError{Err: fmt.Errorf("unexpected status %d from %s", response.StatusCode, url)}
	}

	var buildRuns []shipwright.BuildRun
	if err := json.NewDecoder(response.Body).Decode(&buildRuns); err != nil {
		return nil, &apierrors.CacheError{Err: fmt.Errorf("failed to decode cache response: %w", err)}
	}
	return buildRuns, nil
}

// GetBuildRun returns the single cached BuildRun named name, or nil when the
// cache holds no entry. More than one match violates the cache's
// name-uniqueness invariant and is a ProgrammingError.
func (c *Client) GetBuildRun(ctx context.Context, name string) (*shipwright.BuildRun, error) {
	buildRuns, err := c.ListBuildRuns(ctx, name)
	if err != nil {
		return nil, err
	}
	switch len(buildRuns) {
	case 0:
		return nil, nil
	case 1:
		return &buildRuns[0], nil
	default:
		return nil, &apierrors.ProgrammingError{
			Message: fmt.Sprintf("expected at most one cached build run named %s, got %d", name, len(buildRuns)),
		}
	}
}
