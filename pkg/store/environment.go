// Package store holds the environment lookup boundary. Environment records
// are owned by the platform's relational store; this package defines the
// interface the build orchestrator consumes and an in-memory implementation
// used for local runs and tests.
package store

import (
	"context"
	"sync"

	"github.com/sessionforge/build-orchestrator/models"
)

// EnvironmentStore looks up session environment records.
type EnvironmentStore interface {
	// GetEnvironment returns the environment with the given id, or nil when
	// no such environment exists.
	GetEnvironment(ctx context.Context, id string) (*models.Environment, error)
}

type inMemoryEnvironmentStore struct {
	mu           sync.RWMutex
	environments map[string]models.Environment
}

// NewInMemoryEnvironmentStore creates a store pre-seeded with environments.
func NewInMemoryEnvironmentStore(environments ...models.Environment) *inMemoryEnvironmentStore {
	store := &inMemoryEnvironmentStore{environments: make(map[string]models.Environment, len(environments))}
	for _, environment := range environments {
		store.environments[environment.ID] = environment
	}
	return store
}

func (s *inMemoryEnvironmentStore) GetEnvironment(_ context.Context, id string) (*models.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	environment, ok := s.environments[id]
	if !ok {
		return nil, nil
	}
	return &environment, nil
}

// SetEnvironment adds or replaces an environment record.
func (s *inMemoryEnvironmentStore) SetEnvironment(environment models.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environments[environment.ID] = environment
}
