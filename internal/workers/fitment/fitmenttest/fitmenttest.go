// Package fitmenttest provides a small catalog, resolver and job fixtures for worker tests.
package fitmenttest

import (
	"context"
	"sync"
	"testing"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/fitment/catalog"
	"fitment-workers/internal/fitment/mapping"
	"fitment-workers/internal/fitment/resolver"
	"fitment-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
)

// Vehicles is the reference catalog used by worker tests.
func Vehicles() []models.CanonicalVehicle {
	return []models.CanonicalVehicle{
		{ID: "v01", Slug: "bmw-3-series-e46", Name: "1999-2006 BMW 3 Series"},
		{ID: "v02", Slug: "bmw-m3-e46", Name: "2001-2006 BMW M3"},
		{ID: "v03", Slug: "bmw-m3-f80", Name: "2014-2018 BMW M3"},
		{ID: "v04", Slug: "chevrolet-camaro-ss-2016-2023", Name: "2016-2023 Chevrolet Camaro SS"},
		{ID: "v05", Slug: "honda-civic-type-r-fk8", Name: "2017-2021 Honda Civic Type R"},
		{ID: "v06", Slug: "volkswagen-golf-r-mk7", Name: "2015-2017 Volkswagen Golf R"},
		{ID: "v07", Slug: "volkswagen-golf-r-mk7-5", Name: "2018-2020 Volkswagen Golf R"},
	}
}

// Store is a catalog.Store whose contents and failure can be swapped between calls.
type Store struct {
	mu       sync.Mutex
	vehicles []models.CanonicalVehicle
	err      error
	calls    int
}

func NewStore() *Store {
	return &Store{vehicles: Vehicles()}
}

func (s *Store) ListVehicles(context.Context) ([]models.CanonicalVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vehicles, nil
}

// Fail makes every following fetch return err.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) SetVehicles(vehicles []models.CanonicalVehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = vehicles
}

func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Fixture bundles a resolver with the stores behind it.
type Fixture struct {
	Resolver *resolver.Resolver
	Catalog  *Store
	Mappings *mapping.MemoryStore
}

// NewFixture builds a resolver over Vehicles with an in-memory mapping store.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	store := NewStore()
	mappings := mapping.NewMemoryStore()
	log := logger.NewTestLogger(t)
	cache := catalog.NewCache(store, catalog.DefaultCacheConfig(), log)
	return &Fixture{
		Resolver: resolver.New(cache, resolver.WithLogger(log), resolver.WithMappingStore(mappings)),
		Catalog:  store,
		Mappings: mappings,
	}
}

// Job builds an activated job carrying variables.
func Job(taskType, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                1,
		Type:               taskType,
		ProcessInstanceKey: 100,
		Retries:            3,
		Variables:          variables,
	}}
}
