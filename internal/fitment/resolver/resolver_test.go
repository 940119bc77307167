package resolver

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/fitment/catalog"
	"fitment-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureVehicles() []models.CanonicalVehicle {
	return []models.CanonicalVehicle{
		{ID: "v01", Slug: "bmw-3-series-e46", Name: "1999-2006 BMW 3 Series"},
		{ID: "v02", Slug: "bmw-m3-e46", Name: "2001-2006 BMW M3"},
		{ID: "v03", Slug: "bmw-m3-f80", Name: "2014-2018 BMW M3"},
		{ID: "v04", Slug: "chevrolet-camaro-ss-2016-2023", Name: "2016-2023 Chevrolet Camaro SS"},
		{ID: "v06", Slug: "honda-civic-type-r-fk8", Name: "2017-2021 Honda Civic Type R"},
		{ID: "v07", Slug: "porsche-911-997", Name: "2005-2012 Porsche 911"},
		{ID: "v08", Slug: "volkswagen-golf-r-mk7", Name: "2015-2017 Volkswagen Golf R"},
		{ID: "v09", Slug: "volkswagen-golf-r-mk7-5", Name: "2018-2020 Volkswagen Golf R"},
	}
}

type fixtureStore struct {
	vehicles []models.CanonicalVehicle
	err      error
	calls    atomic.Int32
}

func (s *fixtureStore) ListVehicles(context.Context) ([]models.CanonicalVehicle, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.vehicles, nil
}

func newTestResolver(t *testing.T, opts ...Option) (*Resolver, *fixtureStore) {
	store := &fixtureStore{vehicles: fixtureVehicles()}
	cache := catalog.NewCache(store, catalog.DefaultCacheConfig(), logger.NewTestLogger(t))
	opts = append([]Option{WithLogger(logger.NewTestLogger(t))}, opts...)
	return New(cache, opts...), store
}

func intPtr(v int) *int { return &v }

func TestResolveFromYMMS_ChevyCamaroSS(t *testing.T) {
	r, _ := newTestResolver(t)

	match, err := r.ResolveFromYMMS(context.Background(), models.StructuredQuery{
		Year:  intPtr(2016),
		Make:  "chevy",
		Model: "Camaro SS",
	}, models.ResolveOptions{})

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "chevrolet-camaro-ss-2016-2023", match.VehicleSlug)
	assert.Equal(t, "v04", match.VehicleID)
	assert.Equal(t, models.MethodYMMS, match.Method)
	assert.GreaterOrEqual(t, match.Confidence, 0.9)
}

func TestResolveFromText_GolfR(t *testing.T) {
	r, _ := newTestResolver(t)

	matches, err := r.ResolveFromText(context.Background(), "2020 VW Golf R DSG", models.ResolveOptions{})

	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.True(t, strings.HasPrefix(matches[0].VehicleSlug, "volkswagen-golf-r"))
	assert.Equal(t, models.MethodText, matches[0].Method)
	assert.Contains(t, matches[0].MatchedTags, "Golf R")
}

func TestResolveFromTags_E46M3(t *testing.T) {
	r, _ := newTestResolver(t)

	matches, err := r.ResolveFromTags(context.Background(), []string{"E46", "M3"}, models.ResolveOptions{})

	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "bmw-m3-e46", matches[0].VehicleSlug)
	assert.Equal(t, models.MethodPattern, matches[0].Method)
}

func TestResolveFromTags_FamilyFilter(t *testing.T) {
	r, _ := newTestResolver(t)

	matches, err := r.ResolveFromTags(context.Background(), []string{"E46", "M3"}, models.ResolveOptions{
		Families: []string{"bmw-e46-3-series"},
	})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "bmw-3-series-e46", matches[0].VehicleSlug)
}

func TestResolver_InvalidInputIsNotAnError(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	match, err := r.Resolve(ctx, models.ResolveInput{}, models.ResolveOptions{})
	assert.NoError(t, err)
	assert.Nil(t, match)

	match, err = r.ResolveFromYMMS(ctx, models.StructuredQuery{}, models.ResolveOptions{})
	assert.NoError(t, err)
	assert.Nil(t, match)

	matches, err := r.ResolveFromTags(ctx, []string{"", "  "}, models.ResolveOptions{})
	assert.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	matches, err = r.ResolveFromText(ctx, "   ", models.ResolveOptions{})
	assert.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	assert.Equal(t, int32(0), store.calls.Load())
}

func TestResolve_PicksMostConfidentAcrossStrategies(t *testing.T) {
	r, _ := newTestResolver(t)

	match, err := r.Resolve(context.Background(), models.ResolveInput{
		YMMS: &models.StructuredQuery{Make: "BMW", Model: "M3"},
		Tags: []string{"E46", "M3"},
		Text: "universal floor mats",
	}, models.ResolveOptions{})

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "bmw-m3-e46", match.VehicleSlug)
	assert.Equal(t, models.MethodPattern, match.Method)
	assert.Equal(t, 0.9, match.Confidence)
}

func TestResolve_NoMatchAboveFloor(t *testing.T) {
	r, _ := newTestResolver(t)

	match, err := r.Resolve(context.Background(), models.ResolveInput{
		YMMS: &models.StructuredQuery{Make: "BMW", Model: "M3"},
	}, models.ResolveOptions{}.WithMinConfidence(0.95))

	assert.NoError(t, err)
	assert.Nil(t, match)
}

func TestResolve_RaisingFloorOnlyRemovesResults(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()
	tags := []string{"E46", "M3", "2004", "FK8"}

	low, err := r.ResolveFromTags(ctx, tags, models.ResolveOptions{}.WithMinConfidence(0.3))
	require.NoError(t, err)
	high, err := r.ResolveFromTags(ctx, tags, models.ResolveOptions{}.WithMinConfidence(0.8))
	require.NoError(t, err)

	lowSlugs := make(map[string]bool)
	for _, m := range low {
		lowSlugs[m.VehicleSlug] = true
	}
	for _, m := range high {
		assert.True(t, lowSlugs[m.VehicleSlug], m.VehicleSlug)
	}
	assert.Less(t, len(high), len(low))
}

func TestResolveBatch_IndexCorrespondence(t *testing.T) {
	r, store := newTestResolver(t)

	results, err := r.ResolveBatch(context.Background(), []models.ResolveInput{
		{Text: "universal floor mats"},
		{Tags: []string{"E46", "M3"}},
	}, models.ResolveOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	_, hasFirst := results[0]
	assert.False(t, hasFirst)
	require.NotNil(t, results[1])
	assert.Equal(t, "bmw-m3-e46", results[1].VehicleSlug)
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestResolveBatch_Empty(t *testing.T) {
	r, store := newTestResolver(t)

	results, err := r.ResolveBatch(context.Background(), nil, models.ResolveOptions{})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, int32(0), store.calls.Load())
}

func TestResolver_CatalogFailuresPropagate(t *testing.T) {
	tests := []struct {
		name     string
		store    *fixtureStore
		expected error
	}{
		{
			name:     "unreachable store",
			store:    &fixtureStore{err: errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")},
			expected: catalog.ErrCatalogUnavailable,
		},
		{
			name:     "empty catalog",
			store:    &fixtureStore{},
			expected: catalog.ErrCatalogEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(catalog.NewCache(tt.store, catalog.CacheConfig{}, nil))
			ctx := context.Background()

			_, err := r.Resolve(ctx, models.ResolveInput{Tags: []string{"E46"}}, models.ResolveOptions{})
			assert.ErrorIs(t, err, tt.expected)
			assert.True(t, catalog.IsConfigurationError(err))

			_, err = r.ResolveBatch(ctx, []models.ResolveInput{{Text: "E46 M3"}}, models.ResolveOptions{})
			assert.ErrorIs(t, err, tt.expected)

			_, err = r.ResolveFromYMMS(ctx, models.StructuredQuery{Make: "bmw"}, models.ResolveOptions{})
			assert.ErrorIs(t, err, tt.expected)

			_, err = r.ResolveFromTags(ctx, []string{"E46"}, models.ResolveOptions{})
			assert.ErrorIs(t, err, tt.expected)

			_, err = r.ResolveFromText(ctx, "E46 M3", models.ResolveOptions{})
			assert.ErrorIs(t, err, tt.expected)

			_, err = r.ResolveVendorTags(ctx, "acme", []string{"E46"}, models.ResolveOptions{})
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestResolver_InvalidateCatalog(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()
	in := models.ResolveInput{Tags: []string{"FK8"}}

	_, err := r.Resolve(ctx, in, models.ResolveOptions{})
	require.NoError(t, err)
	_, err = r.Resolve(ctx, in, models.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.calls.Load())

	r.InvalidateCatalog()

	match, err := r.Resolve(ctx, in, models.ResolveOptions{})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "honda-civic-type-r-fk8", match.VehicleSlug)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestResolver_WarmCatalog(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	size, err := r.WarmCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fixtureVehicles()), size)

	_, err = r.WarmCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.calls.Load())

	store.err = errors.New("dial tcp: connection refused")
	r.InvalidateCatalog()
	_, err = r.WarmCatalog(ctx)
	require.NoError(t, err, "stale snapshot is served after a failed refresh")
}
