package mapping

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	Store
	gets int
}

func (c *countingStore) GetExistingMapping(ctx context.Context, vendorKey, vendorTag string) (*models.LearnedMapping, error) {
	c.gets++
	return c.Store.GetExistingMapping(ctx, vendorKey, vendorTag)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheKey_SeparatorInParts(t *testing.T) {
	assert.NotEqual(t, CacheKey("a:b", "c"), CacheKey("a", "b:c"))
	assert.Equal(t, "fitment:mapping:acme:E46+M3", CacheKey("acme", "E46 M3"))
}

func TestCachedStore_VendorKeysWithColonsDoNotShareEntries(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredis(t)

	backing := NewMemoryStore()
	require.NoError(t, backing.SaveMapping(ctx, models.LearnedMapping{
		VendorKey: "a:b", VendorTag: "c", VehicleSlug: "bmw-m3-e46", Confidence: 0.9,
	}))
	require.NoError(t, backing.SaveMapping(ctx, models.LearnedMapping{
		VendorKey: "a", VendorTag: "b:c", VehicleSlug: "honda-civic-type-r-fk8", Confidence: 0.9,
	}))
	store := NewCachedStore(backing, client, time.Minute, logger.NewTestLogger(t))

	first, err := store.GetExistingMapping(ctx, "a:b", "c")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "bmw-m3-e46", first.VehicleSlug)

	second, err := store.GetExistingMapping(ctx, "a", "b:c")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "honda-civic-type-r-fk8", second.VehicleSlug)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)

	backing := &countingStore{Store: NewMemoryStore()}
	require.NoError(t, backing.SaveMapping(ctx, sampleMapping()))

	store := NewCachedStore(backing, client, 10*time.Minute, logger.NewTestLogger(t))

	first, err := store.GetExistingMapping(ctx, "acme", "E46 M3")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, mr.Exists(CacheKey("acme", "E46 M3")))
	assert.Equal(t, 10*time.Minute, mr.TTL(CacheKey("acme", "E46 M3")))

	second, err := store.GetExistingMapping(ctx, "acme", "E46 M3")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.VehicleSlug, second.VehicleSlug)
	assert.Equal(t, 1, backing.gets)
}

func TestCachedStore_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)

	store := NewCachedStore(NewMemoryStore(), client, time.Minute, nil)

	got, err := store.GetExistingMapping(ctx, "acme", "unknown")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(CacheKey("acme", "unknown")))
}

func TestCachedStore_SaveDropsCachedEntry(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)

	backing := NewMemoryStore()
	store := NewCachedStore(backing, client, time.Minute, nil)

	require.NoError(t, store.SaveMapping(ctx, sampleMapping()))
	_, err := store.GetExistingMapping(ctx, "acme", "E46 M3")
	require.NoError(t, err)
	require.True(t, mr.Exists(CacheKey("acme", "E46 M3")))

	updated := sampleMapping()
	updated.VehicleSlug = "bmw-3-series-e46"
	require.NoError(t, store.SaveMapping(ctx, updated))
	assert.False(t, mr.Exists(CacheKey("acme", "E46 M3")))

	got, err := store.GetExistingMapping(ctx, "acme", "E46 M3")
	require.NoError(t, err)
	assert.Equal(t, "bmw-3-series-e46", got.VehicleSlug)
	assert.Equal(t, 1, backing.Len())
}

func TestCachedStore_CorruptEntryFallsThrough(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)

	backing := NewMemoryStore()
	require.NoError(t, backing.SaveMapping(ctx, sampleMapping()))
	require.NoError(t, mr.Set(CacheKey("acme", "E46 M3"), "{not json"))

	got, err := NewCachedStore(backing, client, time.Minute, nil).GetExistingMapping(ctx, "acme", "E46 M3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bmw-m3-e46", got.VehicleSlug)
}

func TestCachedStore_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()

	key := CacheKey("acme", "E46 M3")
	mock.ExpectGet(key).SetErr(errors.New("dial tcp: connection refused"))

	got, err := NewCachedStore(NewMemoryStore(), client, time.Minute, nil).GetExistingMapping(ctx, "acme", "E46 M3")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedStore_SaveSucceedsWhenInvalidationFails(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	backing := NewMemoryStore()

	mock.ExpectDel(CacheKey("acme", "E46 M3")).SetErr(errors.New("READONLY"))

	require.NoError(t, NewCachedStore(backing, client, time.Minute, nil).SaveMapping(ctx, sampleMapping()))
	assert.Equal(t, 1, backing.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedStore_BackingErrorPropagates(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredis(t)

	failing := &failingStore{err: errors.New("db down")}
	store := NewCachedStore(failing, client, time.Minute, nil)

	_, err := store.GetExistingMapping(ctx, "acme", "E46")
	assert.EqualError(t, err, "db down")
	assert.EqualError(t, store.SaveMapping(ctx, sampleMapping()), "db down")
}

type failingStore struct {
	err error
}

func (f *failingStore) GetExistingMapping(context.Context, string, string) (*models.LearnedMapping, error) {
	return nil, f.err
}

func (f *failingStore) SaveMapping(context.Context, models.LearnedMapping) error {
	return f.err
}
