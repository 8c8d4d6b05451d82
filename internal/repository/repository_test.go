package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naamio/kauppa/internal/metrics"
	"github.com/Naamio/kauppa/internal/models"
)

func newCartRepo(capacity int) (*CartRepository, *MemoryCartCache) {
	cache := NewMemoryCartCache(capacity)
	repo := NewCartRepository(NewMemoryCartStore(), cache,
		metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	return repo, cache
}

func TestCartRepository_GetOrCreate_Lazy(t *testing.T) {
	repo, _ := newCartRepo(4)
	ctx := context.Background()
	accountID := uuid.New()

	cart, err := repo.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Nil(t, cart)

	cart, err = repo.GetOrCreate(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, accountID, cart.AccountID)
	assert.True(t, cart.IsEmpty())

	again, err := repo.GetOrCreate(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartRepository_WriteThrough(t *testing.T) {
	repo, cache := newCartRepo(4)
	ctx := context.Background()
	accountID := uuid.New()

	cart, err := repo.GetOrCreate(ctx, accountID)
	require.NoError(t, err)

	cart.Units = []models.CartUnit{{ProductID: uuid.New(), Quantity: 2}}
	require.NoError(t, repo.Save(ctx, cart))

	// Both the cache and the store see the update.
	cached, err := cache.Get(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Len(t, cached.Units, 1)

	require.NoError(t, cache.Delete(ctx, accountID))
	fromStore, err := repo.Get(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, fromStore)
	assert.Len(t, fromStore.Units, 1)
}

func TestCartRepository_CacheHitWins(t *testing.T) {
	repo, cache := newCartRepo(4)
	ctx := context.Background()
	accountID := uuid.New()

	cart, err := repo.GetOrCreate(ctx, accountID)
	require.NoError(t, err)

	// Poke a divergent copy straight into the cache; Get must return it
	// without consulting the store.
	divergent := cart.Clone()
	divergent.Units = []models.CartUnit{{ProductID: uuid.New(), Quantity: 9}}
	require.NoError(t, cache.Set(ctx, divergent))

	got, err := repo.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, got.Units, 1)
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	cache := NewMemoryOrderCache(4)
	repo := NewOrderRepository(NewMemoryOrderStore(), cache,
		metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	ctx := context.Background()

	order := &models.Order{
		ID:        uuid.New(),
		PlacedBy:  uuid.New(),
		Currency:  models.USD,
		CreatedOn: time.Now().UTC(),
		NetPrice:  models.NewPrice("10.00", models.USD),
	}
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.ID, got.ID)

	// Survives cache eviction.
	require.NoError(t, cache.Delete(ctx, order.ID))
	got, err = repo.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.NetPrice.Equal(order.NetPrice))
}

func TestOrderRepository_List(t *testing.T) {
	repo := NewOrderRepository(NewMemoryOrderStore(), NewMemoryOrderCache(4),
		metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	ctx := context.Background()
	placedBy := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Order{
			ID:        uuid.New(),
			PlacedBy:  placedBy,
			CreatedOn: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Order{ID: uuid.New(), PlacedBy: uuid.New()}))

	orders, err := repo.List(ctx, placedBy)
	require.NoError(t, err)
	require.Len(t, orders, 3)

	// Newest first.
	assert.True(t, orders[0].CreatedOn.After(orders[1].CreatedOn))
	assert.True(t, orders[1].CreatedOn.After(orders[2].CreatedOn))
}

func TestLRU_EvictsOldest(t *testing.T) {
	cache := newLRU(2)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	cache.set(a, "a")
	cache.set(b, "b")

	// Touch a so b becomes the eviction candidate.
	_, ok := cache.get(a)
	require.True(t, ok)

	cache.set(c, "c")
	assert.Equal(t, 2, cache.len())

	_, ok = cache.get(b)
	assert.False(t, ok)
	_, ok = cache.get(a)
	assert.True(t, ok)
	_, ok = cache.get(c)
	assert.True(t, ok)
}

func TestLRU_UpdateDoesNotGrow(t *testing.T) {
	cache := newLRU(2)
	key := uuid.New()

	cache.set(key, 1)
	cache.set(key, 2)
	assert.Equal(t, 1, cache.len())

	v, ok := cache.get(key)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	locks := NewKeyedMutex()
	key := uuid.New()

	var mu sync.Mutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(key)
			defer unlock()

			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)

	// All entries released, the map must be empty again.
	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locks := NewKeyedMutex()

	unlockA := locks.Lock(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(uuid.New())
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent keys must not block each other")
	}
}
