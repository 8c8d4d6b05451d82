package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/metrics"
	"github.com/Naamio/kauppa/internal/models"
)

// CartRepository is a write-through cache over a CartStore. A cache hit
// always wins; the store is only consulted on a miss and never mid-operation.
// Cache failures degrade to store reads instead of failing the request.
type CartRepository struct {
	store   CartStore
	cache   CartCache
	locks   *KeyedMutex
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewCartRepository(store CartStore, cache CartCache, m *metrics.Metrics, logger zerolog.Logger) *CartRepository {
	return &CartRepository{
		store:   store,
		cache:   cache,
		locks:   NewKeyedMutex(),
		metrics: m,
		logger:  logger.With().Str("repository", "carts").Logger(),
	}
}

// Lock serializes access to one account's cart. Callers must hold the lock
// for the whole read-modify-write cycle.
func (r *CartRepository) Lock(accountID uuid.UUID) (unlock func()) {
	return r.locks.Lock(accountID)
}

// GetOrCreate fetches the account's cart, creating an empty one lazily on
// first access.
func (r *CartRepository) GetOrCreate(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	cart, err := r.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = models.NewCart(accountID)
	if err := r.store.CreateCart(ctx, cart); err != nil {
		return nil, err
	}
	r.setCache(ctx, cart)
	return cart, nil
}

// Get fetches the account's cart, or (nil, nil) when none exists.
func (r *CartRepository) Get(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	cached, err := r.cache.Get(ctx, accountID)
	if err == nil && cached != nil {
		r.metrics.CacheHits.WithLabelValues("cart").Inc()
		return cached, nil
	}
	r.metrics.CacheMisses.WithLabelValues("cart").Inc()

	cart, err := r.store.GetCart(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		r.setCache(ctx, cart)
	}
	return cart, nil
}

// Save writes the cart through to the store and refreshes the cache.
func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if err := r.store.UpdateCart(ctx, cart); err != nil {
		return err
	}
	r.setCache(ctx, cart)
	return nil
}

func (r *CartRepository) setCache(ctx context.Context, cart *models.Cart) {
	if err := r.cache.Set(ctx, cart); err != nil {
		r.logger.Warn().Err(err).Stringer("account_id", cart.AccountID).Msg("failed to cache cart")
	}
}

// OrderRepository is a write-through cache over an OrderStore, with the same
// hit-wins policy as CartRepository.
type OrderRepository struct {
	store   OrderStore
	cache   OrderCache
	locks   *KeyedMutex
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewOrderRepository(store OrderStore, cache OrderCache, m *metrics.Metrics, logger zerolog.Logger) *OrderRepository {
	return &OrderRepository{
		store:   store,
		cache:   cache,
		locks:   NewKeyedMutex(),
		metrics: m,
		logger:  logger.With().Str("repository", "orders").Logger(),
	}
}

// Lock serializes access to one order. Callers must hold the lock for the
// whole read-modify-write cycle.
func (r *OrderRepository) Lock(orderID uuid.UUID) (unlock func()) {
	return r.locks.Lock(orderID)
}

// Create persists a freshly placed order and caches it.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.store.CreateOrder(ctx, order); err != nil {
		return err
	}
	r.setCache(ctx, order)
	return nil
}

// Get fetches an order, or (nil, nil) when it does not exist.
func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	cached, err := r.cache.Get(ctx, id)
	if err == nil && cached != nil {
		r.metrics.CacheHits.WithLabelValues("order").Inc()
		return cached, nil
	}
	r.metrics.CacheMisses.WithLabelValues("order").Inc()

	order, err := r.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order != nil {
		r.setCache(ctx, order)
	}
	return order, nil
}

// List fetches the orders placed by an account, newest first. The listing
// goes straight to the store; only single-aggregate reads are cached.
func (r *OrderRepository) List(ctx context.Context, placedBy uuid.UUID) ([]*models.Order, error) {
	return r.store.ListOrders(ctx, placedBy)
}

// Save writes the order through to the store and refreshes the cache.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	if err := r.store.UpdateOrder(ctx, order); err != nil {
		return err
	}
	r.setCache(ctx, order)
	return nil
}

func (r *OrderRepository) setCache(ctx context.Context, order *models.Order) {
	if err := r.cache.Set(ctx, order); err != nil {
		r.logger.Warn().Err(err).Stringer("order_id", order.ID).Msg("failed to cache order")
	}
}
