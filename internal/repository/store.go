// Package repository provides the persistence layer for the cart and order
// aggregates: a store contract per aggregate, a write-through cache in front
// of it and per-aggregate-ID locking so concurrent operations on the same
// cart or order cannot lose updates.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Naamio/kauppa/internal/models"
)

// CartStore is the persistence contract for carts. Carts are keyed by the
// owning account. Get returns (nil, nil) when no cart exists yet.
type CartStore interface {
	CreateCart(ctx context.Context, cart *models.Cart) error
	GetCart(ctx context.Context, accountID uuid.UUID) (*models.Cart, error)
	UpdateCart(ctx context.Context, cart *models.Cart) error
}

// OrderStore is the persistence contract for orders.
// GetOrder returns (nil, nil) when the order does not exist.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, placedBy uuid.UUID) ([]*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
}

// CartCache caches cart aggregates keyed by account ID. Implementations
// return (nil, nil) on a miss; cache errors are reported but callers treat
// them as misses.
type CartCache interface {
	Get(ctx context.Context, accountID uuid.UUID) (*models.Cart, error)
	Set(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, accountID uuid.UUID) error
}

// OrderCache caches order aggregates keyed by order ID.
type OrderCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}
