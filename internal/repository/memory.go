package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Naamio/kauppa/internal/models"
)

// MemoryCartStore is an in-process CartStore used in tests and local
// development. Aggregates are kept as JSON blobs so reads return independent
// copies, matching the isolation of a real store.
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[uuid.UUID][]byte
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[uuid.UUID][]byte)}
}

func (s *MemoryCartStore) CreateCart(ctx context.Context, cart *models.Cart) error {
	return s.put(cart)
}

func (s *MemoryCartStore) GetCart(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.carts[accountID]
	if !ok {
		return nil, nil
	}
	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *MemoryCartStore) UpdateCart(ctx context.Context, cart *models.Cart) error {
	return s.put(cart)
}

func (s *MemoryCartStore) put(cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.AccountID] = data
	return nil
}

// MemoryOrderStore is an in-process OrderStore used in tests and local
// development.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[uuid.UUID][]byte
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[uuid.UUID][]byte)}
}

func (s *MemoryOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.put(order)
}

func (s *MemoryOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MemoryOrderStore) ListOrders(ctx context.Context, placedBy uuid.UUID) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []*models.Order
	for _, data := range s.orders {
		var order models.Order
		if err := json.Unmarshal(data, &order); err != nil {
			return nil, err
		}
		if order.PlacedBy == placedBy {
			orders = append(orders, &order)
		}
	}
	// Newest first, same contract as the postgres store.
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedOn.After(orders[j].CreatedOn)
	})
	return orders, nil
}

func (s *MemoryOrderStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	return s.put(order)
}

func (s *MemoryOrderStore) put(order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = data
	return nil
}
