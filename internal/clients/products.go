package clients

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/config"
	"github.com/Naamio/kauppa/internal/models"
)

// ProductsClient provides product lookup and inventory updates against the
// products service. Lookups return (nil, nil) when the product does not
// exist.
type ProductsClient interface {
	// GetProduct fetches a product, optionally scoped to a destination
	// address (region-specific pricing).
	GetProduct(ctx context.Context, id uuid.UUID, address *models.Address) (*models.Product, error)
	// UpdateInventory sets the product's remaining inventory.
	UpdateInventory(ctx context.Context, id uuid.UUID, inventory uint32) (*models.Product, error)
}

// HTTPProductsClient implements ProductsClient over HTTP.
type HTTPProductsClient struct {
	httpClient
	logger zerolog.Logger
}

func NewHTTPProductsClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPProductsClient {
	return &HTTPProductsClient{
		httpClient: newHTTPClient(cfg),
		logger:     logger.With().Str("client", "products").Logger(),
	}
}

func (c *HTTPProductsClient) GetProduct(ctx context.Context, id uuid.UUID, address *models.Address) (*models.Product, error) {
	path := "/products/" + id.String()
	if address != nil {
		query := url.Values{"country": {address.Country}, "postal_code": {address.PostalCode}}
		path += "?" + query.Encode()
	}

	var product models.Product
	found, err := c.doJSON(ctx, http.MethodGet, path, nil, &product)
	if err != nil {
		c.logger.Error().Err(err).Stringer("product_id", id).Msg("failed to fetch product")
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &product, nil
}

func (c *HTTPProductsClient) UpdateInventory(ctx context.Context, id uuid.UUID, inventory uint32) (*models.Product, error) {
	patch := struct {
		Inventory uint32 `json:"inventory"`
	}{Inventory: inventory}

	var product models.Product
	found, err := c.doJSON(ctx, http.MethodPatch, "/products/"+id.String(), patch, &product)
	if err != nil {
		c.logger.Error().Err(err).Stringer("product_id", id).
			Uint32("inventory", inventory).Msg("failed to update inventory")
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &product, nil
}

// MockProductsClient is an in-memory implementation for tests.
type MockProductsClient struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product

	// InventoryUpdates records UpdateInventory calls in order.
	InventoryUpdates []InventoryUpdate
	// FailInventoryUpdate makes UpdateInventory fail for the given products.
	FailInventoryUpdate map[uuid.UUID]error
}

// InventoryUpdate is one recorded UpdateInventory call.
type InventoryUpdate struct {
	ProductID uuid.UUID
	Inventory uint32
}

func NewMockProductsClient() *MockProductsClient {
	return &MockProductsClient{
		products:            make(map[uuid.UUID]*models.Product),
		FailInventoryUpdate: make(map[uuid.UUID]error),
	}
}

func (m *MockProductsClient) AddProduct(p *models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MockProductsClient) GetProduct(ctx context.Context, id uuid.UUID, address *models.Address) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *MockProductsClient) UpdateInventory(ctx context.Context, id uuid.UUID, inventory uint32) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailInventoryUpdate[id]; ok {
		return nil, err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	p.Inventory = inventory
	m.InventoryUpdates = append(m.InventoryUpdates, InventoryUpdate{ProductID: id, Inventory: inventory})
	clone := *p
	return &clone, nil
}
