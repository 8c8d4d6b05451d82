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

// CouponsClient looks up coupons and persists balance deductions on the
// coupons service. Lookups return (nil, nil) when no coupon matches.
type CouponsClient interface {
	GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance models.Price) (*models.Coupon, error)
}

// HTTPCouponsClient implements CouponsClient over HTTP.
type HTTPCouponsClient struct {
	httpClient
	logger zerolog.Logger
}

func NewHTTPCouponsClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPCouponsClient {
	return &HTTPCouponsClient{
		httpClient: newHTTPClient(cfg),
		logger:     logger.With().Str("client", "coupons").Logger(),
	}
}

func (c *HTTPCouponsClient) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	found, err := c.doJSON(ctx, http.MethodGet, "/coupons/"+id.String(), nil, &coupon)
	if err != nil {
		c.logger.Error().Err(err).Stringer("coupon_id", id).Msg("failed to fetch coupon")
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &coupon, nil
}

func (c *HTTPCouponsClient) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	query := url.Values{"code": {code}}
	found, err := c.doJSON(ctx, http.MethodGet, "/coupons?"+query.Encode(), nil, &coupon)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to fetch coupon by code")
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &coupon, nil
}

func (c *HTTPCouponsClient) UpdateBalance(ctx context.Context, id uuid.UUID, balance models.Price) (*models.Coupon, error) {
	patch := struct {
		Balance models.Price `json:"balance"`
	}{Balance: balance}

	var coupon models.Coupon
	found, err := c.doJSON(ctx, http.MethodPatch, "/coupons/"+id.String(), patch, &coupon)
	if err != nil {
		c.logger.Error().Err(err).Stringer("coupon_id", id).Msg("failed to update coupon balance")
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &coupon, nil
}

// MockCouponsClient is an in-memory implementation for tests.
type MockCouponsClient struct {
	mu      sync.Mutex
	coupons map[uuid.UUID]*models.Coupon

	// BalanceUpdates records UpdateBalance calls in order.
	BalanceUpdates []uuid.UUID
	// FailBalanceUpdate makes UpdateBalance fail for the given coupons.
	FailBalanceUpdate map[uuid.UUID]error
}

func NewMockCouponsClient() *MockCouponsClient {
	return &MockCouponsClient{
		coupons:           make(map[uuid.UUID]*models.Coupon),
		FailBalanceUpdate: make(map[uuid.UUID]error),
	}
}

func (m *MockCouponsClient) AddCoupon(c *models.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[c.ID] = c
}

func (m *MockCouponsClient) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (m *MockCouponsClient) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.Code == code {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockCouponsClient) UpdateBalance(ctx context.Context, id uuid.UUID, balance models.Price) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailBalanceUpdate[id]; ok {
		return nil, err
	}
	c, ok := m.coupons[id]
	if !ok {
		return nil, nil
	}
	c.Balance = balance
	m.BalanceUpdates = append(m.BalanceUpdates, id)
	clone := *c
	return &clone, nil
}
