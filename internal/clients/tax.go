package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/config"
	"github.com/Naamio/kauppa/internal/models"
)

// TaxClient resolves the tax rate for a destination address. Returns
// (nil, nil) when no rate matches the address.
type TaxClient interface {
	GetTaxRate(ctx context.Context, address models.Address) (*models.TaxRate, error)
}

// HTTPTaxClient implements TaxClient over HTTP.
type HTTPTaxClient struct {
	httpClient
	logger zerolog.Logger
}

func NewHTTPTaxClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPTaxClient {
	return &HTTPTaxClient{
		httpClient: newHTTPClient(cfg),
		logger:     logger.With().Str("client", "tax").Logger(),
	}
}

func (c *HTTPTaxClient) GetTaxRate(ctx context.Context, address models.Address) (*models.TaxRate, error) {
	query := url.Values{
		"country":     {address.Country},
		"state":       {address.State},
		"postal_code": {address.PostalCode},
	}

	var rate models.TaxRate
	found, err := c.doJSON(ctx, http.MethodGet, "/rates?"+query.Encode(), nil, &rate)
	if err != nil {
		c.logger.Error().Err(err).Str("country", address.Country).Msg("failed to fetch tax rate")
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &rate, nil
}

// MockTaxClient serves a fixed rate for every address in tests.
type MockTaxClient struct {
	Rate *models.TaxRate
}

func NewMockTaxClient(rate *models.TaxRate) *MockTaxClient {
	return &MockTaxClient{Rate: rate}
}

func (m *MockTaxClient) GetTaxRate(ctx context.Context, address models.Address) (*models.TaxRate, error) {
	if m.Rate == nil {
		return nil, nil
	}
	clone := *m.Rate
	return &clone, nil
}
