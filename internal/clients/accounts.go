package clients

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/config"
	"github.com/Naamio/kauppa/internal/models"
)

// AccountsClient looks up accounts on the accounts service. Lookups return
// (nil, nil) when the account does not exist.
type AccountsClient interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// HTTPAccountsClient implements AccountsClient over HTTP.
type HTTPAccountsClient struct {
	httpClient
	logger zerolog.Logger
}

func NewHTTPAccountsClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPAccountsClient {
	return &HTTPAccountsClient{
		httpClient: newHTTPClient(cfg),
		logger:     logger.With().Str("client", "accounts").Logger(),
	}
}

func (c *HTTPAccountsClient) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	found, err := c.doJSON(ctx, http.MethodGet, "/accounts/"+id.String(), nil, &account)
	if err != nil {
		c.logger.Error().Err(err).Stringer("account_id", id).Msg("failed to fetch account")
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &account, nil
}

// MockAccountsClient is an in-memory implementation for tests.
type MockAccountsClient struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func NewMockAccountsClient() *MockAccountsClient {
	return &MockAccountsClient{accounts: make(map[uuid.UUID]*models.Account)}
}

func (m *MockAccountsClient) AddAccount(a *models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

func (m *MockAccountsClient) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	clone := *a
	return &clone, nil
}
