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

// ShipmentsClient schedules return pickups on the shipments service.
type ShipmentsClient interface {
	SchedulePickup(ctx context.Context, orderID uuid.UUID, items []models.ShipmentItem) (*models.Shipment, error)
}

// HTTPShipmentsClient implements ShipmentsClient over HTTP.
type HTTPShipmentsClient struct {
	httpClient
	logger zerolog.Logger
}

func NewHTTPShipmentsClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPShipmentsClient {
	return &HTTPShipmentsClient{
		httpClient: newHTTPClient(cfg),
		logger:     logger.With().Str("client", "shipments").Logger(),
	}
}

func (c *HTTPShipmentsClient) SchedulePickup(ctx context.Context, orderID uuid.UUID, items []models.ShipmentItem) (*models.Shipment, error) {
	req := struct {
		OrderID uuid.UUID             `json:"order_id"`
		Items   []models.ShipmentItem `json:"items"`
	}{OrderID: orderID, Items: items}

	var shipment models.Shipment
	if _, err := c.doJSON(ctx, http.MethodPost, "/pickups", req, &shipment); err != nil {
		c.logger.Error().Err(err).Stringer("order_id", orderID).Msg("failed to schedule pickup")
		return nil, err
	}
	return &shipment, nil
}

// MockShipmentsClient is an in-memory implementation for tests.
type MockShipmentsClient struct {
	mu sync.Mutex

	// Scheduled records every pickup scheduled, in order.
	Scheduled []*models.Shipment
	// Err makes SchedulePickup fail when set.
	Err error
}

func NewMockShipmentsClient() *MockShipmentsClient {
	return &MockShipmentsClient{}
}

func (m *MockShipmentsClient) SchedulePickup(ctx context.Context, orderID uuid.UUID, items []models.ShipmentItem) (*models.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	shipment := &models.Shipment{
		ID:      uuid.New(),
		OrderID: orderID,
		Status:  models.ShipmentPickupScheduled,
		Items:   items,
	}
	m.Scheduled = append(m.Scheduled, shipment)
	clone := *shipment
	return &clone, nil
}
