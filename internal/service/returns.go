package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/clients"
	"github.com/Naamio/kauppa/internal/events"
	"github.com/Naamio/kauppa/internal/faults"
	"github.com/Naamio/kauppa/internal/metrics"
	"github.com/Naamio/kauppa/internal/models"
	"github.com/Naamio/kauppa/internal/repository"
)

// ReturnsService schedules return pickups for delivered order units.
type ReturnsService struct {
	orders    *repository.OrderRepository
	shipments clients.ShipmentsClient
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewReturnsService(
	orders *repository.OrderRepository,
	shipments clients.ShipmentsClient,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ReturnsService {
	return &ReturnsService{
		orders:    orders,
		shipments: shipments,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("service", "returns").Logger(),
	}
}

// SchedulePickup schedules a return pickup for an order. An empty item list
// means "pick up everything eligible": for each unit the quantity fulfilled
// but not yet scheduled. Explicit items are validated against the same
// per-unit bound; a single bad item fails the whole request and the order is
// left untouched.
func (s *ReturnsService) SchedulePickup(ctx context.Context, orderID uuid.UUID, items []models.ShipmentItem) (*models.Shipment, error) {
	unlock := s.orders.Lock(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, faults.Newf(faults.InvalidOrderID, "order %s does not exist", orderID)
	}
	if order.IsCancelled() {
		return nil, faults.Newf(faults.InvalidOrderID, "order %s is cancelled", orderID)
	}

	// Mutations go to a clone; a failed scheduling call or store write
	// leaves the held (and cached) aggregate untouched.
	working := order.Clone()

	var collected []models.ShipmentItem
	if len(items) == 0 {
		collected = collectAll(working.Products)
	} else {
		collected, err = collectRequested(working.Products, items)
		if err != nil {
			return nil, err
		}
	}
	if len(collected) == 0 {
		return nil, faults.New(faults.NoItemsToProcess, "no fulfilled units eligible for pickup")
	}

	shipment, err := s.shipments.SchedulePickup(ctx, orderID, collected)
	if err != nil {
		return nil, err
	}

	if working.Shipments == nil {
		working.Shipments = make(map[uuid.UUID]models.ShipmentStatus)
	}
	working.Shipments[shipment.ID] = shipment.Status
	working.UpdatedAt = time.Now().UTC()

	if err := s.orders.Save(ctx, working); err != nil {
		return nil, err
	}

	s.metrics.PickupsScheduled.Inc()
	if err := s.publisher.PickupScheduled(ctx, orderID, shipment); err != nil {
		s.logger.Warn().Err(err).Stringer("order_id", orderID).Msg("failed to publish pickup scheduled event")
	}

	s.logger.Info().Stringer("order_id", orderID).Stringer("shipment_id", shipment.ID).
		Int("items", len(collected)).Msg("pickup scheduled")
	return shipment, nil
}

// collectAll schedules every eligible unit in full, bumping the pickup
// counters in place.
func collectAll(units []models.OrderUnit) []models.ShipmentItem {
	var collected []models.ShipmentItem
	for i := range units {
		untouched := units[i].UntouchedQuantity()
		if untouched == 0 {
			continue
		}
		units[i].PickupQuantity += untouched
		collected = append(collected, models.ShipmentItem{
			ProductID: units[i].ProductID,
			Quantity:  untouched,
		})
	}
	return collected
}

// collectRequested validates each requested item against its unit's eligible
// quantity and bumps the pickup counters in place. Zero-quantity items are
// skipped; unknown products and over-requests fail the whole batch.
func collectRequested(units []models.OrderUnit, items []models.ShipmentItem) ([]models.ShipmentItem, error) {
	var collected []models.ShipmentItem
	for _, item := range items {
		if item.Quantity == 0 {
			continue
		}

		var unit *models.OrderUnit
		for i := range units {
			if units[i].ProductID == item.ProductID {
				unit = &units[i]
				break
			}
		}
		if unit == nil {
			return nil, faults.Newf(faults.InvalidProductID,
				"product %s is not part of this order", item.ProductID)
		}

		untouched := unit.UntouchedQuantity()
		if item.Quantity > untouched {
			return nil, faults.Newf(faults.InvalidReturnQuantity,
				"requested %d units of product %s, only %d eligible for pickup",
				item.Quantity, item.ProductID, untouched).
				WithDetail("product_id", item.ProductID.String()).
				WithDetail("available", strconv.Itoa(int(untouched)))
		}

		unit.PickupQuantity += item.Quantity
		collected = append(collected, models.ShipmentItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return collected, nil
}
