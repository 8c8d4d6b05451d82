package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Naamio/kauppa/internal/clients"
	"github.com/Naamio/kauppa/internal/events"
	"github.com/Naamio/kauppa/internal/faults"
	"github.com/Naamio/kauppa/internal/metrics"
	"github.com/Naamio/kauppa/internal/models"
	"github.com/Naamio/kauppa/internal/repository"
)

// OrderRequestUnit is one requested line of an order: a product and a
// quantity. Pricing is always recomputed by the factory, never taken from
// the caller.
type OrderRequestUnit struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint8     `json:"quantity"`
}

// OrderRequest is the input to the order factory, normally a cart snapshot.
type OrderRequest struct {
	PlacedBy        uuid.UUID          `json:"placed_by"`
	ShippingAddress models.Address     `json:"shipping_address"`
	BillingAddress  models.Address     `json:"billing_address"`
	Units           []OrderRequestUnit `json:"units"`
	Coupons         []uuid.UUID        `json:"coupons,omitempty"`
}

// OrderService is the order factory: a one-shot, all-or-nothing conversion
// of an order request into a persisted order, coordinating the products,
// accounts, tax and coupons services per unit.
type OrderService struct {
	orders    *repository.OrderRepository
	products  clients.ProductsClient
	accounts  clients.AccountsClient
	tax       clients.TaxClient
	coupons   clients.CouponsClient
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewOrderService(
	orders *repository.OrderRepository,
	products clients.ProductsClient,
	accounts clients.AccountsClient,
	tax clients.TaxClient,
	coupons clients.CouponsClient,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		accounts:  accounts,
		tax:       tax,
		coupons:   coupons,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("service", "orders").Logger(),
	}
}

// CreateOrder validates, prices and persists an order. Units are processed
// strictly in input order: the first priced unit fixes the order currency
// and inventory is reserved against a running ledger, so duplicate product
// lines are caught before any external mutation.
func (s *OrderService) CreateOrder(ctx context.Context, req *OrderRequest) (*models.Order, error) {
	order, err := s.createOrder(ctx, req)
	if err != nil {
		s.metrics.OrderFailures.WithLabelValues(string(faults.KindOf(err))).Inc()
		return nil, err
	}
	s.metrics.OrdersPlaced.Inc()
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, req *OrderRequest) (*models.Order, error) {
	account, err := s.accounts.GetAccount(ctx, req.PlacedBy)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, faults.Newf(faults.InvalidAccountID, "account %s does not exist", req.PlacedBy)
	}
	if !account.HasVerifiedEmail() {
		return nil, faults.Newf(faults.UnverifiedAccount,
			"account %s has no verified email", req.PlacedBy)
	}

	rate, err := s.tax.GetTaxRate(ctx, req.ShippingAddress)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		// No configured rate for the destination; the order proceeds
		// untaxed rather than blocking the region.
		s.logger.Warn().Str("country", req.ShippingAddress.Country).
			Msg("no tax rate for destination, assuming zero")
		rate = &models.TaxRate{}
	}

	ledger := newInventoryLedger()
	var (
		currency    models.Currency
		totalPrice  models.Price
		totalTax    models.Price
		totalWeight decimal.Decimal
		totalItems  uint16
		units       []models.OrderUnit
	)

	for _, unit := range req.Units {
		if unit.Quantity == 0 {
			continue
		}

		product, err := s.products.GetProduct(ctx, unit.ProductID, &req.ShippingAddress)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, faults.Newf(faults.InvalidProductID, "product %s does not exist", unit.ProductID)
		}

		if currency == "" {
			currency = product.Price.Currency
			totalPrice = models.ZeroPrice(currency)
			totalTax = models.ZeroPrice(currency)
		} else if currency != product.Price.Currency {
			return nil, faults.Newf(faults.AmbiguousCurrencies,
				"product %s is priced in %s, order is in %s",
				product.ID, product.Price.Currency, currency)
		}

		if err := ledger.reserve(product, unit.Quantity); err != nil {
			return nil, err
		}

		pricing := priceUnit(product, unit.Quantity, rate)
		if totalPrice, err = totalPrice.Add(pricing.net); err != nil {
			return nil, err
		}
		if !product.TaxInclusive {
			if totalTax, err = totalTax.Add(pricing.tax); err != nil {
				return nil, err
			}
		}
		totalWeight = totalWeight.Add(product.WeightGrams.Mul(decimal.NewFromInt(int64(unit.Quantity))))
		totalItems += uint16(unit.Quantity)

		units = append(units, models.OrderUnit{
			ProductID:  unit.ProductID,
			Quantity:   unit.Quantity,
			TaxRate:    pricing.taxRate,
			Tax:        pricing.tax,
			NetPrice:   pricing.net,
			GrossPrice: pricing.gross,
		})
	}

	if ledger.empty() {
		return nil, faults.New(faults.NoItemsToProcess, "order has no billable units")
	}

	orderID := uuid.New()
	s.commitInventory(ctx, orderID, ledger)

	finalPrice, err := totalPrice.Add(totalTax)
	if err != nil {
		return nil, err
	}
	finalPrice, err = s.redeemCoupons(ctx, req.Coupons, finalPrice)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:               orderID,
		PlacedBy:         req.PlacedBy,
		Currency:         currency,
		ShippingAddress:  req.ShippingAddress,
		BillingAddress:   req.BillingAddress,
		CreatedOn:        now,
		TotalItems:       totalItems,
		NetPrice:         totalPrice,
		TotalTax:         totalTax,
		GrossPrice:       finalPrice,
		TotalWeightGrams: totalWeight,
		Products:         units,
		Shipments:        make(map[uuid.UUID]models.ShipmentStatus),
		Coupons:          req.Coupons,
		UpdatedAt:        now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.publisher.OrderPlaced(ctx, order); err != nil {
		s.logger.Warn().Err(err).Stringer("order_id", order.ID).Msg("failed to publish order placed event")
	}

	s.logger.Info().Stringer("order_id", order.ID).Stringer("placed_by", order.PlacedBy).
		Uint16("total_items", order.TotalItems).Str("gross", order.GrossPrice.String()).
		Msg("order placed")
	return order, nil
}

// commitInventory pushes the ledger's final balances to the products
// service, one call per distinct product in first-seen order. Commits are
// best-effort: a failed update is logged, counted and emitted for
// reconciliation, but never aborts order creation.
func (s *OrderService) commitInventory(ctx context.Context, orderID uuid.UUID, ledger *inventoryLedger) {
	ledger.each(func(productID uuid.UUID, balance uint32) {
		product, err := s.products.UpdateInventory(ctx, productID, balance)
		if err == nil && product == nil {
			err = fmt.Errorf("product %s disappeared during inventory commit", productID)
		}
		if err != nil {
			s.logger.Error().Err(err).Stringer("order_id", orderID).
				Stringer("product_id", productID).Uint32("balance", balance).
				Msg("inventory commit failed, order proceeds")
			s.metrics.InventoryCommitFailures.Inc()
			if perr := s.publisher.InventoryCommitFailed(ctx, orderID, productID, balance, err); perr != nil {
				s.logger.Warn().Err(perr).Msg("failed to publish inventory commit failure")
			}
		}
	})
}

// redeemCoupons validates every applied coupon and deducts the order's final
// price from their balances in application order. Validation of the whole
// set happens before any balance is persisted; one invalid coupon fails the
// entire placement. A coupon listed more than once is applied once, matching
// the cart's re-apply no-op.
func (s *OrderService) redeemCoupons(ctx context.Context, couponIDs []uuid.UUID, finalPrice models.Price) (models.Price, error) {
	if len(couponIDs) == 0 {
		return finalPrice, nil
	}

	now := time.Now().UTC()
	type redemption struct {
		id      uuid.UUID
		balance models.Price
	}
	redemptions := make([]redemption, 0, len(couponIDs))
	seen := make(map[uuid.UUID]struct{}, len(couponIDs))

	for _, id := range couponIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		coupon, err := s.coupons.GetCoupon(ctx, id)
		if err != nil {
			return finalPrice, err
		}
		if coupon == nil {
			return finalPrice, faults.Newf(faults.InvalidCouponCode, "coupon %s does not exist", id)
		}
		if err := coupon.Validate(finalPrice.Currency, now); err != nil {
			return finalPrice, err
		}

		deduction, err := coupon.Balance.Min(finalPrice)
		if err != nil {
			return finalPrice, err
		}
		if finalPrice, err = finalPrice.Sub(deduction); err != nil {
			return finalPrice, err
		}
		balance, err := coupon.Balance.Sub(deduction)
		if err != nil {
			return finalPrice, err
		}
		redemptions = append(redemptions, redemption{id: id, balance: balance})
	}

	for _, r := range redemptions {
		if _, err := s.coupons.UpdateBalance(ctx, r.id, r.balance); err != nil {
			return finalPrice, err
		}
	}
	return finalPrice, nil
}

// GetOrder fetches an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, faults.Newf(faults.InvalidOrderID, "order %s does not exist", id)
	}
	return order, nil
}

// ListOrders fetches the orders placed by an account, newest first.
func (s *OrderService) ListOrders(ctx context.Context, placedBy uuid.UUID) ([]*models.Order, error) {
	return s.orders.List(ctx, placedBy)
}

// CancelOrder marks an order cancelled. Cancelling an already-cancelled
// order is a no-op.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	unlock := s.orders.Lock(id)
	defer unlock()

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsCancelled() {
		return order, nil
	}

	working := order.Clone()
	now := time.Now().UTC()
	working.CancelledAt = &now
	if err := s.orders.Save(ctx, working); err != nil {
		return nil, err
	}

	if err := s.publisher.OrderCancelled(ctx, working); err != nil {
		s.logger.Warn().Err(err).Stringer("order_id", working.ID).Msg("failed to publish order cancelled event")
	}
	return working, nil
}

// UpdateShipment records a shipment status change reported by the shipments
// service. A delivered shipment bumps the fulfilled quantity of the matching
// units, which is what makes them eligible for return pickup.
func (s *OrderService) UpdateShipment(ctx context.Context, orderID uuid.UUID, shipment models.Shipment) (*models.Order, error) {
	unlock := s.orders.Lock(orderID)
	defer unlock()

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	working := order.Clone()
	if working.Shipments == nil {
		working.Shipments = make(map[uuid.UUID]models.ShipmentStatus)
	}
	working.Shipments[shipment.ID] = shipment.Status

	if shipment.Status == models.ShipmentDelivered {
		for _, item := range shipment.Items {
			unit := working.UnitFor(item.ProductID)
			if unit == nil {
				continue
			}
			fulfilled := uint16(unit.FulfilledQuantity) + uint16(item.Quantity)
			if fulfilled > uint16(unit.Quantity) {
				fulfilled = uint16(unit.Quantity)
			}
			unit.FulfilledQuantity = uint8(fulfilled)
		}
	}

	if err := s.orders.Save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}
