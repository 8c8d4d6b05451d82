package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderUnit is one priced line of a placed order, together with its
// per-unit fulfillment and return-pickup counters.
//
// Invariant: PickupQuantity <= FulfilledQuantity <= Quantity.
type OrderUnit struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint8     `json:"quantity"`

	TaxRate    float64 `json:"tax_rate"`
	Tax        Price   `json:"tax"`
	NetPrice   Price   `json:"net_price"`
	GrossPrice Price   `json:"gross_price"`

	FulfilledQuantity uint8 `json:"fulfilled_quantity"`
	PickupQuantity    uint8 `json:"pickup_quantity"`
}

// UntouchedQuantity is the number of units fulfilled but not yet scheduled
// for return pickup.
func (u *OrderUnit) UntouchedQuantity() uint8 {
	return u.FulfilledQuantity - u.PickupQuantity
}

// ShipmentStatus is the lifecycle state of a shipment as reported by the
// shipments service.
type ShipmentStatus string

const (
	ShipmentShipping        ShipmentStatus = "shipping"
	ShipmentShipped         ShipmentStatus = "shipped"
	ShipmentDelivered       ShipmentStatus = "delivered"
	ShipmentPickupScheduled ShipmentStatus = "pickup_scheduled"
	ShipmentReturned        ShipmentStatus = "returned"
)

// ShipmentItem is a product/quantity pair within a shipment or pickup.
type ShipmentItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint8     `json:"quantity"`
}

// Shipment is the slice of the shipments service's aggregate the order flow
// tracks.
type Shipment struct {
	ID      uuid.UUID      `json:"id"`
	OrderID uuid.UUID      `json:"order_id"`
	Status  ShipmentStatus `json:"status"`
	Items   []ShipmentItem `json:"items"`
}

// Order is created exactly once from a cart snapshot at placement time.
// ID, PlacedBy, Currency, the addresses and CreatedOn are immutable after
// creation; totals, unit counters, the shipment map and CancelledAt mutate as
// the order is fulfilled and returned.
//
// Invariant: GrossPrice == NetPrice + TotalTax - coupon deductions. Coupon
// deductions reduce the gross only, never net or tax.
type Order struct {
	ID              uuid.UUID `json:"id"`
	PlacedBy        uuid.UUID `json:"placed_by"`
	Currency        Currency  `json:"currency"`
	ShippingAddress Address   `json:"shipping_address"`
	BillingAddress  Address   `json:"billing_address"`
	CreatedOn       time.Time `json:"created_on"`

	TotalItems       uint16          `json:"total_items"`
	NetPrice         Price           `json:"net_price"`
	TotalTax         Price           `json:"total_tax"`
	GrossPrice       Price           `json:"gross_price"`
	TotalWeightGrams decimal.Decimal `json:"total_weight_grams"`

	Products  []OrderUnit                  `json:"products"`
	Shipments map[uuid.UUID]ShipmentStatus `json:"shipments,omitempty"`
	Coupons   []uuid.UUID                  `json:"coupons,omitempty"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UnitFor returns the order unit for a product, or nil when the product is
// not part of the order.
func (o *Order) UnitFor(productID uuid.UUID) *OrderUnit {
	for i := range o.Products {
		if o.Products[i].ProductID == productID {
			return &o.Products[i]
		}
	}
	return nil
}

// IsCancelled reports whether the order has been cancelled.
func (o *Order) IsCancelled() bool { return o.CancelledAt != nil }

// Clone returns a deep copy. Mutating operations work on a clone and swap it
// in only on a successful save, so a failed operation leaves the held (and
// cached) aggregate untouched.
func (o *Order) Clone() *Order {
	clone := *o
	clone.Products = append([]OrderUnit(nil), o.Products...)
	clone.Coupons = append([]uuid.UUID(nil), o.Coupons...)
	if o.Shipments != nil {
		clone.Shipments = make(map[uuid.UUID]ShipmentStatus, len(o.Shipments))
		for id, status := range o.Shipments {
			clone.Shipments[id] = status
		}
	}
	if o.CancelledAt != nil {
		at := *o.CancelledAt
		clone.CancelledAt = &at
	}
	return &clone
}
