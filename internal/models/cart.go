package models

import (
	"time"

	"github.com/google/uuid"
)

// CartUnit is one line of a cart: a product reference, a requested quantity
// and the service-computed pricing fields. The computed fields are always
// derived from live product/tax data; anything user-supplied in them is reset
// before repricing.
type CartUnit struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint8     `json:"quantity"`

	TaxRate    float64 `json:"tax_rate,omitempty"`
	Tax        *Price  `json:"tax,omitempty"`
	NetPrice   *Price  `json:"net_price,omitempty"`
	GrossPrice *Price  `json:"gross_price,omitempty"`
}

// ResetComputed clears the derived pricing fields.
func (u *CartUnit) ResetComputed() {
	u.TaxRate = 0
	u.Tax = nil
	u.NetPrice = nil
	u.GrossPrice = nil
}

// CheckoutData binds an address-book selection to a cart. Gross (taxed)
// pricing and order placement both need a concrete destination address.
type CheckoutData struct {
	ShippingAddressAt int  `json:"shipping_address_at"`
	BillingAddressAt  *int `json:"billing_address_at,omitempty"`
}

// Cart is the per-account mutable cart aggregate. Exactly one cart exists per
// account; it is created lazily on first access and never deleted.
//
// Currency is set once the first priced unit is added and cleared when the
// cart empties. NetPrice is present once at least one unit has been priced;
// GrossPrice additionally requires a shipping address, since tax needs a
// destination. Absence of GrossPrice therefore means "tax not yet computed",
// not zero.
type Cart struct {
	ID         uuid.UUID     `json:"id"`
	AccountID  uuid.UUID     `json:"account_id"`
	Units      []CartUnit    `json:"units"`
	Currency   *Currency     `json:"currency,omitempty"`
	NetPrice   *Price        `json:"net_price,omitempty"`
	GrossPrice *Price        `json:"gross_price,omitempty"`
	Coupons    []uuid.UUID   `json:"coupons,omitempty"`
	Checkout   *CheckoutData `json:"checkout,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewCart creates an empty cart for an account.
func NewCart(accountID uuid.UUID) *Cart {
	return &Cart{
		ID:        uuid.New(),
		AccountID: accountID,
		UpdatedAt: time.Now().UTC(),
	}
}

// IsEmpty reports whether the cart has no units.
func (c *Cart) IsEmpty() bool { return len(c.Units) == 0 }

// HasCoupon reports whether the coupon has already been applied.
func (c *Cart) HasCoupon(id uuid.UUID) bool {
	for _, applied := range c.Coupons {
		if applied == id {
			return true
		}
	}
	return false
}

// ClearPricing drops the aggregates that only make sense for a non-empty
// cart: currency, totals and the checkout binding.
func (c *Cart) ClearPricing() {
	c.Currency = nil
	c.NetPrice = nil
	c.GrossPrice = nil
	c.Checkout = nil
}

// Reset empties the cart after a successful order placement.
func (c *Cart) Reset() {
	c.Units = nil
	c.Coupons = nil
	c.ClearPricing()
	c.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy. Mutating operations work on a clone and swap it
// in only on success, so a failed operation leaves the cart untouched.
func (c *Cart) Clone() *Cart {
	clone := *c
	clone.Units = append([]CartUnit(nil), c.Units...)
	clone.Coupons = append([]uuid.UUID(nil), c.Coupons...)
	if c.Currency != nil {
		currency := *c.Currency
		clone.Currency = &currency
	}
	if c.NetPrice != nil {
		net := *c.NetPrice
		clone.NetPrice = &net
	}
	if c.GrossPrice != nil {
		gross := *c.GrossPrice
		clone.GrossPrice = &gross
	}
	if c.Checkout != nil {
		checkout := *c.Checkout
		if c.Checkout.BillingAddressAt != nil {
			at := *c.Checkout.BillingAddressAt
			checkout.BillingAddressAt = &at
		}
		clone.Checkout = &checkout
	}
	return &clone
}
