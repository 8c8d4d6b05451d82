package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Naamio/kauppa/internal/faults"
)

// Coupon is a redeemable balance owned by the coupons service. The balance is
// deducted as a side effect of cart/order operations; persistence of the
// updated balance stays with the coupons service.
type Coupon struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	Balance    Price      `json:"balance"`
	ExpiresOn  *time.Time `json:"expires_on,omitempty"`
	DisabledOn *time.Time `json:"disabled_on,omitempty"`
}

// Validate checks that the coupon can be applied against the given currency.
// A disabled, expired, empty or currency-mismatched coupon fails the whole
// application atomically.
func (c *Coupon) Validate(currency Currency, now time.Time) error {
	if c.DisabledOn != nil && !c.DisabledOn.After(now) {
		return faults.Newf(faults.CouponDisabled, "coupon %s is disabled", c.Code)
	}
	if c.ExpiresOn != nil && !c.ExpiresOn.After(now) {
		return faults.Newf(faults.CouponExpired, "coupon %s expired on %s",
			c.Code, c.ExpiresOn.Format(time.RFC3339))
	}
	if c.Balance.Currency != currency {
		return faults.Newf(faults.MismatchingCurrencies,
			"coupon %s is in %s, cart is in %s", c.Code, c.Balance.Currency, currency)
	}
	if c.Balance.IsZero() {
		return faults.Newf(faults.NoBalance, "coupon %s has no balance left", c.Code)
	}
	return nil
}
