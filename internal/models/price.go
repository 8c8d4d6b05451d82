package models

import (
	"github.com/shopspring/decimal"

	"github.com/Naamio/kauppa/internal/faults"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// Price is a fixed-precision amount in a single currency. Amounts are stored
// as decimals, never as binary floats; all arithmetic rounds to two decimal
// places. Mixing currencies is a programming error and is rejected at the
// call site instead of being coerced.
type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewPrice builds a Price from a string amount such as "7.00". It panics on a
// malformed literal, so it is meant for constants and tests; runtime amounts
// arrive already parsed from collaborator payloads.
func NewPrice(amount string, currency Currency) Price {
	return Price{Amount: decimal.RequireFromString(amount), Currency: currency}
}

// ZeroPrice returns a zero amount in the given currency.
func ZeroPrice(currency Currency) Price {
	return Price{Amount: decimal.Zero, Currency: currency}
}

func (p Price) guard(q Price) error {
	if p.Currency != q.Currency {
		return faults.Newf(faults.MismatchingCurrencies,
			"cannot combine %s with %s", p.Currency, q.Currency)
	}
	return nil
}

// Add returns p + q. Fails when the currencies differ.
func (p Price) Add(q Price) (Price, error) {
	if err := p.guard(q); err != nil {
		return Price{}, err
	}
	return Price{Amount: p.Amount.Add(q.Amount), Currency: p.Currency}, nil
}

// Sub returns p - q floored at zero. Fails when the currencies differ.
func (p Price) Sub(q Price) (Price, error) {
	if err := p.guard(q); err != nil {
		return Price{}, err
	}
	amount := p.Amount.Sub(q.Amount)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return Price{Amount: amount, Currency: p.Currency}, nil
}

// MulQuantity returns p scaled by an item quantity.
func (p Price) MulQuantity(quantity uint8) Price {
	return Price{
		Amount:   p.Amount.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		Currency: p.Currency,
	}
}

// ApplyRate returns the given percentage of p, rounded to two decimal places.
// Used for tax computation: a 14% rate on 28.00 yields 3.92.
func (p Price) ApplyRate(percent float64) Price {
	rate := decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100))
	return Price{Amount: p.Amount.Mul(rate).Round(2), Currency: p.Currency}
}

// Min returns the smaller of p and q. Fails when the currencies differ.
func (p Price) Min(q Price) (Price, error) {
	if err := p.guard(q); err != nil {
		return Price{}, err
	}
	if p.Amount.LessThan(q.Amount) {
		return p, nil
	}
	return q, nil
}

// IsZero reports whether the amount is zero.
func (p Price) IsZero() bool { return p.Amount.IsZero() }

// Equal reports whether p and q have the same currency and amount.
func (p Price) Equal(q Price) bool {
	return p.Currency == q.Currency && p.Amount.Equal(q.Amount)
}

func (p Price) String() string {
	return p.Amount.StringFixed(2) + " " + string(p.Currency)
}
