// Package faults defines the structured error taxonomy shared by the cart,
// order and returns flows. Every fault carries a stable machine-readable kind
// so that handlers (and remote callers) can branch on it without string
// matching.
package faults

import (
	"errors"
	"fmt"
)

// Kind identifies a fault category. Kinds are part of the wire contract and
// must not be renamed.
type Kind string

const (
	KindUnknown Kind = "unknown"

	// Validation faults.
	InvalidAccountID      Kind = "invalid_account_id"
	InvalidProductID      Kind = "invalid_product_id"
	InvalidItemID         Kind = "invalid_item_id"
	InvalidOrderID        Kind = "invalid_order_id"
	InvalidCheckoutData   Kind = "invalid_checkout_data"
	InvalidAddress        Kind = "invalid_address"
	InvalidCouponCode     Kind = "invalid_coupon_code"
	AmbiguousCurrencies   Kind = "ambiguous_currencies"
	InvalidReturnQuantity Kind = "invalid_return_quantity"

	// Resource exhaustion.
	ProductUnavailable Kind = "product_unavailable"
	NoItemsToProcess   Kind = "no_items_to_process"
	NoItemsInCart      Kind = "no_items_in_cart"

	// Coupon and gift card state.
	NoBalance             Kind = "no_balance"
	CouponExpired         Kind = "coupon_expired"
	CouponDisabled        Kind = "coupon_disabled"
	MismatchingCurrencies Kind = "mismatching_currencies"

	// Preconditions.
	UnverifiedAccount Kind = "unverified_account"
)

// Error is a fault with a stable kind, a human-readable message and optional
// machine-readable details.
type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a fault of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a fault with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault that wraps an underlying error, preserving it for
// errors.Is / errors.Unwrap chains.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetail attaches a machine-readable detail to the fault and returns it.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string, 1)
	}
	e.Details[key] = value
	return e
}

// KindOf extracts the fault kind from err, or KindUnknown when err is not a
// fault (collaborator transport errors, SQL errors and so on).
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
