package models

import "github.com/google/uuid"

// Address is a postal address used as a tax and shipping destination.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Email is an account email with its verification state.
type Email struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// Account is the slice of the accounts service's aggregate that the order
// flow needs: identity, address book and email verification state.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Emails    []Email   `json:"emails"`
	Addresses []Address `json:"addresses"`
}

// HasVerifiedEmail reports whether at least one email on the account has been
// verified. Order placement requires this for downstream notification.
func (a *Account) HasVerifiedEmail() bool {
	for _, e := range a.Emails {
		if e.Verified {
			return true
		}
	}
	return false
}

// AddressAt returns the address at the given index of the account's address
// book, or nil when the index is out of range.
func (a *Account) AddressAt(index int) *Address {
	if index < 0 || index >= len(a.Addresses) {
		return nil
	}
	addr := a.Addresses[index]
	return &addr
}
