package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/clients"
	"github.com/Naamio/kauppa/internal/faults"
	"github.com/Naamio/kauppa/internal/models"
	"github.com/Naamio/kauppa/internal/repository"
)

// CartService keeps one cart per account consistent with live product and
// tax data and prepares checkouts. Every mutating operation re-prices the
// whole cart, not just the touched line, because prices, tax categories and
// inventory may have drifted since the cart was last seen.
type CartService struct {
	carts    *repository.CartRepository
	orders   *OrderService
	products clients.ProductsClient
	accounts clients.AccountsClient
	tax      clients.TaxClient
	coupons  clients.CouponsClient
	logger   zerolog.Logger
}

func NewCartService(
	carts *repository.CartRepository,
	orders *OrderService,
	products clients.ProductsClient,
	accounts clients.AccountsClient,
	tax clients.TaxClient,
	coupons clients.CouponsClient,
	logger zerolog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		orders:   orders,
		products: products,
		accounts: accounts,
		tax:      tax,
		coupons:  coupons,
		logger:   logger.With().Str("service", "cart").Logger(),
	}
}

func (s *CartService) getAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, faults.Newf(faults.InvalidAccountID, "account %s does not exist", accountID)
	}
	return account, nil
}

// checkoutAddress resolves the address bound by checkout data, when any.
func checkoutAddress(cart *models.Cart, account *models.Account) *models.Address {
	if cart.Checkout == nil {
		return nil
	}
	return account.AddressAt(cart.Checkout.ShippingAddressAt)
}

// AddItem adds a unit to the account's cart, merging with an existing line
// for the same product. The whole cart is re-priced against current product
// and tax data; the add is rejected in full when the merged quantity exceeds
// inventory or the new product's currency differs from the cart's.
func (s *CartService) AddItem(ctx context.Context, accountID uuid.UUID, unit models.CartUnit, address *models.Address) (*models.Cart, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if unit.Quantity == 0 {
		return nil, faults.New(faults.NoItemsToProcess, "cannot add an item with zero quantity")
	}

	unlock := s.carts.Lock(accountID)
	defer unlock()

	cart, err := s.carts.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	working := cart.Clone()
	unit.ResetComputed()

	merged := false
	for i := range working.Units {
		if working.Units[i].ProductID == unit.ProductID {
			combined := uint16(working.Units[i].Quantity) + uint16(unit.Quantity)
			if combined > 255 {
				return nil, faults.Newf(faults.ProductUnavailable,
					"cannot order more than 255 units of product %s", unit.ProductID)
			}
			working.Units[i].Quantity = uint8(combined)
			merged = true
			break
		}
	}
	if !merged {
		working.Units = append(working.Units, unit)
	}

	if err := s.repriceCart(ctx, working, account, address, false); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}

// RemoveItem removes the line for a product from the cart. Removing the last
// line clears the currency, totals and checkout binding.
func (s *CartService) RemoveItem(ctx context.Context, accountID, productID uuid.UUID) (*models.Cart, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := s.carts.Lock(accountID)
	defer unlock()

	cart, err := s.carts.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	working := cart.Clone()
	found := false
	for i := range working.Units {
		if working.Units[i].ProductID == productID {
			working.Units = append(working.Units[:i], working.Units[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil, faults.Newf(faults.InvalidItemID, "product %s is not in the cart", productID)
	}

	if err := s.repriceCart(ctx, working, account, nil, true); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}

// GetCart returns the account's cart after a correction pass: lines whose
// product no longer exists are dropped, lines exceeding current inventory are
// truncated, and everything is re-priced. The corrected cart is persisted.
func (s *CartService) GetCart(ctx context.Context, accountID uuid.UUID, address *models.Address) (*models.Cart, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := s.carts.Lock(accountID)
	defer unlock()

	cart, err := s.carts.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	working := cart.Clone()
	if err := s.repriceCart(ctx, working, account, address, true); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}

// UpdateCart replaces the cart's item list wholesale and re-prices it. The
// checkout binding is reset unless the incoming cart carries one that is
// valid for the account.
func (s *CartService) UpdateCart(ctx context.Context, accountID uuid.UUID, incoming *models.Cart, address *models.Address) (*models.Cart, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := s.carts.Lock(accountID)
	defer unlock()

	cart, err := s.carts.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	working := cart.Clone()
	working.Units = nil
	for _, unit := range incoming.Units {
		if unit.Quantity == 0 {
			continue
		}
		unit.ResetComputed()
		merged := false
		for i := range working.Units {
			if working.Units[i].ProductID == unit.ProductID {
				combined := uint16(working.Units[i].Quantity) + uint16(unit.Quantity)
				if combined > 255 {
					return nil, faults.Newf(faults.ProductUnavailable,
						"cannot order more than 255 units of product %s", unit.ProductID)
				}
				working.Units[i].Quantity = uint8(combined)
				merged = true
				break
			}
		}
		if !merged {
			working.Units = append(working.Units, unit)
		}
	}
	if len(working.Units) == 0 {
		return nil, faults.New(faults.NoItemsToProcess, "no billable items in the submitted cart")
	}

	working.Checkout = nil
	if incoming.Checkout != nil {
		if err := validateCheckout(account, *incoming.Checkout); err != nil {
			return nil, err
		}
		checkout := *incoming.Checkout
		working.Checkout = &checkout
	}

	if err := s.repriceCart(ctx, working, account, address, false); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}

// ApplyCoupon validates a coupon by code and applies it to the cart.
// Re-applying an already-applied coupon is a no-op.
func (s *CartService) ApplyCoupon(ctx context.Context, accountID uuid.UUID, code string, address *models.Address) (*models.Cart, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := s.carts.Lock(accountID)
	defer unlock()

	cart, err := s.carts.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, faults.New(faults.NoItemsInCart, "cannot apply a coupon to an empty cart")
	}

	coupon, err := s.coupons.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, faults.Newf(faults.InvalidCouponCode, "no coupon matches code %q", code)
	}
	if cart.HasCoupon(coupon.ID) {
		return cart, nil
	}

	if cart.Currency != nil {
		if err := coupon.Validate(*cart.Currency, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	working := cart.Clone()
	working.Coupons = append(working.Coupons, coupon.ID)

	if err := s.repriceCart(ctx, working, account, address, false); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}

// CreateCheckout binds an address-book selection to the cart, which enables
// gross-price (tax) computation and order placement.
func (s *CartService) CreateCheckout(ctx context.Context, accountID uuid.UUID, data models.CheckoutData) (*models.Cart, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := s.carts.Lock(accountID)
	defer unlock()

	cart, err := s.carts.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, faults.New(faults.NoItemsToProcess, "cannot check out an empty cart")
	}
	if err := validateCheckout(account, data); err != nil {
		return nil, err
	}

	working := cart.Clone()
	working.Checkout = &data

	if err := s.repriceCart(ctx, working, account, nil, false); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}

// PlaceOrder turns the checked-out cart into an order through the order
// factory and clears the cart. The clear only happens after the order
// service succeeds; any downstream failure propagates verbatim and leaves
// the cart untouched.
func (s *CartService) PlaceOrder(ctx context.Context, accountID uuid.UUID) (*models.Order, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	unlock := s.carts.Lock(accountID)
	defer unlock()

	cart, err := s.carts.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, faults.New(faults.NoItemsToProcess, "cannot place an order from an empty cart")
	}
	if cart.Checkout == nil {
		return nil, faults.New(faults.InvalidCheckoutData, "cart has no checkout data")
	}

	shipping := account.AddressAt(cart.Checkout.ShippingAddressAt)
	if shipping == nil {
		return nil, faults.New(faults.InvalidCheckoutData, "checkout shipping address is no longer valid")
	}
	billing := shipping
	if at := cart.Checkout.BillingAddressAt; at != nil {
		if billing = account.AddressAt(*at); billing == nil {
			return nil, faults.New(faults.InvalidCheckoutData, "checkout billing address is no longer valid")
		}
	}

	req := &OrderRequest{
		PlacedBy:        accountID,
		ShippingAddress: *shipping,
		BillingAddress:  *billing,
		Coupons:         append([]uuid.UUID(nil), cart.Coupons...),
	}
	for _, unit := range cart.Units {
		req.Units = append(req.Units, OrderRequestUnit{
			ProductID: unit.ProductID,
			Quantity:  unit.Quantity,
		})
	}

	order, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	cart.Reset()
	if err := s.carts.Save(ctx, cart); err != nil {
		// The order exists; a stale cart is recoverable on next access.
		s.logger.Error().Err(err).Stringer("account_id", accountID).
			Stringer("order_id", order.ID).Msg("failed to clear cart after order placement")
	}
	return order, nil
}

func validateCheckout(account *models.Account, data models.CheckoutData) error {
	if len(account.Addresses) == 0 {
		return faults.New(faults.InvalidAddress, "account has no addresses to ship to")
	}
	if account.AddressAt(data.ShippingAddressAt) == nil {
		return faults.Newf(faults.InvalidCheckoutData,
			"shipping address index %d is out of range", data.ShippingAddressAt)
	}
	if data.BillingAddressAt != nil && account.AddressAt(*data.BillingAddressAt) == nil {
		return faults.Newf(faults.InvalidCheckoutData,
			"billing address index %d is out of range", *data.BillingAddressAt)
	}
	return nil
}

// repriceCart re-validates and re-prices every cart line against current
// product, tax and inventory data, then rebuilds the aggregates.
//
// In lenient mode (plain cart views) lines whose product disappeared are
// dropped and lines exceeding current inventory are truncated silently. In
// strict mode (add/update/checkout) the same conditions fail the operation.
func (s *CartService) repriceCart(ctx context.Context, cart *models.Cart, account *models.Account, address *models.Address, lenient bool) error {
	if address == nil {
		address = checkoutAddress(cart, account)
	}

	var rate *models.TaxRate
	if address != nil {
		var err error
		if rate, err = s.tax.GetTaxRate(ctx, *address); err != nil {
			return err
		}
	}

	ledger := newInventoryLedger()
	var currency *models.Currency
	var netTotal, grossTotal models.Price
	taxed := rate != nil

	units := cart.Units[:0]
	for _, unit := range cart.Units {
		if unit.Quantity == 0 {
			continue
		}

		product, err := s.products.GetProduct(ctx, unit.ProductID, address)
		if err != nil {
			return err
		}
		if product == nil {
			if lenient {
				continue
			}
			return faults.Newf(faults.InvalidProductID, "product %s does not exist", unit.ProductID)
		}

		if currency == nil {
			c := product.Price.Currency
			currency = &c
		} else if *currency != product.Price.Currency {
			if lenient {
				continue
			}
			return faults.Newf(faults.AmbiguousCurrencies,
				"product %s is priced in %s, cart is in %s",
				product.ID, product.Price.Currency, *currency)
		}

		if lenient {
			if available := ledger.available(product.ID, product.Inventory); uint32(unit.Quantity) > available {
				if available == 0 {
					continue
				}
				unit.Quantity = uint8(available)
			}
		}
		if err := ledger.reserve(product, unit.Quantity); err != nil {
			return err
		}

		unit.ResetComputed()
		pricing := priceUnit(product, unit.Quantity, rate)
		unit.NetPrice = &pricing.net
		if pricing.taxed {
			unit.TaxRate = pricing.taxRate
			tax := pricing.tax
			gross := pricing.gross
			unit.Tax = &tax
			unit.GrossPrice = &gross
		}

		if netTotal.Currency == "" {
			netTotal = pricing.net
			grossTotal = pricing.gross
		} else {
			if netTotal, err = netTotal.Add(pricing.net); err != nil {
				return err
			}
			if grossTotal, err = grossTotal.Add(pricing.gross); err != nil {
				return err
			}
		}

		units = append(units, unit)
	}
	cart.Units = units

	if len(cart.Units) == 0 {
		cart.Units = nil
		cart.ClearPricing()
		return nil
	}

	cart.Currency = currency
	cart.NetPrice = &netTotal
	if taxed {
		if err := s.deductCoupons(ctx, cart, &grossTotal); err != nil {
			return err
		}
		cart.GrossPrice = &grossTotal
	} else {
		cart.GrossPrice = nil
	}
	return nil
}

// deductCoupons applies the recorded coupon balances against the gross
// aggregate in application order. This is a display-level deduction; the
// authoritative balance deduction happens in the order factory at placement.
// Coupons that can no longer be fetched are skipped rather than failing the
// view.
func (s *CartService) deductCoupons(ctx context.Context, cart *models.Cart, gross *models.Price) error {
	for _, id := range cart.Coupons {
		coupon, err := s.coupons.GetCoupon(ctx, id)
		if err != nil || coupon == nil {
			s.logger.Warn().Err(err).Stringer("coupon_id", id).
				Stringer("account_id", cart.AccountID).Msg("skipping unavailable coupon during repricing")
			continue
		}
		if coupon.Balance.Currency != gross.Currency {
			continue
		}
		deduction, err := coupon.Balance.Min(*gross)
		if err != nil {
			return err
		}
		remaining, err := gross.Sub(deduction)
		if err != nil {
			return err
		}
		*gross = remaining
	}
	return nil
}
