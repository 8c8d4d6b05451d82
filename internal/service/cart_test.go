package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naamio/kauppa/internal/clients"
	"github.com/Naamio/kauppa/internal/events"
	"github.com/Naamio/kauppa/internal/faults"
	"github.com/Naamio/kauppa/internal/metrics"
	"github.com/Naamio/kauppa/internal/models"
	"github.com/Naamio/kauppa/internal/repository"
)

// fixture wires the services against in-memory stores and mock collaborator
// clients.
type fixture struct {
	products  *clients.MockProductsClient
	accounts  *clients.MockAccountsClient
	coupons   *clients.MockCouponsClient
	shipments *clients.MockShipmentsClient
	publisher *events.RecordingPublisher

	carts  *repository.CartRepository
	orders *repository.OrderRepository

	cartSvc   *CartService
	orderSvc  *OrderService
	returnSvc *ReturnsService
}

func newFixture(rate *models.TaxRate) *fixture {
	logger := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())

	f := &fixture{
		products:  clients.NewMockProductsClient(),
		accounts:  clients.NewMockAccountsClient(),
		coupons:   clients.NewMockCouponsClient(),
		shipments: clients.NewMockShipmentsClient(),
		publisher: &events.RecordingPublisher{},
	}

	f.carts = repository.NewCartRepository(
		repository.NewMemoryCartStore(), repository.NewMemoryCartCache(16), m, logger)
	f.orders = repository.NewOrderRepository(
		repository.NewMemoryOrderStore(), repository.NewMemoryOrderCache(16), m, logger)

	tax := clients.NewMockTaxClient(rate)
	f.orderSvc = NewOrderService(f.orders, f.products, f.accounts, tax, f.coupons, f.publisher, m, logger)
	f.cartSvc = NewCartService(f.carts, f.orderSvc, f.products, f.accounts, tax, f.coupons, logger)
	f.returnSvc = NewReturnsService(f.orders, f.shipments, f.publisher, m, logger)
	return f
}

func (f *fixture) addAccount() *models.Account {
	account := &models.Account{
		ID:     uuid.New(),
		Name:   "Teemu Testaaja",
		Emails: []models.Email{{Address: "teemu@example.com", Verified: true}},
		Addresses: []models.Address{
			{Line1: "Mannerheimintie 1", City: "Helsinki", PostalCode: "00100", Country: "FI"},
			{Line1: "Aleksanterinkatu 5", City: "Helsinki", PostalCode: "00101", Country: "FI"},
		},
	}
	f.accounts.AddAccount(account)
	return account
}

func (f *fixture) addProduct(price string, currency models.Currency, inventory uint32) *models.Product {
	product := &models.Product{
		ID:        uuid.New(),
		Title:     "Test Product",
		Price:     models.NewPrice(price, currency),
		Inventory: inventory,
	}
	f.products.AddProduct(product)
	return product
}

func standardRate() *models.TaxRate { return &models.TaxRate{General: 14} }

func TestAddItem_MergesSameProduct(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 100)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 2}, nil)
	require.NoError(t, err)

	cart, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 3}, nil)
	require.NoError(t, err)

	require.Len(t, cart.Units, 1)
	assert.Equal(t, uint8(5), cart.Units[0].Quantity)
	require.NotNil(t, cart.NetPrice)
	assert.Equal(t, "35.00 USD", cart.NetPrice.String())
	// No destination address, so no tax and no gross.
	assert.Nil(t, cart.GrossPrice)
}

func TestAddItem_ZeroQuantity(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 100)

	_, err := f.cartSvc.AddItem(context.Background(), account.ID,
		models.CartUnit{ProductID: product.ID, Quantity: 0}, nil)
	assert.True(t, faults.IsKind(err, faults.NoItemsToProcess))
}

func TestAddItem_UnknownAccount(t *testing.T) {
	f := newFixture(standardRate())
	product := f.addProduct("7.00", models.USD, 100)

	_, err := f.cartSvc.AddItem(context.Background(), uuid.New(),
		models.CartUnit{ProductID: product.ID, Quantity: 1}, nil)
	assert.True(t, faults.IsKind(err, faults.InvalidAccountID))
}

func TestAddItem_UnknownProduct(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()

	_, err := f.cartSvc.AddItem(context.Background(), account.ID,
		models.CartUnit{ProductID: uuid.New(), Quantity: 1}, nil)
	assert.True(t, faults.IsKind(err, faults.InvalidProductID))
}

func TestAddItem_InsufficientInventory(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 3)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 2}, nil)
	require.NoError(t, err)

	// Merged quantity of 4 exceeds the 3 in stock; the whole add fails.
	_, err = f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 2}, nil)
	assert.True(t, faults.IsKind(err, faults.ProductUnavailable))

	cart, err := f.cartSvc.GetCart(ctx, account.ID, nil)
	require.NoError(t, err)
	require.Len(t, cart.Units, 1)
	assert.Equal(t, uint8(2), cart.Units[0].Quantity)
}

func TestAddItem_MixedCurrencies(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	usd := f.addProduct("7.00", models.USD, 10)
	eur := f.addProduct("5.00", models.EUR, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: usd.ID, Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: eur.ID, Quantity: 1}, nil)
	assert.True(t, faults.IsKind(err, faults.AmbiguousCurrencies))

	cart, err := f.cartSvc.GetCart(ctx, account.ID, nil)
	require.NoError(t, err)
	assert.Len(t, cart.Units, 1)
}

func TestRemoveItem_LastLineClearsPricing(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 2}, nil)
	require.NoError(t, err)

	cart, err := f.cartSvc.RemoveItem(ctx, account.ID, product.ID)
	require.NoError(t, err)

	assert.True(t, cart.IsEmpty())
	assert.Nil(t, cart.Currency)
	assert.Nil(t, cart.NetPrice)
	assert.Nil(t, cart.GrossPrice)
	assert.Nil(t, cart.Checkout)
}

func TestRemoveItem_NotInCart(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = f.cartSvc.RemoveItem(ctx, account.ID, uuid.New())
	assert.True(t, faults.IsKind(err, faults.InvalidItemID))
}

func TestGetCart_TruncatesToInventory(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 5}, nil)
	require.NoError(t, err)

	// Inventory drained behind the cart's back.
	product.Inventory = 2
	f.products.AddProduct(product)

	cart, err := f.cartSvc.GetCart(ctx, account.ID, nil)
	require.NoError(t, err)
	require.Len(t, cart.Units, 1)
	assert.Equal(t, uint8(2), cart.Units[0].Quantity)
	assert.Equal(t, "14.00 USD", cart.NetPrice.String())
}

func TestGetCart_DropsVanishedProducts(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	keep := f.addProduct("7.00", models.USD, 10)
	gone := f.addProduct("3.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: keep.ID, Quantity: 1}, nil)
	require.NoError(t, err)
	_, err = f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: gone.ID, Quantity: 1}, nil)
	require.NoError(t, err)

	// Simulate deletion by replacing the catalog without the product.
	removed := clients.NewMockProductsClient()
	removed.AddProduct(keep)
	f.cartSvc.products = removed

	cart, err := f.cartSvc.GetCart(ctx, account.ID, nil)
	require.NoError(t, err)
	require.Len(t, cart.Units, 1)
	assert.Equal(t, keep.ID, cart.Units[0].ProductID)
}

func TestUpdateCart_ReplacesUnits(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	old := f.addProduct("7.00", models.USD, 10)
	fresh := f.addProduct("4.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: old.ID, Quantity: 2}, nil)
	require.NoError(t, err)

	incoming := &models.Cart{Units: []models.CartUnit{
		{ProductID: fresh.ID, Quantity: 1},
		{ProductID: fresh.ID, Quantity: 2},
		{ProductID: old.ID, Quantity: 0},
	}}
	cart, err := f.cartSvc.UpdateCart(ctx, account.ID, incoming, nil)
	require.NoError(t, err)

	// Duplicates merge, zero-quantity lines drop.
	require.Len(t, cart.Units, 1)
	assert.Equal(t, fresh.ID, cart.Units[0].ProductID)
	assert.Equal(t, uint8(3), cart.Units[0].Quantity)
}

func TestUpdateCart_AllZeroQuantities(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)

	incoming := &models.Cart{Units: []models.CartUnit{{ProductID: product.ID, Quantity: 0}}}
	_, err := f.cartSvc.UpdateCart(context.Background(), account.ID, incoming, nil)
	assert.True(t, faults.IsKind(err, faults.NoItemsToProcess))
}

func TestApplyCoupon(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	coupon := &models.Coupon{ID: uuid.New(), Code: "KESA10", Balance: models.NewPrice("10.00", models.USD)}
	f.coupons.AddCoupon(coupon)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 4}, nil)
	require.NoError(t, err)

	cart, err := f.cartSvc.ApplyCoupon(ctx, account.ID, "KESA10", nil)
	require.NoError(t, err)
	require.Len(t, cart.Coupons, 1)

	// Re-applying the same coupon is a no-op, not an error.
	cart, err = f.cartSvc.ApplyCoupon(ctx, account.ID, "KESA10", nil)
	require.NoError(t, err)
	assert.Len(t, cart.Coupons, 1)
}

func TestApplyCoupon_EmptyCart(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()

	_, err := f.cartSvc.ApplyCoupon(context.Background(), account.ID, "KESA10", nil)
	assert.True(t, faults.IsKind(err, faults.NoItemsInCart))
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = f.cartSvc.ApplyCoupon(ctx, account.ID, "NOPE", nil)
	assert.True(t, faults.IsKind(err, faults.InvalidCouponCode))
}

func TestCreateCheckout_ComputesGross(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 4}, nil)
	require.NoError(t, err)

	cart, err := f.cartSvc.CreateCheckout(ctx, account.ID, models.CheckoutData{ShippingAddressAt: 0})
	require.NoError(t, err)

	require.NotNil(t, cart.NetPrice)
	require.NotNil(t, cart.GrossPrice)
	assert.Equal(t, "28.00 USD", cart.NetPrice.String())
	assert.Equal(t, "31.92 USD", cart.GrossPrice.String())
	require.Len(t, cart.Units, 1)
	require.NotNil(t, cart.Units[0].Tax)
	assert.Equal(t, "3.92 USD", cart.Units[0].Tax.String())
}

func TestCreateCheckout_CouponReducesGross(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	coupon := &models.Coupon{ID: uuid.New(), Code: "KESA10", Balance: models.NewPrice("10.00", models.USD)}
	f.coupons.AddCoupon(coupon)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 4}, nil)
	require.NoError(t, err)
	_, err = f.cartSvc.ApplyCoupon(ctx, account.ID, "KESA10", nil)
	require.NoError(t, err)

	cart, err := f.cartSvc.CreateCheckout(ctx, account.ID, models.CheckoutData{ShippingAddressAt: 0})
	require.NoError(t, err)

	// 31.92 gross minus the 10.00 balance; net stays untouched.
	assert.Equal(t, "21.92 USD", cart.GrossPrice.String())
	assert.Equal(t, "28.00 USD", cart.NetPrice.String())
}

func TestCreateCheckout_BadAddressIndex(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = f.cartSvc.CreateCheckout(ctx, account.ID, models.CheckoutData{ShippingAddressAt: 9})
	assert.True(t, faults.IsKind(err, faults.InvalidCheckoutData))
}

func TestCreateCheckout_NoAddresses(t *testing.T) {
	f := newFixture(standardRate())
	account := &models.Account{
		ID:     uuid.New(),
		Emails: []models.Email{{Address: "a@example.com", Verified: true}},
	}
	f.accounts.AddAccount(account)
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = f.cartSvc.CreateCheckout(ctx, account.ID, models.CheckoutData{ShippingAddressAt: 0})
	assert.True(t, faults.IsKind(err, faults.InvalidAddress))
}

func TestPlaceOrder_ResetsCart(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 4}, nil)
	require.NoError(t, err)
	_, err = f.cartSvc.CreateCheckout(ctx, account.ID, models.CheckoutData{ShippingAddressAt: 0})
	require.NoError(t, err)

	order, err := f.cartSvc.PlaceOrder(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "28.00 USD", order.NetPrice.String())
	assert.Equal(t, "3.92 USD", order.TotalTax.String())
	assert.Equal(t, "31.92 USD", order.GrossPrice.String())

	cart, err := f.cartSvc.GetCart(ctx, account.ID, nil)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Nil(t, cart.Currency)
}

func TestPlaceOrder_WithoutCheckout(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = f.cartSvc.PlaceOrder(ctx, account.ID)
	assert.True(t, faults.IsKind(err, faults.InvalidCheckoutData))
}

func TestPlaceOrder_FailureLeavesCartIntact(t *testing.T) {
	f := newFixture(standardRate())
	account := f.addAccount()
	product := f.addProduct("7.00", models.USD, 10)
	ctx := context.Background()

	_, err := f.cartSvc.AddItem(ctx, account.ID, models.CartUnit{ProductID: product.ID, Quantity: 4}, nil)
	require.NoError(t, err)
	_, err = f.cartSvc.CreateCheckout(ctx, account.ID, models.CheckoutData{ShippingAddressAt: 0})
	require.NoError(t, err)

	// Inventory drained between checkout and placement.
	product.Inventory = 1
	f.products.AddProduct(product)

	_, err = f.cartSvc.PlaceOrder(ctx, account.ID)
	assert.True(t, faults.IsKind(err, faults.ProductUnavailable))

	cart, err := f.carts.Get(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Len(t, cart.Units, 1)
	assert.NotNil(t, cart.Checkout)
}
