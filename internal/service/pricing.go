package service

import (
	"github.com/google/uuid"

	"github.com/Naamio/kauppa/internal/faults"
	"github.com/Naamio/kauppa/internal/models"
)

// unitPricing is the computed pricing of one cart/order line.
type unitPricing struct {
	taxRate float64
	net     models.Price
	tax     models.Price
	gross   models.Price
	// taxed is false when no tax rate was available (no destination
	// address); gross is then meaningless and must not be reported.
	taxed bool
}

// priceUnit computes net/tax/gross for quantity units of a product.
//
// net = unit price x quantity; tax = rate% x net, with the product's category
// rate overriding the general rate. A tax-inclusive product absorbs the tax:
// gross equals net and the tax is reported separately without being added.
func priceUnit(product *models.Product, quantity uint8, rate *models.TaxRate) unitPricing {
	net := product.Price.MulQuantity(quantity)
	pricing := unitPricing{net: net, gross: net}

	if rate == nil {
		return pricing
	}

	pricing.taxed = true
	pricing.taxRate = rate.RateFor(product.TaxCategory)
	pricing.tax = net.ApplyRate(pricing.taxRate)
	if !product.TaxInclusive {
		gross, err := net.Add(pricing.tax)
		if err == nil {
			pricing.gross = gross
		}
	}
	return pricing
}

// inventoryLedger tracks the remaining inventory per product across the
// units of a single transaction. It starts each product at its current store
// inventory and decrements per processed unit, so over-ordering the same
// product across multiple lines is caught before any external mutation.
type inventoryLedger struct {
	balances map[uuid.UUID]uint32
	// products preserves first-seen order so the commit pass is
	// deterministic.
	products []uuid.UUID
}

func newInventoryLedger() *inventoryLedger {
	return &inventoryLedger{balances: make(map[uuid.UUID]uint32)}
}

// reserve deducts quantity from the product's running balance, failing with
// ProductUnavailable when the balance (not the raw store record) is
// insufficient.
func (l *inventoryLedger) reserve(product *models.Product, quantity uint8) error {
	balance, ok := l.balances[product.ID]
	if !ok {
		balance = product.Inventory
		l.products = append(l.products, product.ID)
	}
	if uint32(quantity) > balance {
		return faults.Newf(faults.ProductUnavailable,
			"only %d units of product %s available", balance, product.ID).
			WithDetail("product_id", product.ID.String())
	}
	l.balances[product.ID] = balance - uint32(quantity)
	return nil
}

// available returns the remaining balance for a product, falling back to the
// given store inventory when the product has not been reserved yet.
func (l *inventoryLedger) available(productID uuid.UUID, storeInventory uint32) uint32 {
	if balance, ok := l.balances[productID]; ok {
		return balance
	}
	return storeInventory
}

// empty reports whether no unit was reserved, meaning the transaction has no
// billable content.
func (l *inventoryLedger) empty() bool { return len(l.products) == 0 }

// each visits every reserved product with its final balance, in first-seen
// order.
func (l *inventoryLedger) each(visit func(productID uuid.UUID, balance uint32)) {
	for _, id := range l.products {
		visit(id, l.balances[id])
	}
}
