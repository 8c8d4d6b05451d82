package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naamio/kauppa/internal/faults"
	"github.com/Naamio/kauppa/internal/models"
)

func TestPriceUnit_ExclusiveTax(t *testing.T) {
	product := &models.Product{
		ID:    uuid.New(),
		Price: models.NewPrice("7.00", models.USD),
	}
	rate := &models.TaxRate{General: 14}

	pricing := priceUnit(product, 4, rate)

	assert.True(t, pricing.taxed)
	assert.Equal(t, 14.0, pricing.taxRate)
	assert.Equal(t, "28.00 USD", pricing.net.String())
	assert.Equal(t, "3.92 USD", pricing.tax.String())
	assert.Equal(t, "31.92 USD", pricing.gross.String())
}

func TestPriceUnit_InclusiveTax(t *testing.T) {
	product := &models.Product{
		ID:           uuid.New(),
		Price:        models.NewPrice("7.00", models.USD),
		TaxInclusive: true,
	}
	rate := &models.TaxRate{General: 14}

	pricing := priceUnit(product, 4, rate)

	// The tax is reported but already inside the price.
	assert.Equal(t, "28.00 USD", pricing.net.String())
	assert.Equal(t, "3.92 USD", pricing.tax.String())
	assert.Equal(t, "28.00 USD", pricing.gross.String())
}

func TestPriceUnit_CategoryOverride(t *testing.T) {
	product := &models.Product{
		ID:          uuid.New(),
		Price:       models.NewPrice("10.00", models.USD),
		TaxCategory: "food",
	}
	rate := &models.TaxRate{General: 20, Categories: map[string]float64{"food": 5}}

	pricing := priceUnit(product, 1, rate)

	assert.Equal(t, 5.0, pricing.taxRate)
	assert.Equal(t, "0.50 USD", pricing.tax.String())
}

func TestPriceUnit_NoRate(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Price: models.NewPrice("7.00", models.USD)}

	pricing := priceUnit(product, 2, nil)

	assert.False(t, pricing.taxed)
	assert.Equal(t, "14.00 USD", pricing.net.String())
	assert.Equal(t, "14.00 USD", pricing.gross.String())
}

func TestInventoryLedger_DuplicateLines(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Inventory: 10}
	ledger := newInventoryLedger()

	// Two lines of three units share the running balance.
	require.NoError(t, ledger.reserve(product, 3))
	require.NoError(t, ledger.reserve(product, 3))

	assert.Equal(t, uint32(4), ledger.available(product.ID, product.Inventory))
}

func TestInventoryLedger_Overdraw(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Inventory: 5}
	ledger := newInventoryLedger()

	require.NoError(t, ledger.reserve(product, 3))
	err := ledger.reserve(product, 3)

	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.ProductUnavailable))
	var fe *faults.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, product.ID.String(), fe.Details["product_id"])
}

func TestInventoryLedger_CommitOrder(t *testing.T) {
	first := &models.Product{ID: uuid.New(), Inventory: 10}
	second := &models.Product{ID: uuid.New(), Inventory: 10}

	ledger := newInventoryLedger()
	require.NoError(t, ledger.reserve(first, 1))
	require.NoError(t, ledger.reserve(second, 2))
	require.NoError(t, ledger.reserve(first, 1))

	var visited []uuid.UUID
	ledger.each(func(id uuid.UUID, balance uint32) {
		visited = append(visited, id)
	})

	// First-seen order, one visit per product.
	require.Equal(t, []uuid.UUID{first.ID, second.ID}, visited)
}

func TestInventoryLedger_Empty(t *testing.T) {
	ledger := newInventoryLedger()
	assert.True(t, ledger.empty())

	require.NoError(t, ledger.reserve(&models.Product{ID: uuid.New(), Inventory: 1}, 1))
	assert.False(t, ledger.empty())
}
