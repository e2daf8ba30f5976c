package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeFinancials(t *testing.T) {
	items := []LineItem{
		{
			ProductName:     "Consultoria",
			Quantity:        dec("2"),
			UnitPrice:       dec("100"),
			DiscountPercent: dec("10"),
			TaxRate:         dec("21"),
			TaxCategory:     TaxIVA,
		},
		{
			ProductName: "Soporte",
			Quantity:    dec("1"),
			UnitPrice:   dec("50"),
			TaxRate:     dec("21"),
			TaxCategory: TaxIVA,
		},
	}

	fin := ComputeFinancials(items)

	require.True(t, items[0].Subtotal.Equal(dec("200")))
	require.True(t, items[0].Discount.Equal(dec("20")))
	require.True(t, items[0].Total.Equal(dec("180")))
	require.True(t, items[1].Total.Equal(dec("50")))

	require.True(t, fin.Subtotal.Equal(dec("250")))
	require.True(t, fin.TotalDiscount.Equal(dec("20")))
	require.True(t, fin.TaxBase.Equal(dec("230")))

	require.Len(t, fin.Taxes, 1)
	require.Equal(t, TaxIVA, fin.Taxes[0].Category)
	require.True(t, fin.Taxes[0].Rate.Equal(dec("21")))
	require.True(t, fin.Taxes[0].Base.Equal(dec("230")))
	require.True(t, fin.Taxes[0].Amount.Equal(dec("48.30")))

	require.True(t, fin.TotalTax.Equal(dec("48.30")))
	require.True(t, fin.Total.Equal(dec("278.30")))
}

func TestComputeFinancialsEmpty(t *testing.T) {
	fin := ComputeFinancials(nil)

	require.True(t, fin.Subtotal.IsZero())
	require.True(t, fin.TotalDiscount.IsZero())
	require.True(t, fin.TaxBase.IsZero())
	require.True(t, fin.TotalTax.IsZero())
	require.True(t, fin.Total.IsZero())
	require.Empty(t, fin.Taxes)
}

func TestComputeFinancialsGroupsByCategoryAndRate(t *testing.T) {
	items := []LineItem{
		{Quantity: dec("1"), UnitPrice: dec("100"), TaxRate: dec("21"), TaxCategory: TaxIVA},
		{Quantity: dec("1"), UnitPrice: dec("200"), TaxRate: dec("10"), TaxCategory: TaxIVA},
		{Quantity: dec("1"), UnitPrice: dec("300"), TaxRate: dec("21"), TaxCategory: TaxIVA},
		{Quantity: dec("1"), UnitPrice: dec("100"), TaxRate: dec("21"), TaxCategory: TaxRE},
	}

	fin := ComputeFinancials(items)

	// one group per distinct (category, rate), ordered by first occurrence
	require.Len(t, fin.Taxes, 3)
	require.Equal(t, TaxIVA, fin.Taxes[0].Category)
	require.True(t, fin.Taxes[0].Rate.Equal(dec("21")))
	require.True(t, fin.Taxes[0].Base.Equal(dec("400")))
	require.True(t, fin.Taxes[0].Amount.Equal(dec("84")))

	require.Equal(t, TaxIVA, fin.Taxes[1].Category)
	require.True(t, fin.Taxes[1].Rate.Equal(dec("10")))
	require.True(t, fin.Taxes[1].Base.Equal(dec("200")))

	require.Equal(t, TaxRE, fin.Taxes[2].Category)
	require.True(t, fin.Taxes[2].Base.Equal(dec("100")))
}

func TestComputeFinancialsOrderIndependence(t *testing.T) {
	forward := []LineItem{
		{Quantity: dec("2"), UnitPrice: dec("100"), DiscountPercent: dec("10"), TaxRate: dec("21"), TaxCategory: TaxIVA},
		{Quantity: dec("1"), UnitPrice: dec("200"), TaxRate: dec("10"), TaxCategory: TaxIVA},
		{Quantity: dec("3"), UnitPrice: dec("40"), TaxRate: dec("15"), TaxCategory: TaxIRPF},
	}
	reversed := []LineItem{forward[2], forward[1], forward[0]}

	a := ComputeFinancials(forward)
	b := ComputeFinancials(reversed)

	// the summary scalars do not depend on line order
	require.True(t, a.Subtotal.Equal(b.Subtotal))
	require.True(t, a.TotalDiscount.Equal(b.TotalDiscount))
	require.True(t, a.TaxBase.Equal(b.TaxBase))
	require.True(t, a.TotalTax.Equal(b.TotalTax))
	require.True(t, a.Total.Equal(b.Total))
	require.Len(t, b.Taxes, len(a.Taxes))

	// but each result lists its groups in that input's first-seen order
	require.Equal(t, TaxIVA, a.Taxes[0].Category)
	require.True(t, a.Taxes[0].Rate.Equal(dec("21")))
	require.Equal(t, TaxIRPF, b.Taxes[0].Category)
	require.True(t, b.Taxes[0].Rate.Equal(dec("15")))
	require.True(t, a.Taxes[0].Amount.Equal(b.Taxes[2].Amount))
	require.True(t, a.Taxes[2].Amount.Equal(b.Taxes[0].Amount))
	require.True(t, a.Taxes[1].Amount.Equal(b.Taxes[1].Amount))
}

func TestComputeFinancialsFullDiscount(t *testing.T) {
	items := []LineItem{
		{Quantity: dec("4"), UnitPrice: dec("25"), DiscountPercent: dec("100"), TaxRate: dec("21"), TaxCategory: TaxIVA},
	}

	fin := ComputeFinancials(items)

	require.True(t, fin.Subtotal.Equal(dec("100")))
	require.True(t, fin.TotalDiscount.Equal(dec("100")))
	require.True(t, fin.TaxBase.IsZero())
	require.True(t, fin.TotalTax.IsZero())
	require.True(t, fin.Total.IsZero())
}

func TestComputeFinancialsZeroRateGroup(t *testing.T) {
	items := []LineItem{
		{Quantity: dec("1"), UnitPrice: dec("100"), TaxRate: dec("0"), TaxCategory: TaxIVA},
	}

	fin := ComputeFinancials(items)

	require.Len(t, fin.Taxes, 1)
	require.True(t, fin.Taxes[0].Base.Equal(dec("100")))
	require.True(t, fin.Taxes[0].Amount.IsZero())
	require.True(t, fin.Total.Equal(dec("100")))
}
