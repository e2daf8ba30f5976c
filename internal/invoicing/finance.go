package invoicing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type taxKey struct {
	category TaxCategory
	rate     string
}

// ComputeFinancials derives per-line subtotal/discount/total and the
// document-level financial summary from the given line items. The
// slice's derived fields are filled in place.
//
// Tax groups are keyed by (category, rate); the first occurrence of a
// key fixes its position in the output, so grouping is deterministic
// for a given item order. Each group's base accumulates post-discount
// line totals, matching the document-level TaxBase which subtracts the
// total discount from the subtotal.
//
// The function is pure aside from filling derived fields: it never
// fails, and an empty item list yields an all-zero summary with an
// empty tax group list. Input validation is the caller's concern.
func ComputeFinancials(items []LineItem) FinancialSummary {
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero

	groups := make(map[taxKey]int)
	taxes := make([]TaxGroup, 0, len(items))

	for i := range items {
		item := &items[i]

		item.Subtotal = item.Quantity.Mul(item.UnitPrice)
		item.Discount = item.Subtotal.Mul(item.DiscountPercent.Div(hundred))
		item.Total = item.Subtotal.Sub(item.Discount)

		subtotal = subtotal.Add(item.Subtotal)
		totalDiscount = totalDiscount.Add(item.Discount)

		key := taxKey{category: item.TaxCategory, rate: item.TaxRate.String()}
		idx, ok := groups[key]
		if !ok {
			idx = len(taxes)
			groups[key] = idx
			taxes = append(taxes, TaxGroup{
				Category: item.TaxCategory,
				Rate:     item.TaxRate,
				Base:     decimal.Zero,
				Amount:   decimal.Zero,
			})
		}
		taxes[idx].Base = taxes[idx].Base.Add(item.Total)
		taxes[idx].Amount = taxes[idx].Amount.Add(item.Total.Mul(item.TaxRate.Div(hundred)))
	}

	taxBase := subtotal.Sub(totalDiscount)
	totalTax := decimal.Zero
	for _, g := range taxes {
		totalTax = totalTax.Add(g.Amount)
	}
	total := taxBase.Add(totalTax)

	return FinancialSummary{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		TaxBase:       taxBase,
		Taxes:         taxes,
		TotalTax:      totalTax,
		Total:         total,
		TotalInWords:  AmountInWords(total),
	}
}
