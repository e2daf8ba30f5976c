package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxCategory classifies the tax applied to a line item.
type TaxCategory string

const (
	TaxIVA  TaxCategory = "IVA"  // standard VAT
	TaxIRPF TaxCategory = "IRPF" // withholding
	TaxRE   TaxCategory = "RE"   // equivalence surcharge
)

// InvoiceType enumerates document types.
type InvoiceType string

const (
	TypeInvoice    InvoiceType = "invoice"
	TypeCreditNote InvoiceType = "credit_note"
	TypeProforma   InvoiceType = "proforma"
)

// PaymentStatus enumerates persisted payment states. Overdue is a
// view-time label derived by EffectiveStatus, never stored.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPartial   PaymentStatus = "partial"
	StatusPaid      PaymentStatus = "paid"
	StatusOverdue   PaymentStatus = "overdue"
	StatusCancelled PaymentStatus = "cancelled"
)

// PaymentTerms enumerates supported payment term presets.
type PaymentTerms string

const (
	TermsImmediate PaymentTerms = "immediate"
	Terms15Days    PaymentTerms = "15_days"
	Terms30Days    PaymentTerms = "30_days"
	Terms45Days    PaymentTerms = "45_days"
	Terms60Days    PaymentTerms = "60_days"
	Terms90Days    PaymentTerms = "90_days"
	TermsCustom    PaymentTerms = "custom"
)

// DueDateFor derives a due date from the issue date and payment terms.
// Custom terms carry an explicit due date on the invoice; callers keep
// it instead of deriving one here. Unknown terms fall back to 30 days.
func DueDateFor(issueDate time.Time, terms PaymentTerms) time.Time {
	switch terms {
	case TermsImmediate:
		return issueDate
	case Terms15Days:
		return issueDate.AddDate(0, 0, 15)
	case Terms45Days:
		return issueDate.AddDate(0, 0, 45)
	case Terms60Days:
		return issueDate.AddDate(0, 0, 60)
	case Terms90Days:
		return issueDate.AddDate(0, 0, 90)
	default:
		return issueDate.AddDate(0, 0, 30)
	}
}

// LineItem is a single invoice line. Quantity, UnitPrice, DiscountPercent,
// TaxRate and TaxCategory are caller input; Subtotal, Discount and Total
// are derived by ComputeFinancials.
type LineItem struct {
	ID              int64           `json:"id,omitempty"`
	ProductName     string          `json:"product_name"`
	SKU             string          `json:"sku,omitempty"`
	Description     string          `json:"description,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxCategory     TaxCategory     `json:"tax_category"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// TaxGroup aggregates line totals sharing a (category, rate) key.
type TaxGroup struct {
	Category TaxCategory     `json:"category"`
	Rate     decimal.Decimal `json:"rate"`
	Base     decimal.Decimal `json:"base"`
	Amount   decimal.Decimal `json:"amount"`
}

// FinancialSummary holds document-level derived totals.
type FinancialSummary struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TaxBase       decimal.Decimal `json:"tax_base"`
	Taxes         []TaxGroup      `json:"taxes"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	Total         decimal.Decimal `json:"total"`
	TotalInWords  string          `json:"total_in_words,omitempty"`
}

// Address is a postal address snapshot.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CustomerSnapshot is the customer copied onto the invoice at issue
// time. It is never live-linked to the customer record.
type CustomerSnapshot struct {
	CustomerID int64   `json:"customer_id,omitempty"`
	Name       string  `json:"name"`
	TaxID      string  `json:"tax_id"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Address    Address `json:"address"`
}

// Payment is an append-only payment history entry. Corrections are
// recorded as reversal entries with a negative amount.
type Payment struct {
	ID        int64           `json:"id,omitempty"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// Invoice is the invoice aggregate. Number and SequentialNumber are
// assigned exactly once, at first successful persist.
type Invoice struct {
	ID               int64            `json:"id"`
	Series           string           `json:"series"`
	SequentialNumber int64            `json:"sequential_number"`
	Number           string           `json:"number"`
	Type             InvoiceType      `json:"type"`
	UserID           int64            `json:"user_id"`
	Customer         CustomerSnapshot `json:"customer"`
	IssueDate        time.Time        `json:"issue_date"`
	DueDate          time.Time        `json:"due_date"`
	PaymentTerms     PaymentTerms     `json:"payment_terms"`
	Items            []LineItem       `json:"items"`
	Financial        FinancialSummary `json:"financial"`
	Status           PaymentStatus    `json:"status"`
	PaidAmount       decimal.Decimal  `json:"paid_amount"`
	Payments         []Payment        `json:"payments"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsOverdue reports whether the invoice is past its due date while
// still awaiting payment. Paid and cancelled invoices are never overdue.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status != StatusPending && inv.Status != StatusPartial {
		return false
	}
	return inv.DueDate.Before(now)
}

// EffectiveStatus returns the status to display, substituting the
// derived overdue label where it applies.
func (inv *Invoice) EffectiveStatus(now time.Time) PaymentStatus {
	if inv.IsOverdue(now) {
		return StatusOverdue
	}
	return inv.Status
}

// Clone returns a new unsaved invoice copying everything except
// identity, number and payment history. The issue date is reset to now
// and the due date re-derived from the payment terms.
func (inv *Invoice) Clone(now time.Time) *Invoice {
	items := make([]LineItem, len(inv.Items))
	copy(items, inv.Items)
	for i := range items {
		items[i].ID = 0
	}
	dueDate := DueDateFor(now, inv.PaymentTerms)
	if inv.PaymentTerms == TermsCustom {
		// keep the custom payment window relative to the new issue date
		dueDate = now.Add(inv.DueDate.Sub(inv.IssueDate))
	}
	dup := &Invoice{
		Series:       inv.Series,
		Type:         inv.Type,
		UserID:       inv.UserID,
		Customer:     inv.Customer,
		IssueDate:    now,
		DueDate:      dueDate,
		PaymentTerms: inv.PaymentTerms,
		Items:        items,
		Status:       StatusPending,
		PaidAmount:   decimal.Zero,
		Notes:        inv.Notes,
	}
	dup.Financial = ComputeFinancials(dup.Items)
	return dup
}

// DateRange bounds a statistics query. Both ends are inclusive.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls within the range, inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Statistics aggregates invoice amounts for an account.
type Statistics struct {
	TotalInvoices int64           `json:"total_invoices"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
}

// ZeroStatistics returns an all-zero statistics struct.
func ZeroStatistics() Statistics {
	return Statistics{
		TotalAmount:   decimal.Zero,
		PaidAmount:    decimal.Zero,
		PendingAmount: decimal.Zero,
		OverdueAmount: decimal.Zero,
	}
}
