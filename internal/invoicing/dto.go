package invoicing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errNegativeQuantity = errors.New("quantity must not be negative")
	errNegativePrice    = errors.New("unit price must not be negative")
	errDiscountRange    = errors.New("discount percent must be between 0 and 100")
)

type CreateInvoiceRequest struct {
	Series       string            `json:"series" validate:"omitempty,alpha,uppercase,max=5"`
	Type         InvoiceType       `json:"type" validate:"omitempty,oneof=invoice credit_note proforma"`
	Customer     CustomerRequest   `json:"customer" validate:"required"`
	IssueDate    *time.Time        `json:"issue_date,omitempty"`
	DueDate      *time.Time        `json:"due_date,omitempty"`
	PaymentTerms PaymentTerms      `json:"payment_terms" validate:"omitempty,oneof=immediate 15_days 30_days 45_days 60_days 90_days custom"`
	Items        []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes        string            `json:"notes,omitempty" validate:"max=2000"`
}

type CustomerRequest struct {
	CustomerID int64   `json:"customer_id,omitempty"`
	Name       string  `json:"name" validate:"required,max=200"`
	TaxID      string  `json:"tax_id" validate:"required,max=20"`
	Email      string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string  `json:"phone,omitempty" validate:"max=30"`
	Address    Address `json:"address"`
}

type LineItemRequest struct {
	ProductName     string          `json:"product_name" validate:"required,max=200"`
	SKU             string          `json:"sku,omitempty" validate:"max=50"`
	Description     string          `json:"description,omitempty" validate:"max=500"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty" validate:"max=20"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxCategory     TaxCategory     `json:"tax_category" validate:"omitempty,oneof=IVA IRPF RE"`
}

// Validate checks the numeric constraints the validator tags cannot
// express for decimal fields.
func (r LineItemRequest) Validate() error {
	if r.Quantity.IsNegative() {
		return errNegativeQuantity
	}
	if r.UnitPrice.IsNegative() {
		return errNegativePrice
	}
	if r.DiscountPercent.IsNegative() || r.DiscountPercent.GreaterThan(hundred) {
		return errDiscountRange
	}
	return nil
}

type UpdateInvoiceRequest struct {
	Items []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes string            `json:"notes,omitempty" validate:"max=2000"`
}

type RecordPaymentRequest struct {
	Date      *time.Time      `json:"date,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=cash transfer card paypal stripe direct_debit check other"`
	Reference string          `json:"reference,omitempty" validate:"max=100"`
	Note      string          `json:"note,omitempty" validate:"max=500"`
}

type InvoiceListResponse struct {
	Invoices []InvoiceSummaryResponse `json:"invoices"`
}

type InvoiceSummaryResponse struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	Type         InvoiceType     `json:"type"`
	CustomerName string          `json:"customer_name"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	Total        decimal.Decimal `json:"total"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Status       PaymentStatus   `json:"status"`
}

func (r LineItemRequest) toDomain() LineItem {
	category := r.TaxCategory
	if category == "" {
		category = TaxIVA
	}
	return LineItem{
		ProductName:     r.ProductName,
		SKU:             r.SKU,
		Description:     r.Description,
		Quantity:        r.Quantity,
		Unit:            r.Unit,
		UnitPrice:       r.UnitPrice,
		DiscountPercent: r.DiscountPercent,
		TaxRate:         r.TaxRate,
		TaxCategory:     category,
	}
}
