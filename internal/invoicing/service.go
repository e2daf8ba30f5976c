package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepositoryPort defines data access methods for invoicing.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	AppendPayment(ctx context.Context, invoiceID int64, p Payment, paidAmount decimal.Decimal, status PaymentStatus) error
	SetStatus(ctx context.Context, id int64, status PaymentStatus) error
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	UserID    int64
	Status    PaymentStatus
	IssuedFrom time.Time
	IssuedTo   time.Time
	Limit     int
	Offset    int
}

// Notifier enqueues transactional notifications after invoicing events.
type Notifier interface {
	InvoiceIssued(ctx context.Context, inv *Invoice)
	PaymentReceived(ctx context.Context, inv *Invoice, p Payment)
}

// IssuedCounter records issued-invoice metrics.
type IssuedCounter interface {
	InvoiceIssued()
}

// Service handles invoicing business logic.
type Service struct {
	repo     RepositoryPort
	seq      SequenceProvider
	notifier Notifier
	counter  IssuedCounter
	now      func() time.Time
}

// NewService builds Service instance. notifier and counter may be nil.
func NewService(repo RepositoryPort, seq SequenceProvider, notifier Notifier, counter IssuedCounter) *Service {
	return &Service{repo: repo, seq: seq, notifier: notifier, counter: counter, now: time.Now}
}

var (
	// ErrNoLineItems occurs when finalizing an invoice without lines.
	ErrNoLineItems = errors.New("invoicing: invoice requires at least one line item")
	// ErrImmutable occurs when modifying a paid or cancelled invoice.
	ErrImmutable = errors.New("invoicing: invoice can no longer be modified")
	// ErrAlreadyCancelled occurs when cancelling a terminal invoice.
	ErrAlreadyCancelled = errors.New("invoicing: invoice is already paid or cancelled")
)

// CreateInvoice finalizes and persists a new invoice: it computes the
// financial summary, obtains the next sequence value for the series and
// assigns the permanent document number. The operation is all-or-nothing;
// a sequence provider failure aborts before anything is persisted, and
// an aborted persist leaves an acceptable gap in the series.
func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if len(inv.Items) == 0 {
		return ErrNoLineItems
	}
	now := s.now()

	if inv.Type == "" {
		inv.Type = TypeInvoice
	}
	if inv.PaymentTerms == "" {
		inv.PaymentTerms = Terms30Days
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}
	if inv.DueDate.IsZero() || inv.PaymentTerms != TermsCustom {
		inv.DueDate = DueDateFor(inv.IssueDate, inv.PaymentTerms)
	}

	inv.Financial = ComputeFinancials(inv.Items)

	seq, err := s.seq.Next(ctx, inv.Series)
	if err != nil {
		return fmt.Errorf("invoicing: finalize: %w", err)
	}
	inv.SequentialNumber = seq
	inv.Number = FormatNumber(inv.Series, now, seq)
	inv.Status = StatusPending
	inv.PaidAmount = decimal.Zero
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return fmt.Errorf("invoicing: finalize: %w", err)
	}

	if s.counter != nil {
		s.counter.InvoiceIssued()
	}
	if s.notifier != nil {
		s.notifier.InvoiceIssued(ctx, inv)
	}
	return nil
}

// UpdateInvoice replaces the line items and editable fields of an
// existing invoice and recomputes its financial summary. The document
// number never changes. Paid and cancelled invoices are immutable.
func (s *Service) UpdateInvoice(ctx context.Context, id int64, items []LineItem, notes string) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPaid || inv.Status == StatusCancelled {
		return nil, ErrImmutable
	}
	if len(items) == 0 {
		return nil, ErrNoLineItems
	}

	inv.Items = items
	inv.Notes = notes
	inv.Financial = ComputeFinancials(inv.Items)
	inv.UpdatedAt = s.now()

	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetInvoice loads a single invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices returns invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, req)
}

// RecordPayment appends a payment to the invoice history and updates the
// paid amount and status. Payments are append-only; a mistaken payment
// is corrected by a reversal entry with a negative amount. Amounts above
// the invoice total are accepted and keep the status at paid.
func (s *Service) RecordPayment(ctx context.Context, invoiceID int64, p Payment) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled {
		return nil, ErrImmutable
	}
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	if p.Reference == "" {
		p.Reference = "REC-" + uuid.NewString()
	}

	inv.Payments = append(inv.Payments, p)
	paid := decimal.Zero
	for _, entry := range inv.Payments {
		paid = paid.Add(entry.Amount)
	}
	inv.PaidAmount = paid

	switch {
	case paid.GreaterThanOrEqual(inv.Financial.Total):
		inv.Status = StatusPaid
	case paid.IsPositive():
		inv.Status = StatusPartial
	default:
		// zero or fully reversed: status stays as-is
	}
	inv.UpdatedAt = s.now()

	if err := s.repo.AppendPayment(ctx, invoiceID, p, inv.PaidAmount, inv.Status); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.PaymentReceived(ctx, inv, p)
	}
	return inv, nil
}

// CancelInvoice moves a non-terminal invoice to cancelled.
func (s *Service) CancelInvoice(ctx context.Context, id int64) error {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == StatusPaid || inv.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	return s.repo.SetStatus(ctx, id, StatusCancelled)
}

// CloneInvoice returns a new unsaved copy of an invoice with identity,
// number and payment history stripped and the issue date reset to now.
func (s *Service) CloneInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return inv.Clone(s.now()), nil
}

// Statistics aggregates invoice totals for an account, optionally
// bounded by an inclusive issue-date range. A query matching nothing
// yields an all-zero result, never an error.
func (s *Service) Statistics(ctx context.Context, userID int64, dateRange *DateRange) (Statistics, error) {
	req := ListInvoicesRequest{UserID: userID}
	if dateRange != nil {
		req.IssuedFrom = dateRange.From
		req.IssuedTo = dateRange.To
	}
	invoices, err := s.repo.ListInvoices(ctx, req)
	if err != nil {
		return Statistics{}, err
	}

	stats := ZeroStatistics()
	now := s.now()
	for i := range invoices {
		inv := &invoices[i]
		stats.TotalInvoices++
		stats.TotalAmount = stats.TotalAmount.Add(inv.Financial.Total)
		stats.PaidAmount = stats.PaidAmount.Add(inv.PaidAmount)
		if inv.Status == StatusPending {
			stats.PendingAmount = stats.PendingAmount.Add(inv.Financial.Total)
			if inv.DueDate.Before(now) {
				stats.OverdueAmount = stats.OverdueAmount.Add(inv.Financial.Total)
			}
		}
	}
	return stats, nil
}
