package invoicing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[int64]*Invoice
	nextID   int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{invoices: make(map[int64]*Invoice)}
}

func (r *memoryInvoiceRepo) CreateInvoice(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	inv.ID = r.nextID
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memoryInvoiceRepo) UpdateInvoice(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.ID]; !ok {
		return errors.New("not found")
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memoryInvoiceRepo) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *inv
	cp.Payments = append([]Payment(nil), inv.Payments...)
	return &cp, nil
}

func (r *memoryInvoiceRepo) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		if req.UserID != 0 && inv.UserID != req.UserID {
			continue
		}
		if req.Status != "" && inv.Status != req.Status {
			continue
		}
		if !req.IssuedFrom.IsZero() && inv.IssueDate.Before(req.IssuedFrom) {
			continue
		}
		if !req.IssuedTo.IsZero() && inv.IssueDate.After(req.IssuedTo) {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (r *memoryInvoiceRepo) AppendPayment(ctx context.Context, invoiceID int64, p Payment, paidAmount decimal.Decimal, status PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return errors.New("not found")
	}
	inv.Payments = append(inv.Payments, p)
	inv.PaidAmount = paidAmount
	inv.Status = status
	return nil
}

func (r *memoryInvoiceRepo) SetStatus(ctx context.Context, id int64, status PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return errors.New("not found")
	}
	inv.Status = status
	return nil
}

type memorySequence struct {
	counter atomic.Int64
	failing bool
}

func (s *memorySequence) Next(ctx context.Context, series string) (int64, error) {
	if s.failing {
		return 0, errors.New("sequence unavailable")
	}
	return s.counter.Add(1), nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	issued   []string
	payments []decimal.Decimal
}

func (n *recordingNotifier) InvoiceIssued(ctx context.Context, inv *Invoice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued = append(n.issued, inv.Number)
}

func (n *recordingNotifier) PaymentReceived(ctx context.Context, inv *Invoice, p Payment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments = append(n.payments, p.Amount)
}

type countingCounter struct {
	issued atomic.Int64
}

func (c *countingCounter) InvoiceIssued() { c.issued.Add(1) }

func fixedNow() time.Time {
	return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(repo *memoryInvoiceRepo, seq *memorySequence) (*Service, *recordingNotifier, *countingCounter) {
	notifier := &recordingNotifier{}
	counter := &countingCounter{}
	svc := NewService(repo, seq, notifier, counter)
	svc.now = fixedNow
	return svc, notifier, counter
}

func sampleInvoice(userID int64) *Invoice {
	return &Invoice{
		Series: "FAC",
		UserID: userID,
		Customer: CustomerSnapshot{
			Name:  "Acme SL",
			TaxID: "B12345678",
		},
		Items: []LineItem{
			{ProductName: "Consultoria", Quantity: dec("2"), UnitPrice: dec("100"), DiscountPercent: dec("10"), TaxRate: dec("21"), TaxCategory: TaxIVA},
			{ProductName: "Soporte", Quantity: dec("1"), UnitPrice: dec("50"), TaxRate: dec("21"), TaxCategory: TaxIVA},
		},
	}
}

func TestCreateInvoiceAssignsNumber(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	seq := &memorySequence{}
	svc, notifier, counter := newTestService(repo, seq)

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))

	require.Equal(t, int64(1), inv.SequentialNumber)
	require.Equal(t, "FAC2025-00001", inv.Number)
	require.Equal(t, StatusPending, inv.Status)
	require.True(t, inv.PaidAmount.IsZero())
	require.True(t, inv.Financial.Total.Equal(dec("278.30")))
	require.Equal(t, TypeInvoice, inv.Type)
	require.Equal(t, Terms30Days, inv.PaymentTerms)
	require.Equal(t, fixedNow().AddDate(0, 0, 30), inv.DueDate)

	require.Equal(t, int64(1), counter.issued.Load())
	require.Equal(t, []string{"FAC2025-00001"}, notifier.issued)

	stored, err := repo.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, "FAC2025-00001", stored.Number)
}

func TestCreateInvoiceRequiresLineItems(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	inv.Items = nil
	err := svc.CreateInvoice(context.Background(), inv)
	require.ErrorIs(t, err, ErrNoLineItems)
	require.Empty(t, repo.invoices)
}

func TestCreateInvoiceSequenceFailureAborts(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	seq := &memorySequence{failing: true}
	svc, notifier, counter := newTestService(repo, seq)

	inv := sampleInvoice(7)
	err := svc.CreateInvoice(context.Background(), inv)
	require.Error(t, err)
	require.Empty(t, inv.Number)
	require.Empty(t, repo.invoices)
	require.Zero(t, counter.issued.Load())
	require.Empty(t, notifier.issued)
}

func TestCreateInvoiceConcurrentNumbersDistinct(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	seq := &memorySequence{}
	svc, _, _ := newTestService(repo, seq)

	const n = 50
	numbers := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv := sampleInvoice(7)
			if err := svc.CreateInvoice(context.Background(), inv); err == nil {
				numbers[i] = inv.Number
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, num := range numbers {
		require.NotEmpty(t, num)
		_, dup := seen[num]
		require.False(t, dup, "duplicate invoice number %s", num)
		seen[num] = struct{}{}
	}
}

func TestRecordPaymentTransitions(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, notifier, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))

	// partial payment
	updated, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("100"), Method: "transfer"})
	require.NoError(t, err)
	require.Equal(t, StatusPartial, updated.Status)
	require.True(t, updated.PaidAmount.Equal(dec("100")))

	// remainder settles the invoice
	updated, err = svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("178.30"), Method: "transfer"})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, updated.Status)
	require.True(t, updated.PaidAmount.Equal(dec("278.30")))
	require.Len(t, updated.Payments, 2)

	require.Len(t, notifier.payments, 2)
}

func TestRecordPaymentAssignsReference(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))

	updated, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("100"), Method: "transfer"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(updated.Payments[0].Reference, "REC-"))

	// a caller-supplied reference is kept verbatim
	updated, err = svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("50"), Method: "transfer", Reference: "BANK-123"})
	require.NoError(t, err)
	require.Equal(t, "BANK-123", updated.Payments[1].Reference)
}

func TestRecordPaymentOverpaymentStaysPaid(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))

	updated, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("300"), Method: "cash"})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, updated.Status)
	require.True(t, updated.PaidAmount.Equal(dec("300")))
}

func TestRecordPaymentReversal(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))

	_, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("100"), Method: "transfer"})
	require.NoError(t, err)

	// reversal brings the paid amount back to zero; status stays where
	// the last positive transition left it
	updated, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("-100"), Method: "transfer", Note: "reversal"})
	require.NoError(t, err)
	require.True(t, updated.PaidAmount.IsZero())
	require.Equal(t, StatusPartial, updated.Status)
	require.Len(t, updated.Payments, 2)
}

func TestRecordPaymentCancelledInvoice(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))
	require.NoError(t, svc.CancelInvoice(context.Background(), inv.ID))

	_, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("100"), Method: "cash"})
	require.ErrorIs(t, err, ErrImmutable)
}

func TestUpdateInvoiceKeepsNumber(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))
	number := inv.Number

	items := []LineItem{
		{ProductName: "Formacion", Quantity: dec("1"), UnitPrice: dec("500"), TaxRate: dec("21"), TaxCategory: TaxIVA},
	}
	updated, err := svc.UpdateInvoice(context.Background(), inv.ID, items, "revised")
	require.NoError(t, err)
	require.Equal(t, number, updated.Number)
	require.Equal(t, inv.SequentialNumber, updated.SequentialNumber)
	require.True(t, updated.Financial.Total.Equal(dec("605")))
	require.Equal(t, "revised", updated.Notes)
}

func TestUpdateInvoiceImmutableWhenPaid(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))
	_, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("278.30"), Method: "transfer"})
	require.NoError(t, err)

	_, err = svc.UpdateInvoice(context.Background(), inv.ID, inv.Items, "")
	require.ErrorIs(t, err, ErrImmutable)
}

func TestCancelInvoice(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))
	require.NoError(t, svc.CancelInvoice(context.Background(), inv.ID))

	stored, err := repo.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, stored.Status)

	require.ErrorIs(t, svc.CancelInvoice(context.Background(), inv.ID), ErrAlreadyCancelled)
}

func TestCloneInvoiceStripsIdentity(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	inv := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(context.Background(), inv))
	_, err := svc.RecordPayment(context.Background(), inv.ID, Payment{Amount: dec("100"), Method: "cash"})
	require.NoError(t, err)

	dup, err := svc.CloneInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	require.Zero(t, dup.ID)
	require.Empty(t, dup.Number)
	require.Zero(t, dup.SequentialNumber)
	require.Empty(t, dup.Payments)
	require.True(t, dup.PaidAmount.IsZero())
	require.Equal(t, StatusPending, dup.Status)
	require.Equal(t, fixedNow(), dup.IssueDate)
	require.Equal(t, inv.Customer, dup.Customer)
	require.True(t, dup.Financial.Total.Equal(inv.Financial.Total))
}

func TestStatistics(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})
	ctx := context.Background()

	// pending, due in the future
	first := sampleInvoice(7)
	require.NoError(t, svc.CreateInvoice(ctx, first))

	// pending and past due: counts toward overdue
	second := sampleInvoice(7)
	second.IssueDate = fixedNow().AddDate(0, -3, 0)
	second.PaymentTerms = Terms15Days
	require.NoError(t, svc.CreateInvoice(ctx, second))

	// partially paid and past due: not counted as overdue amount
	third := sampleInvoice(7)
	third.IssueDate = fixedNow().AddDate(0, -3, 0)
	third.PaymentTerms = Terms15Days
	require.NoError(t, svc.CreateInvoice(ctx, third))
	_, err := svc.RecordPayment(ctx, third.ID, Payment{Amount: dec("100"), Method: "transfer"})
	require.NoError(t, err)

	// another account's invoice is excluded
	other := sampleInvoice(9)
	require.NoError(t, svc.CreateInvoice(ctx, other))

	stats, err := svc.Statistics(ctx, 7, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalInvoices)
	require.True(t, stats.TotalAmount.Equal(dec("834.90")))
	require.True(t, stats.PaidAmount.Equal(dec("100")))
	require.True(t, stats.PendingAmount.Equal(dec("556.60")))
	require.True(t, stats.OverdueAmount.Equal(dec("278.30")))
}

func TestStatisticsEmptyResult(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})

	stats, err := svc.Statistics(context.Background(), 42, nil)
	require.NoError(t, err)
	require.Zero(t, stats.TotalInvoices)
	require.True(t, stats.TotalAmount.IsZero())
	require.True(t, stats.PaidAmount.IsZero())
	require.True(t, stats.PendingAmount.IsZero())
	require.True(t, stats.OverdueAmount.IsZero())
}

func TestStatisticsDateRangeInclusive(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc, _, _ := newTestService(repo, &memorySequence{})
	ctx := context.Background()

	inside := sampleInvoice(7)
	inside.IssueDate = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.CreateInvoice(ctx, inside))

	boundary := sampleInvoice(7)
	boundary.IssueDate = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.CreateInvoice(ctx, boundary))

	outside := sampleInvoice(7)
	outside.IssueDate = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.CreateInvoice(ctx, outside))

	stats, err := svc.Statistics(ctx, 7, &DateRange{
		From: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalInvoices)
}

func TestFormatNumber(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "FAC2025-00001", FormatNumber("FAC", at, 1))
	require.Equal(t, "FAC2025-00042", FormatNumber("FAC", at, 42))
	require.Equal(t, "PRO2025-123456", FormatNumber("PRO", at, 123456))
}
