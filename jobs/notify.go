package jobs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/NUbem000/NubemERP/internal/invoicing"
	"github.com/NUbem000/NubemERP/internal/mailer"
)

// brandName appears as the issuer in customer-facing emails.
const brandName = "NubemERP"

// QueuedCounter records queued-email metrics.
type QueuedCounter interface {
	EmailQueued()
}

// Notifier turns domain events into queued transactional emails. It
// implements the notifier ports of the auth and invoicing services.
// Monetary amounts are rendered for the configured locale and currency.
type Notifier struct {
	client  *Client
	logger  *slog.Logger
	counter QueuedCounter
	baseURL string
	printer *message.Printer
	symbol  string
}

// NewNotifier builds Notifier instance. Unparseable locales fall back
// to Spanish, the product default.
func NewNotifier(client *Client, logger *slog.Logger, counter QueuedCounter, baseURL, locale, currencyCode string) *Notifier {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return &Notifier{
		client:  client,
		logger:  logger,
		counter: counter,
		baseURL: strings.TrimRight(baseURL, "/"),
		printer: message.NewPrinter(tag),
		symbol:  currencySymbol(currencyCode),
	}
}

func (n *Notifier) enqueue(ctx context.Context, payload SendEmailPayload) {
	if n == nil || n.client == nil || payload.To == "" {
		return
	}
	if _, err := n.client.EnqueueSendEmail(ctx, payload); err != nil {
		n.logger.Warn("email enqueue failed",
			slog.String("template", payload.Template),
			slog.Any("error", err),
		)
		return
	}
	if n.counter != nil {
		n.counter.EmailQueued()
	}
}

// VerificationEmail queues the address-confirmation email.
func (n *Notifier) VerificationEmail(ctx context.Context, email, name, token string) {
	n.enqueue(ctx, SendEmailPayload{
		To:       email,
		Template: mailer.TemplateEmailVerification,
		Vars: map[string]string{
			"name":            name,
			"verificationUrl": n.baseURL + "/verify-email?token=" + token,
		},
	})
}

// PasswordResetEmail queues the reset-link email.
func (n *Notifier) PasswordResetEmail(ctx context.Context, email, name, token string) {
	n.enqueue(ctx, SendEmailPayload{
		To:       email,
		Template: mailer.TemplatePasswordReset,
		Vars: map[string]string{
			"name":     name,
			"resetUrl": n.baseURL + "/reset-password?token=" + token,
		},
	})
}

// PasswordChangedEmail queues the change confirmation after a reset.
func (n *Notifier) PasswordChangedEmail(ctx context.Context, email, name string) {
	n.enqueue(ctx, SendEmailPayload{
		To:       email,
		Template: mailer.TemplatePasswordChanged,
		Vars: map[string]string{
			"name": name,
		},
	})
}

// WelcomeEmail queues the onboarding email after verification.
func (n *Notifier) WelcomeEmail(ctx context.Context, email, name string) {
	n.enqueue(ctx, SendEmailPayload{
		To:       email,
		Template: mailer.TemplateWelcome,
		Vars: map[string]string{
			"name":         name,
			"dashboardUrl": n.baseURL + "/dashboard",
		},
	})
}

// InvoiceIssued queues the new-invoice email for the customer.
func (n *Notifier) InvoiceIssued(ctx context.Context, inv *invoicing.Invoice) {
	if inv == nil || inv.Customer.Email == "" {
		return
	}
	n.enqueue(ctx, SendEmailPayload{
		To:       inv.Customer.Email,
		Template: mailer.TemplateInvoiceCreated,
		Vars: map[string]string{
			"invoiceNumber": inv.Number,
			"customerName":  inv.Customer.Name,
			"amount":        n.formatAmount(inv.Financial.Total),
			"dueDate":       inv.DueDate.Format("02/01/2006"),
			"invoiceUrl":    n.baseURL + "/invoices/" + inv.Number,
			"companyName":   brandName,
		},
	})
}

// PaymentReceived queues the payment acknowledgement email.
func (n *Notifier) PaymentReceived(ctx context.Context, inv *invoicing.Invoice, p invoicing.Payment) {
	if inv == nil || inv.Customer.Email == "" {
		return
	}
	n.enqueue(ctx, SendEmailPayload{
		To:       inv.Customer.Email,
		Template: mailer.TemplatePaymentReceived,
		Vars: map[string]string{
			"invoiceNumber": inv.Number,
			"customerName":  inv.Customer.Name,
			"amount":        n.formatAmount(p.Amount),
			"companyName":   brandName,
		},
	})
}

func currencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "", "EUR":
		return "€"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	default:
		return strings.ToUpper(code)
	}
}

// formatAmount renders an amount in the configured locale, e.g.
// "1.278,30 €" for es/EUR.
func (n *Notifier) formatAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return n.printer.Sprintf("%.2f %s", f, n.symbol)
}
