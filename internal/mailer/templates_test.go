package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesVars(t *testing.T) {
	tmpl, err := Lookup(TemplateInvoiceCreated)
	require.NoError(t, err)

	subject, body := tmpl.Render(map[string]string{
		"invoiceNumber": "FAC2025-00042",
		"customerName":  "Acme SL",
		"amount":        "278,30 €",
		"dueDate":       "15/04/2025",
		"invoiceUrl":    "https://app.nubemerp.test/invoices/42",
		"companyName":   "NubemERP",
	})

	require.Equal(t, "Factura FAC2025-00042 emitida", subject)
	require.Contains(t, body, "Acme SL")
	require.Contains(t, body, "278,30 €")
	require.Contains(t, body, "https://app.nubemerp.test/invoices/42")
	require.NotContains(t, body, "{{")
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	tmpl := Template{Subject: "Hola {{name}}", HTML: "<p>{{name}} {{missing}}</p>"}

	subject, body := tmpl.Render(map[string]string{"name": "Ana"})
	require.Equal(t, "Hola Ana", subject)
	require.Contains(t, body, "Ana")
	require.Contains(t, body, "{{missing}}")
}

func TestLookupUnknownTemplate(t *testing.T) {
	_, err := Lookup("nope")
	require.Error(t, err)
}

func TestAllTemplatesRegistered(t *testing.T) {
	names := []string{
		TemplateEmailVerification,
		TemplatePasswordReset,
		TemplatePasswordChanged,
		TemplateWelcome,
		TemplateInvoiceCreated,
		TemplatePaymentReceived,
		TemplateTrialEnding,
	}
	for _, name := range names {
		tmpl, err := Lookup(name)
		require.NoError(t, err, name)
		require.NotEmpty(t, tmpl.Subject, name)
		require.True(t, strings.Contains(tmpl.HTML, "<div"), name)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("NubemERP <no-reply@nubemerp.local>", "ana@test.local", "Asunto", "<p>Hola</p>")
	require.Contains(t, msg, "From: NubemERP <no-reply@nubemerp.local>\r\n")
	require.Contains(t, msg, "To: ana@test.local\r\n")
	require.Contains(t, msg, "Content-Type: text/html; charset=utf-8\r\n")
	require.True(t, strings.HasSuffix(msg, "<p>Hola</p>"))
}

func TestParseAddress(t *testing.T) {
	require.Equal(t, "no-reply@nubemerp.local", parseAddress("NubemERP <no-reply@nubemerp.local>"))
	require.Equal(t, "plain@test.local", parseAddress("plain@test.local"))
}
