// Package mailer delivers transactional emails over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Mailer renders registered templates and delivers them over SMTP.
type Mailer struct {
	logger *slog.Logger
	cfg    Config
}

// New builds Mailer instance.
func New(logger *slog.Logger, cfg Config) *Mailer {
	return &Mailer{logger: logger, cfg: cfg}
}

// Send renders the named template with vars and delivers it to one
// recipient.
func (m *Mailer) Send(ctx context.Context, to, templateName string, vars map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmpl, err := Lookup(templateName)
	if err != nil {
		return err
	}
	subject, body := tmpl.Render(vars)
	if err := send(m.cfg, to, subject, body); err != nil {
		return err
	}
	m.logger.Info("email sent",
		slog.String("template", templateName),
		slog.String("to", to))
	return nil
}

// SendBulk delivers the same rendered template to several recipients.
// Delivery continues past individual failures; the joined error lists
// every recipient that failed.
func (m *Mailer) SendBulk(ctx context.Context, recipients []string, templateName string, vars map[string]string) error {
	var errs []error
	for _, to := range recipients {
		if err := m.Send(ctx, to, templateName, vars); err != nil {
			m.logger.Error("bulk email failed",
				slog.String("template", templateName),
				slog.String("to", to),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}
