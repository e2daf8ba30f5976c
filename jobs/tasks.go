package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/NUbem000/NubemERP/internal/jobs"
	"github.com/NUbem000/NubemERP/internal/mailer"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeTrialReminder is the task type for the subscription expiry sweep.
	TaskTypeTrialReminder = "subscriptions:trial-reminder"
)

// SendEmailPayload describes a templated email to deliver.
type SendEmailPayload struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Vars     map[string]string `json:"vars,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// SendEmailJob delivers queued emails through the SMTP mailer.
type SendEmailJob struct {
	Mailer  *mailer.Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSendEmailJob builds SendEmailJob instance.
func NewSendEmailJob(m *mailer.Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SendEmailJob {
	return &SendEmailJob{Mailer: m, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" || payload.Template == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeSendEmail)
	err := j.Mailer.Send(ctx, payload.To, payload.Template, payload.Vars)
	if err != nil {
		j.Logger.Error("send email failed",
			slog.String("to", payload.To),
			slog.String("template", payload.Template),
			slog.Any("error", err),
		)
	}
	return tracker.End(err)
}
