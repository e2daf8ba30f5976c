package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/NUbem000/NubemERP/internal/jobs"
	"github.com/NUbem000/NubemERP/internal/mailer"
)

// TrialReminderPayload tunes the subscription expiry sweep.
type TrialReminderPayload struct {
	DaysAhead int `json:"days_ahead"`
}

// NewTrialReminderTask constructs an Asynq task for the expiry sweep.
func NewTrialReminderTask(payload TrialReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTrialReminder, data), nil
}

// TrialReminderJob finds paid subscriptions close to their end date and
// queues a reminder email for each account.
type TrialReminderJob struct {
	Pool    *pgxpool.Pool
	Client  *Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	BaseURL string
	clock   func() time.Time
}

// NewTrialReminderJob builds TrialReminderJob instance.
func NewTrialReminderJob(pool *pgxpool.Pool, client *Client, logger *slog.Logger, metrics *jobmetrics.Metrics, baseURL string) *TrialReminderJob {
	return &TrialReminderJob{
		Pool:    pool,
		Client:  client,
		Logger:  logger,
		Metrics: metrics,
		BaseURL: baseURL,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type expiringAccount struct {
	Email string
	Name  string
	Plan  string
	EndAt time.Time
}

// Handle executes the expiry sweep.
func (j *TrialReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("trial reminder: handler not configured")
	}
	var payload TrialReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.DaysAhead <= 0 {
		payload.DaysAhead = 7
	}

	tracker := j.Metrics.Track(TaskTypeTrialReminder)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.clock()
	logger := j.Logger.With(slog.Int("days_ahead", payload.DaysAhead))
	logger.Info("starting subscription expiry sweep")

	accounts, err := j.expiring(ctx, now, payload.DaysAhead)
	if err != nil {
		resultErr = err
		logger.Error("expiry sweep failed", slog.Any("error", err))
		return resultErr
	}

	queued := 0
	for _, acc := range accounts {
		daysLeft := int(acc.EndAt.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			continue
		}
		_, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:       acc.Email,
			Template: mailer.TemplateTrialEnding,
			Vars: map[string]string{
				"name":       acc.Name,
				"daysLeft":   strconv.Itoa(daysLeft),
				"upgradeUrl": j.BaseURL + "/settings/subscription",
			},
		})
		if err != nil {
			logger.Warn("reminder enqueue failed",
				slog.String("email", acc.Email),
				slog.Any("error", err),
			)
			continue
		}
		j.Metrics.AddReminders(acc.Plan, 1)
		queued++
	}

	logger.Info("completed subscription expiry sweep",
		slog.Int("candidates", len(accounts)),
		slog.Int("queued", queued),
	)
	return resultErr
}

func (j *TrialReminderJob) expiring(ctx context.Context, now time.Time, daysAhead int) ([]expiringAccount, error) {
	if j.Pool == nil {
		return nil, errors.New("trial reminder: pool not configured")
	}
	until := now.AddDate(0, 0, daysAhead)
	rows, err := j.Pool.Query(ctx, `
		SELECT email, name, plan, (subscription->>'end_date')::timestamptz
		FROM users
		WHERE is_active
		  AND plan <> 'free'
		  AND subscription->>'end_date' IS NOT NULL
		  AND (subscription->>'end_date')::timestamptz BETWEEN $1 AND $2
		ORDER BY (subscription->>'end_date')::timestamptz`, now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []expiringAccount
	for rows.Next() {
		var acc expiringAccount
		if err := rows.Scan(&acc.Email, &acc.Name, &acc.Plan, &acc.EndAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
