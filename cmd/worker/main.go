package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/NUbem000/NubemERP/internal/app"
	jobmetrics "github.com/NUbem000/NubemERP/internal/jobs"
	"github.com/NUbem000/NubemERP/internal/mailer"
	"github.com/NUbem000/NubemERP/internal/platform/db"
	"github.com/NUbem000/NubemERP/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	smtp := mailer.New(logger, mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})

	metrics := jobmetrics.NewMetrics(nil)
	sendEmailJob := jobs.NewSendEmailJob(smtp, logger, metrics)
	trialReminderJob := jobs.NewTrialReminderJob(pool, jobsClient, logger, metrics, cfg.AppBaseURL)

	trialReminderTask, err := jobs.NewTrialReminderTask(jobs.TrialReminderPayload{DaysAhead: 7})
	if err != nil {
		logger.Error("build trial reminder task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: sendEmailJob.Handle},
			{Type: jobs.TaskTypeTrialReminder, Handler: trialReminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 8 * * *", Task: trialReminderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
