// Package janitor clears expired one-time values in the background. Expired
// codes and tokens never validate regardless; purging them keeps the table
// and its partial indexes small.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/lenlo121500/auth-system/internal/metrics"
	"github.com/lenlo121500/auth-system/internal/repository"
	"github.com/robfig/cron/v3"
)

const defaultSchedule = "@hourly"

type Janitor struct {
	users    repository.UserRepository
	logger   *slog.Logger
	schedule string
	cron     *cron.Cron
}

func New(users repository.UserRepository, logger *slog.Logger) *Janitor {
	return &Janitor{
		users:    users,
		logger:   logger.With("component", "janitor"),
		schedule: defaultSchedule,
		cron:     cron.New(),
	}
}

// Start registers the purge job and runs it on the schedule until ctx is
// cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.purge(ctx) }); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("janitor started", "schedule", j.schedule)

	go func() {
		<-ctx.Done()
		<-j.cron.Stop().Done()
		j.logger.Info("janitor stopped")
	}()
	return nil
}

func (j *Janitor) purge(ctx context.Context) {
	start := time.Now()
	now := time.Now()

	codes, err := j.users.PurgeExpiredVerificationCodes(ctx, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "purge verification codes", "error", err)
	} else if codes > 0 {
		j.logger.InfoContext(ctx, "purged expired verification codes", "count", codes)
		metrics.JanitorPurgedTotal.WithLabelValues("verification_code").Add(float64(codes))
	}

	tokens, err := j.users.PurgeExpiredResetTokens(ctx, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "purge reset tokens", "error", err)
	} else if tokens > 0 {
		j.logger.InfoContext(ctx, "purged expired reset tokens", "count", tokens)
		metrics.JanitorPurgedTotal.WithLabelValues("reset_token").Add(float64(tokens))
	}

	metrics.JanitorCycleDuration.Observe(time.Since(start).Seconds())
}
