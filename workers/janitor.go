// Package workers runs the background maintenance jobs: stale-lobby expiry
// and the daily battle-token refresh.
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/nftbrawl/arena-bot/repositories"
	"github.com/nftbrawl/arena-bot/services"
)

const (
	lobbyTTL      = 30 * time.Minute
	sweepInterval = 1 * time.Minute
)

// Janitor wires the scheduled jobs.
type Janitor struct {
	sessions  *services.SessionStore
	users     repositories.UserRepository
	log       *slog.Logger
	scheduler gocron.Scheduler
}

func NewJanitor(sessions *services.SessionStore, users repositories.UserRepository, log *slog.Logger) (*Janitor, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Janitor{sessions: sessions, users: users, log: log, scheduler: scheduler}, nil
}

// Start schedules the jobs and runs them until Stop.
func (j *Janitor) Start() error {
	// Every minute: drop lobbies that never filled.
	if _, err := j.scheduler.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() {
			for _, channelID := range j.sessions.ExpireStale(lobbyTTL) {
				j.log.Info("expired stale lobby", slog.String("channel", channelID))
			}
		}),
	); err != nil {
		return err
	}

	// Daily: top battle-token balances back up.
	if _, err := j.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			refreshed, err := j.users.ResetDailyTokens(ctx, services.DailyTokens)
			if err != nil {
				j.log.Error("daily token refresh failed", slog.Any("error", err))
				return
			}
			j.log.Info("daily token refresh complete", slog.Int64("users", refreshed))
		}),
	); err != nil {
		return err
	}

	j.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down.
func (j *Janitor) Stop() error {
	return j.scheduler.Shutdown()
}
