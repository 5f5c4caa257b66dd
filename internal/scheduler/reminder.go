// Package scheduler fires the daily "don't forget to log your spending"
// reminder to every known owner.
package scheduler

import (
	"context"
	"time"

	"kopilka/internal/gateway"
	"kopilka/internal/log"
)

// cooldown after a firing keeps the loop from hitting the same minute
// boundary twice.
const cooldown = time.Minute

const reminderText = "⏰ Напоминание!\n\n" +
	"Не забудьте внести расходы и доходы за сегодня 💰\n" +
	"Используйте кнопки ➕ Расход и 💵 Доход"

// OwnerSource enumerates owners who have ever written a record.
type OwnerSource interface {
	DistinctOwners(ctx context.Context) ([]int64, error)
}

// Notifier delivers one reminder; per-owner failure must not abort the
// batch.
type Notifier interface {
	Send(ctx context.Context, msg gateway.OutboundMessage) error
}

type Reminder struct {
	owners   OwnerSource
	notifier Notifier
	hour     int
	minute   int
	logger   *log.Logger
	now      func() time.Time
}

func New(owners OwnerSource, notifier Notifier, hour, minute int, logger *log.Logger) *Reminder {
	return &Reminder{
		owners:   owners,
		notifier: notifier,
		hour:     hour,
		minute:   minute,
		logger:   logger.WithComponent(log.ComponentScheduler),
		now:      time.Now,
	}
}

// NextDelay computes the wait until the next occurrence of the daily
// wall-clock time, rolling to tomorrow when that time has already passed.
func NextDelay(now time.Time, hour, minute int) time.Duration {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !now.Before(target) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now)
}

// Run alternates between waiting for the daily target and firing the
// reminder batch, until the context is cancelled.
func (r *Reminder) Run(ctx context.Context) error {
	for {
		delay := NextDelay(r.now(), r.hour, r.minute)
		r.logger.InfoContext(ctx, "Waiting for next reminder",
			"in", delay.Round(time.Second).String())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		r.fire(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cooldown):
		}
	}
}

// fire sends one reminder per known owner, tolerating and logging
// per-owner delivery failure.
func (r *Reminder) fire(ctx context.Context) {
	owners, err := r.owners.DistinctOwners(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to enumerate owners for reminders", log.FieldError, err)
		return
	}

	sent, failed := 0, 0
	for _, ownerID := range owners {
		err := r.notifier.Send(ctx, gateway.OutboundMessage{
			OwnerID: ownerID,
			Text:    reminderText,
		})
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to send reminder",
				log.FieldOwnerID, ownerID,
				log.FieldError, err)
			failed++
			continue
		}
		sent++
	}

	r.logger.InfoContext(ctx, "Reminder batch complete", "sent", sent, "failed", failed)
}
