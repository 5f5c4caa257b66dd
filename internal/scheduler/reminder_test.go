package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"kopilka/internal/gateway"
	"kopilka/internal/log"
)

func TestNextDelay(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		now  time.Time
		hour int
		min  int
		want time.Duration
	}{
		{
			name: "an hour before the target",
			now:  time.Date(2026, 8, 24, 22, 0, 0, 0, loc),
			hour: 23, min: 0,
			want: time.Hour,
		},
		{
			name: "already past rolls to tomorrow",
			now:  time.Date(2026, 8, 24, 23, 30, 0, 0, loc),
			hour: 23, min: 0,
			want: 23*time.Hour + 30*time.Minute,
		},
		{
			name: "exactly at the target rolls to tomorrow",
			now:  time.Date(2026, 8, 24, 23, 0, 0, 0, loc),
			hour: 23, min: 0,
			want: 24 * time.Hour,
		},
		{
			name: "midnight target from one minute before",
			now:  time.Date(2026, 8, 24, 23, 59, 0, 0, loc),
			hour: 0, min: 0,
			want: time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDelay(tt.now, tt.hour, tt.min); got != tt.want {
				t.Errorf("NextDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeOwners struct {
	owners []int64
	err    error
}

func (f fakeOwners) DistinctOwners(context.Context) ([]int64, error) {
	return f.owners, f.err
}

type fakeNotifier struct {
	sent    []gateway.OutboundMessage
	failFor map[int64]bool
}

func (f *fakeNotifier) Send(_ context.Context, msg gateway.OutboundMessage) error {
	if f.failFor[msg.OwnerID] {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testLogger() *log.Logger {
	return log.New(slog.LevelError)
}

func TestReminder_Fire(t *testing.T) {
	notifier := &fakeNotifier{}
	r := New(fakeOwners{owners: []int64{7, 42}}, notifier, 23, 0, testLogger())

	r.fire(context.Background())

	if len(notifier.sent) != 2 {
		t.Fatalf("sent %d reminders, want 2", len(notifier.sent))
	}
	if notifier.sent[0].OwnerID != 7 || notifier.sent[1].OwnerID != 42 {
		t.Errorf("reminder owners = %d, %d", notifier.sent[0].OwnerID, notifier.sent[1].OwnerID)
	}
	if notifier.sent[0].Text == "" {
		t.Error("reminder text is empty")
	}
}

func TestReminder_Fire_ToleratesPerOwnerFailure(t *testing.T) {
	notifier := &fakeNotifier{failFor: map[int64]bool{7: true}}
	r := New(fakeOwners{owners: []int64{7, 42}}, notifier, 23, 0, testLogger())

	r.fire(context.Background())

	if len(notifier.sent) != 1 || notifier.sent[0].OwnerID != 42 {
		t.Fatalf("one owner failing must not stop the batch, sent = %+v", notifier.sent)
	}
}

func TestReminder_Fire_OwnerLookupFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	r := New(fakeOwners{err: errors.New("db down")}, notifier, 23, 0, testLogger())

	r.fire(context.Background())

	if len(notifier.sent) != 0 {
		t.Errorf("sent %d reminders despite lookup failure", len(notifier.sent))
	}
}

func TestReminder_Run_StopsOnCancel(t *testing.T) {
	notifier := &fakeNotifier{}
	r := New(fakeOwners{owners: []int64{7}}, notifier, 23, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
