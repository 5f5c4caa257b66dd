package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// Ports for the persistence and rate adapters.
type (
	RecordStore interface {
		InsertRecord(ctx context.Context, kind core.RecordKind, rec core.Record) (core.Record, error)
		UpdateRecord(ctx context.Context, kind core.RecordKind, id, ownerID int64, primary, secondary decimal.Decimal, category string) (bool, error)
		DeleteRecord(ctx context.Context, kind core.RecordKind, id, ownerID int64) (bool, error)
		ListRecent(ctx context.Context, kind core.RecordKind, ownerID int64, limit int) ([]core.Record, error)
		RecordsSince(ctx context.Context, kind core.RecordKind, ownerID int64, since time.Time) ([]core.Record, error)
		AllRecords(ctx context.Context, kind core.RecordKind, ownerID int64) ([]core.Record, error)
	}

	BudgetStore interface {
		UpsertBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, ownerID int64, category string, month time.Month, year int) (*core.Budget, error)
		ListBudgets(ctx context.Context, ownerID int64, month time.Month, year int) ([]core.Budget, error)
	}

	GoalStore interface {
		InsertGoal(ctx context.Context, g core.Goal) error
		ListGoals(ctx context.Context, ownerID int64) ([]core.Goal, error)
	}

	// Converter projects an amount between currency codes using the
	// current rate snapshot.
	Converter interface {
		Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
	}
)
