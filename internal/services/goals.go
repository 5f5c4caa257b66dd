package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// BalanceReader supplies the net balance goals measure themselves against.
type BalanceReader interface {
	Balance(ctx context.Context, ownerID int64) (core.Balance, error)
}

// Goals manages named savings targets. All of an owner's goals draw on the
// same balance pool: progress is the current net balance over the target,
// not earmarked contributions.
type Goals struct {
	store   GoalStore
	balance BalanceReader
	now     func() time.Time
}

func NewGoals(store GoalStore, balance BalanceReader) *Goals {
	return &Goals{
		store:   store,
		balance: balance,
		now:     time.Now,
	}
}

func (g *Goals) Create(ctx context.Context, ownerID int64, name string, target decimal.Decimal, deadline *time.Time) (core.Goal, error) {
	goal := core.Goal{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		Target:    target,
		Deadline:  deadline,
		CreatedAt: g.now().UTC(),
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := g.store.InsertGoal(ctx, goal); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return goal, nil
}

// GoalProgress is a goal with its derived progress at read time. Ratio is
// unbounded and may exceed 1.
type GoalProgress struct {
	Goal  core.Goal
	Saved decimal.Decimal
	Ratio decimal.Decimal
}

// List returns the owner's goals newest first, each measured against the
// current net balance.
func (g *Goals) List(ctx context.Context, ownerID int64) ([]GoalProgress, error) {
	goals, err := g.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if len(goals) == 0 {
		return nil, nil
	}

	balance, err := g.balance.Balance(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("goal balance: %w", err)
	}
	saved := balance.Net().Primary

	progress := make([]GoalProgress, len(goals))
	for i, goal := range goals {
		progress[i] = GoalProgress{
			Goal:  goal,
			Saved: saved,
			Ratio: saved.Div(goal.Target),
		}
	}
	return progress, nil
}
