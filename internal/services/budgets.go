package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// alertRatio is the budget-consumption fraction at which a threshold
// warning fires. Whether the warning reads as 80% or 100% is decided where
// the message is composed, not here.
var alertRatio = decimal.NewFromFloat(0.80)

// Budgets tracks per-category monthly spending limits. Consumption is
// never stored; it is summed from the expense ledger on demand.
type Budgets struct {
	store   BudgetStore
	records RecordStore
	now     func() time.Time
}

func NewBudgets(store BudgetStore, records RecordStore) *Budgets {
	return &Budgets{
		store:   store,
		records: records,
		now:     time.Now,
	}
}

func (b *Budgets) currentPeriod() (time.Month, int) {
	t := b.now()
	return t.Month(), t.Year()
}

// Set upserts the limit for the expense category in the current month;
// setting an existing key replaces it.
func (b *Budgets) Set(ctx context.Context, ownerID int64, category string, limit decimal.Decimal) error {
	month, year := b.currentPeriod()
	budget := core.Budget{
		OwnerID:  ownerID,
		Category: category,
		Limit:    limit,
		Month:    month,
		Year:     year,
	}
	if err := budget.Validate(); err != nil {
		return err
	}
	if err := b.store.UpsertBudget(ctx, budget); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// ThresholdReport is the outcome of a budget check after an expense write.
type ThresholdReport struct {
	Alert bool
	Spent decimal.Decimal
	Limit decimal.Decimal
}

// Percent is the consumed share of the limit in whole percent, 0 when no
// budget is set.
func (r ThresholdReport) Percent() int {
	if !r.Limit.IsPositive() {
		return 0
	}
	return int(r.Spent.Mul(decimal.NewFromInt(100)).Div(r.Limit).IntPart())
}

// CheckThreshold reports whether the owner's current-month spending in the
// category reached the alert ratio. A missing budget is not an error: the
// report is simply all-zero.
func (b *Budgets) CheckThreshold(ctx context.Context, ownerID int64, category string) (ThresholdReport, error) {
	month, year := b.currentPeriod()

	budget, err := b.store.GetBudget(ctx, ownerID, category, month, year)
	if err != nil {
		return ThresholdReport{}, fmt.Errorf("check threshold: %w", err)
	}
	if budget == nil {
		return ThresholdReport{Spent: decimal.Zero, Limit: decimal.Zero}, nil
	}

	spent, err := b.monthSpend(ctx, ownerID, category)
	if err != nil {
		return ThresholdReport{}, fmt.Errorf("check threshold: %w", err)
	}

	return ThresholdReport{
		Alert: spent.GreaterThanOrEqual(budget.Limit.Mul(alertRatio)),
		Spent: spent,
		Limit: budget.Limit,
	}, nil
}

// BudgetStatus pairs a budget with its consumption, derived on read.
type BudgetStatus struct {
	Budget core.Budget
	Spent  decimal.Decimal
}

// List returns the owner's budgets for the current month and year only.
func (b *Budgets) List(ctx context.Context, ownerID int64) ([]BudgetStatus, error) {
	month, year := b.currentPeriod()

	budgets, err := b.store.ListBudgets(ctx, ownerID, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		spent, err := b.monthSpend(ctx, ownerID, budget.Category)
		if err != nil {
			return nil, fmt.Errorf("list budgets: %w", err)
		}
		statuses = append(statuses, BudgetStatus{Budget: budget, Spent: spent})
	}
	return statuses, nil
}

// monthSpend sums the owner's expense primary amounts for the category
// since the first day of the current month.
func (b *Budgets) monthSpend(ctx context.Context, ownerID int64, category string) (decimal.Decimal, error) {
	t := b.now()
	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)

	records, err := b.records.RecordsSince(ctx, core.KindExpense, ownerID, monthStart)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("month spend: %w", err)
	}

	spent := decimal.Zero
	for _, rec := range records {
		if rec.Category == category {
			spent = spent.Add(rec.Primary)
		}
	}
	return spent, nil
}
