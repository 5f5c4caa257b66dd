// Package services implements the ledger, budget, and goal operations the
// dialog flows commit to and the read-only queries report from.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// Ledger records money movements and serves aggregated views. Amounts are
// written in the base currency together with a quote-currency snapshot
// taken through the rate converter at write time.
type Ledger struct {
	store RecordStore
	rates Converter
	base  string
	quote string
	now   func() time.Time
}

func NewLedger(store RecordStore, rates Converter, base, quote string) *Ledger {
	return &Ledger{
		store: store,
		rates: rates,
		base:  base,
		quote: quote,
		now:   time.Now,
	}
}

func (l *Ledger) today() time.Time {
	y, m, d := l.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Record validates and stores a new movement dated today, returning the
// stored record with its id and the converted secondary amount.
func (l *Ledger) Record(ctx context.Context, kind core.RecordKind, ownerID int64, amount decimal.Decimal, category string) (core.Record, error) {
	if err := kind.Validate(); err != nil {
		return core.Record{}, err
	}
	if !amount.IsPositive() {
		return core.Record{}, core.ErrInvalidAmount
	}
	if !core.CategoriesFor(kind).Contains(category) {
		return core.Record{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	secondary, err := l.rates.Convert(amount, l.base, l.quote)
	if err != nil {
		return core.Record{}, fmt.Errorf("convert amount: %w", err)
	}

	rec, err := l.store.InsertRecord(ctx, kind, core.Record{
		OwnerID:    ownerID,
		OccurredOn: l.today(),
		Primary:    amount,
		Secondary:  secondary,
		Category:   category,
		CreatedAt:  l.now().UTC(),
	})
	if err != nil {
		return core.Record{}, fmt.Errorf("store record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved",
		"kind", string(kind),
		"owner_id", ownerID,
		"record_id", rec.ID,
		"category", category,
		"amount", amount.StringFixed(2))

	return rec, nil
}

// Edit fully replaces amount and category of an owned record. The
// secondary amount is recomputed with the rate at edit time. Returns false
// when no row matches (id, owner).
func (l *Ledger) Edit(ctx context.Context, kind core.RecordKind, id, ownerID int64, amount decimal.Decimal, category string) (bool, error) {
	if err := kind.Validate(); err != nil {
		return false, err
	}
	if !amount.IsPositive() {
		return false, core.ErrInvalidAmount
	}
	if !core.CategoriesFor(kind).Contains(category) {
		return false, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	secondary, err := l.rates.Convert(amount, l.base, l.quote)
	if err != nil {
		return false, fmt.Errorf("convert amount: %w", err)
	}

	ok, err := l.store.UpdateRecord(ctx, kind, id, ownerID, amount, secondary, category)
	if err != nil {
		return false, fmt.Errorf("update record: %w", err)
	}
	return ok, nil
}

// Delete removes an owned record; false when no row matches (id, owner).
func (l *Ledger) Delete(ctx context.Context, kind core.RecordKind, id, ownerID int64) (bool, error) {
	if err := kind.Validate(); err != nil {
		return false, err
	}
	ok, err := l.store.DeleteRecord(ctx, kind, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return ok, nil
}

func (l *Ledger) Recent(ctx context.Context, kind core.RecordKind, ownerID int64, limit int) ([]core.Record, error) {
	return l.store.ListRecent(ctx, kind, ownerID, limit)
}

// windowStart returns the first calendar day of an N-day window ending
// today; days=1 means today only.
func (l *Ledger) windowStart(days int) time.Time {
	if days < 1 {
		days = 1
	}
	return l.today().AddDate(0, 0, -(days - 1))
}

// SumRange totals the owner's records over the last N calendar days. An
// empty window sums to zero.
func (l *Ledger) SumRange(ctx context.Context, kind core.RecordKind, ownerID int64, days int) (core.AmountPair, error) {
	records, err := l.store.RecordsSince(ctx, kind, ownerID, l.windowStart(days))
	if err != nil {
		return core.AmountPair{}, fmt.Errorf("sum range: %w", err)
	}
	return sumRecords(records), nil
}

// Summary aggregates both kinds over the window, with per-category totals
// sorted by primary amount descending (ties keep first-encountered order).
func (l *Ledger) Summary(ctx context.Context, ownerID int64, days int) (core.PeriodSummary, error) {
	start := l.windowStart(days)

	expenses, err := l.store.RecordsSince(ctx, core.KindExpense, ownerID, start)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("summary expenses: %w", err)
	}
	income, err := l.store.RecordsSince(ctx, core.KindIncome, ownerID, start)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("summary income: %w", err)
	}

	return core.PeriodSummary{
		Days:              days,
		Income:            sumRecords(income),
		Expense:           sumRecords(expenses),
		IncomeByCategory:  groupByCategory(income),
		ExpenseByCategory: groupByCategory(expenses),
	}, nil
}

// Balance is computed over all time, not windowed.
func (l *Ledger) Balance(ctx context.Context, ownerID int64) (core.Balance, error) {
	expenses, err := l.store.AllRecords(ctx, core.KindExpense, ownerID)
	if err != nil {
		return core.Balance{}, fmt.Errorf("balance expenses: %w", err)
	}
	income, err := l.store.AllRecords(ctx, core.KindIncome, ownerID)
	if err != nil {
		return core.Balance{}, fmt.Errorf("balance income: %w", err)
	}

	return core.Balance{
		Income:  sumRecords(income),
		Expense: sumRecords(expenses),
	}, nil
}

func sumRecords(records []core.Record) core.AmountPair {
	total := core.ZeroPair()
	for _, rec := range records {
		total = total.Add(core.AmountPair{Primary: rec.Primary, Secondary: rec.Secondary})
	}
	return total
}

func groupByCategory(records []core.Record) []core.CategoryTotal {
	index := make(map[string]int)
	var totals []core.CategoryTotal
	for _, rec := range records {
		i, ok := index[rec.Category]
		if !ok {
			i = len(totals)
			index[rec.Category] = i
			totals = append(totals, core.CategoryTotal{Category: rec.Category, Total: core.ZeroPair()})
		}
		totals[i].Total = totals[i].Total.Add(core.AmountPair{Primary: rec.Primary, Secondary: rec.Secondary})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total.Primary.GreaterThan(totals[j].Total.Primary)
	})
	return totals
}
