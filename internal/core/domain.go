package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind selects one of the two structurally identical ledger
// collections.
type RecordKind string

const (
	KindExpense RecordKind = "expense"
	KindIncome  RecordKind = "income"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidDeadline = errors.New("invalid deadline")
	ErrUnknownKind     = errors.New("unknown record kind")
)

func (k RecordKind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	}
	return ErrUnknownKind
}

// Record is a single money movement. Secondary is the primary amount
// converted through the rate snapshot at write (or edit) time; it is never
// recomputed afterwards.
type Record struct {
	ID         int64
	OwnerID    int64
	OccurredOn time.Time
	Primary    decimal.Decimal
	Secondary  decimal.Decimal
	Category   string
	CreatedAt  time.Time
}

// AmountPair carries an amount in both tracked currency projections.
type AmountPair struct {
	Primary   decimal.Decimal
	Secondary decimal.Decimal
}

func (p AmountPair) Add(q AmountPair) AmountPair {
	return AmountPair{
		Primary:   p.Primary.Add(q.Primary),
		Secondary: p.Secondary.Add(q.Secondary),
	}
}

func (p AmountPair) Sub(q AmountPair) AmountPair {
	return AmountPair{
		Primary:   p.Primary.Sub(q.Primary),
		Secondary: p.Secondary.Sub(q.Secondary),
	}
}

// ZeroPair returns an explicit zero in both projections. Empty ranges sum
// to this, never to an absent value.
func ZeroPair() AmountPair {
	return AmountPair{Primary: decimal.Zero, Secondary: decimal.Zero}
}

type CategoryTotal struct {
	Category string
	Total    AmountPair
}

// PeriodSummary is the aggregated view over a calendar-day window.
type PeriodSummary struct {
	Days              int
	Income            AmountPair
	Expense           AmountPair
	IncomeByCategory  []CategoryTotal
	ExpenseByCategory []CategoryTotal
}

func (s PeriodSummary) Net() AmountPair {
	return s.Income.Sub(s.Expense)
}

// Balance is the all-time net position of one owner.
type Balance struct {
	Income  AmountPair
	Expense AmountPair
}

func (b Balance) Net() AmountPair {
	return b.Income.Sub(b.Expense)
}

// Budget is a monthly spending limit for one expense category, unique per
// (owner, category, month, year).
type Budget struct {
	OwnerID  int64
	Category string
	Limit    decimal.Decimal
	Month    time.Month
	Year     int
}

func (b Budget) Validate() error {
	if !ExpenseCategories.Contains(b.Category) {
		return ErrUnknownCategory
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	if b.Month < time.January || b.Month > time.December {
		return errors.New("invalid month")
	}
	return nil
}

// Goal is a named savings target. Progress is not stored; it is derived
// from the owner's current net balance at read time.
type Goal struct {
	ID        string
	OwnerID   int64
	Name      string
	Target    decimal.Decimal
	Deadline  *time.Time
	CreatedAt time.Time
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Target.IsPositive() {
		return ErrInvalidAmount
	}
	if g.Deadline != nil && g.Deadline.Before(g.CreatedAt) {
		return ErrInvalidDeadline
	}
	return nil
}
