package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func insertTestRecord(t *testing.T, repo *Repository, kind core.RecordKind, ownerID int64, on time.Time, amount, category string) core.Record {
	t.Helper()

	primary, _ := decimal.NewFromString(amount)
	rec, err := repo.InsertRecord(context.Background(), kind, core.Record{
		OwnerID:    ownerID,
		OccurredOn: on,
		Primary:    primary,
		Secondary:  core.Round2(primary.Div(decimal.NewFromFloat(77.52))),
		Category:   category,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("InsertRecord() error: %v", err)
	}
	return rec
}

func TestRepository_InsertAndListRecords(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 20), "500", "🛒 Продукты")
	second := insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 22), "1250.50", "🚕 Такси")
	insertTestRecord(t, repo, core.KindExpense, 99, day(2026, 8, 22), "42", "🛒 Продукты")

	if first.ID == 0 || second.ID == 0 {
		t.Fatal("inserted records must carry generated ids")
	}

	records, err := repo.ListRecent(ctx, core.KindExpense, 7, 10)
	if err != nil {
		t.Fatalf("ListRecent() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListRecent() = %d records, want 2 (owner-scoped)", len(records))
	}
	if records[0].ID != second.ID {
		t.Errorf("ListRecent() first = #%d, want newest record #%d", records[0].ID, second.ID)
	}
	if !records[0].Primary.Equal(decimal.NewFromFloat(1250.50)) {
		t.Errorf("amount round-trip = %s, want 1250.5", records[0].Primary)
	}
	if records[0].Category != "🚕 Такси" {
		t.Errorf("category round-trip = %q", records[0].Category)
	}
	if !records[0].OccurredOn.Equal(day(2026, 8, 22)) {
		t.Errorf("occurred_on round-trip = %v", records[0].OccurredOn)
	}
}

func TestRepository_RecordsSince(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 10), "100", "🛒 Продукты")
	insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 18), "200", "🛒 Продукты")
	insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 24), "300", "🛒 Продукты")

	records, err := repo.RecordsSince(ctx, core.KindExpense, 7, day(2026, 8, 18))
	if err != nil {
		t.Fatalf("RecordsSince() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("RecordsSince() = %d records, want 2 (boundary day included)", len(records))
	}
}

func TestRepository_KindsAreSeparate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 20), "500", "🛒 Продукты")
	insertTestRecord(t, repo, core.KindIncome, 7, day(2026, 8, 20), "90000", "💼 Зарплата")

	expenses, err := repo.AllRecords(ctx, core.KindExpense, 7)
	if err != nil {
		t.Fatalf("AllRecords(expense) error: %v", err)
	}
	income, err := repo.AllRecords(ctx, core.KindIncome, 7)
	if err != nil {
		t.Fatalf("AllRecords(income) error: %v", err)
	}
	if len(expenses) != 1 || len(income) != 1 {
		t.Fatalf("records leaked across kinds: %d expenses, %d income", len(expenses), len(income))
	}
	if income[0].Category != "💼 Зарплата" {
		t.Errorf("income category = %q", income[0].Category)
	}
}

func TestRepository_UpdateRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 20), "500", "🛒 Продукты")

	ok, err := repo.UpdateRecord(ctx, core.KindExpense, rec.ID, 7,
		decimal.NewFromInt(750), decimal.NewFromFloat(9.67), "🚕 Такси")
	if err != nil {
		t.Fatalf("UpdateRecord() error: %v", err)
	}
	if !ok {
		t.Fatal("UpdateRecord() = false for an owned record")
	}

	records, _ := repo.ListRecent(ctx, core.KindExpense, 7, 1)
	if !records[0].Primary.Equal(decimal.NewFromInt(750)) || records[0].Category != "🚕 Такси" {
		t.Errorf("after update: %s %q", records[0].Primary, records[0].Category)
	}

	// Another owner must not be able to touch the record.
	ok, err = repo.UpdateRecord(ctx, core.KindExpense, rec.ID, 99,
		decimal.NewFromInt(1), decimal.NewFromFloat(0.01), "🛒 Продукты")
	if err != nil {
		t.Fatalf("UpdateRecord() cross-owner error: %v", err)
	}
	if ok {
		t.Error("UpdateRecord() = true for a foreign record")
	}
}

func TestRepository_DeleteRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 20), "500", "🛒 Продукты")

	if ok, err := repo.DeleteRecord(ctx, core.KindExpense, rec.ID, 99); err != nil || ok {
		t.Fatalf("cross-owner delete = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := repo.DeleteRecord(ctx, core.KindExpense, rec.ID, 7); err != nil || !ok {
		t.Fatalf("owned delete = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := repo.DeleteRecord(ctx, core.KindExpense, rec.ID, 7); err != nil || ok {
		t.Fatalf("repeated delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestRepository_Budgets(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	budget := core.Budget{
		OwnerID:  7,
		Category: "🛒 Продукты",
		Limit:    decimal.NewFromInt(10000),
		Month:    time.August,
		Year:     2026,
	}
	if err := repo.UpsertBudget(ctx, budget); err != nil {
		t.Fatalf("UpsertBudget() error: %v", err)
	}

	// Same key again replaces the limit.
	budget.Limit = decimal.NewFromInt(15000)
	if err := repo.UpsertBudget(ctx, budget); err != nil {
		t.Fatalf("UpsertBudget() replace error: %v", err)
	}

	got, err := repo.GetBudget(ctx, 7, "🛒 Продукты", time.August, 2026)
	if err != nil {
		t.Fatalf("GetBudget() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetBudget() = nil for a stored budget")
	}
	if !got.Limit.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("limit after upsert = %s, want 15000", got.Limit)
	}

	missing, err := repo.GetBudget(ctx, 7, "🚕 Такси", time.August, 2026)
	if err != nil {
		t.Fatalf("GetBudget() missing error: %v", err)
	}
	if missing != nil {
		t.Error("GetBudget() must return nil without error when no budget is set")
	}

	list, err := repo.ListBudgets(ctx, 7, time.August, 2026)
	if err != nil {
		t.Fatalf("ListBudgets() error: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListBudgets() = %d entries, want 1", len(list))
	}

	other, err := repo.ListBudgets(ctx, 7, time.September, 2026)
	if err != nil {
		t.Fatalf("ListBudgets() other month error: %v", err)
	}
	if len(other) != 0 {
		t.Error("budgets leaked into another month")
	}
}

func TestRepository_Goals(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	deadline := day(2027, 6, 1)
	goals := []core.Goal{
		{ID: "g-1", OwnerID: 7, Name: "Отпуск", Target: decimal.NewFromInt(150000), Deadline: &deadline, CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "g-2", OwnerID: 7, Name: "Ноутбук", Target: decimal.NewFromInt(90000), CreatedAt: time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC)},
		{ID: "g-3", OwnerID: 99, Name: "Чужая цель", Target: decimal.NewFromInt(1), CreatedAt: time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC)},
	}
	for _, g := range goals {
		if err := repo.InsertGoal(ctx, g); err != nil {
			t.Fatalf("InsertGoal(%s) error: %v", g.ID, err)
		}
	}

	got, err := repo.ListGoals(ctx, 7)
	if err != nil {
		t.Fatalf("ListGoals() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListGoals() = %d goals, want 2 (owner-scoped)", len(got))
	}
	if got[0].ID != "g-2" {
		t.Errorf("ListGoals() first = %s, want newest g-2", got[0].ID)
	}
	if got[0].Deadline != nil {
		t.Error("deadline-free goal came back with a deadline")
	}
	if got[1].Deadline == nil || !got[1].Deadline.Equal(deadline) {
		t.Errorf("deadline round-trip = %v, want %v", got[1].Deadline, deadline)
	}
}

func TestRepository_DistinctOwners(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 20), "500", "🛒 Продукты")
	insertTestRecord(t, repo, core.KindExpense, 7, day(2026, 8, 21), "100", "🛒 Продукты")
	insertTestRecord(t, repo, core.KindIncome, 42, day(2026, 8, 20), "90000", "💼 Зарплата")

	owners, err := repo.DistinctOwners(ctx)
	if err != nil {
		t.Fatalf("DistinctOwners() error: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("DistinctOwners() = %v, want two owners", owners)
	}
	seen := map[int64]bool{}
	for _, id := range owners {
		seen[id] = true
	}
	if !seen[7] || !seen[42] {
		t.Errorf("DistinctOwners() = %v, want both 7 and 42", owners)
	}
}
