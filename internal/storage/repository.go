// Package storage persists ledger records, budgets, and goals in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kopilka/internal/core"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// tableFor maps a record kind to its table. The two tables are
// structurally identical; the kind only selects which one a statement
// targets.
func tableFor(kind core.RecordKind) (string, error) {
	switch kind {
	case core.KindExpense:
		return "expenses", nil
	case core.KindIncome:
		return "income", nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
}

func (r *Repository) InsertRecord(ctx context.Context, kind core.RecordKind, rec core.Record) (core.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return core.Record{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (owner_id, occurred_on, amount_primary, amount_secondary, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.OwnerID,
		rec.OccurredOn.Format(dateLayout),
		rec.Primary.String(),
		rec.Secondary.String(),
		rec.Category,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert %s record: %w", kind, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("read inserted id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// UpdateRecord replaces amount and category of the row matching (id,
// owner). The owner filter is the sole access control: a mismatch simply
// reports false.
func (r *Repository) UpdateRecord(ctx context.Context, kind core.RecordKind, id, ownerID int64, primary, secondary decimal.Decimal, category string) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET amount_primary = ?, amount_secondary = ?, category = ? WHERE id = ? AND owner_id = ?`,
		primary.String(), secondary.String(), category, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("update %s record: %w", kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) DeleteRecord(ctx context.Context, kind core.RecordKind, id, ownerID int64) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete %s record: %w", kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) ListRecent(ctx context.Context, kind core.RecordKind, ownerID int64, limit int) ([]core.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, occurred_on, amount_primary, amount_secondary, category, created_at
		 FROM `+table+` WHERE owner_id = ?
		 ORDER BY occurred_on DESC, created_at DESC LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent %s records: %w", kind, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// RecordsSince returns the owner's records with occurred_on on or after the
// given calendar date, newest first.
func (r *Repository) RecordsSince(ctx context.Context, kind core.RecordKind, ownerID int64, since time.Time) ([]core.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, occurred_on, amount_primary, amount_secondary, category, created_at
		 FROM `+table+` WHERE owner_id = ? AND occurred_on >= ?
		 ORDER BY occurred_on DESC, created_at DESC`,
		ownerID, since.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query %s records since %s: %w", kind, since.Format(dateLayout), err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// AllRecords returns every record of the owner, used for all-time balance.
func (r *Repository) AllRecords(ctx context.Context, kind core.RecordKind, ownerID int64) ([]core.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, occurred_on, amount_primary, amount_secondary, category, created_at
		 FROM `+table+` WHERE owner_id = ?`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query all %s records: %w", kind, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]core.Record, error) {
	var records []core.Record
	for rows.Next() {
		var (
			rec                            core.Record
			occurredOn, prim, sec, created string
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &occurredOn, &prim, &sec, &rec.Category, &created); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		var err error
		if rec.OccurredOn, err = time.Parse(dateLayout, occurredOn); err != nil {
			return nil, fmt.Errorf("parse occurred_on: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if rec.Primary, err = decimal.NewFromString(prim); err != nil {
			return nil, fmt.Errorf("parse amount_primary: %w", err)
		}
		if rec.Secondary, err = decimal.NewFromString(sec); err != nil {
			return nil, fmt.Errorf("parse amount_secondary: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// UpsertBudget creates or replaces the limit for (owner, category, month,
// year).
func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner_id, category, limit_amount, month, year)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, category, month, year)
		 DO UPDATE SET limit_amount = excluded.limit_amount`,
		b.OwnerID, b.Category, b.Limit.String(), int(b.Month), b.Year,
	)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// GetBudget returns nil when no budget exists for the key; absence is not
// an error.
func (r *Repository) GetBudget(ctx context.Context, ownerID int64, category string, month time.Month, year int) (*core.Budget, error) {
	var limit string
	err := r.db.QueryRowContext(ctx,
		`SELECT limit_amount FROM budgets WHERE owner_id = ? AND category = ? AND month = ? AND year = ?`,
		ownerID, category, int(month), year,
	).Scan(&limit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	amount, err := decimal.NewFromString(limit)
	if err != nil {
		return nil, fmt.Errorf("parse budget limit: %w", err)
	}
	return &core.Budget{OwnerID: ownerID, Category: category, Limit: amount, Month: month, Year: year}, nil
}

func (r *Repository) ListBudgets(ctx context.Context, ownerID int64, month time.Month, year int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, limit_amount FROM budgets WHERE owner_id = ? AND month = ? AND year = ? ORDER BY category`,
		ownerID, int(month), year,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			category, limit string
		)
		if err := rows.Scan(&category, &limit); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		amount, err := decimal.NewFromString(limit)
		if err != nil {
			return nil, fmt.Errorf("parse budget limit: %w", err)
		}
		budgets = append(budgets, core.Budget{
			OwnerID:  ownerID,
			Category: category,
			Limit:    amount,
			Month:    month,
			Year:     year,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func (r *Repository) InsertGoal(ctx context.Context, g core.Goal) error {
	var deadline sql.NullString
	if g.Deadline != nil {
		deadline = sql.NullString{String: g.Deadline.Format(dateLayout), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, owner_id, name, target_amount, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.Target.String(), deadline,
		g.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *Repository) ListGoals(ctx context.Context, ownerID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, target_amount, deadline, created_at
		 FROM goals WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		var (
			g               core.Goal
			target, created string
			deadline        sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &target, &deadline, &created); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.Target, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("parse goal target: %w", err)
		}
		if g.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse goal created_at: %w", err)
		}
		if deadline.Valid {
			d, err := time.Parse(dateLayout, deadline.String)
			if err != nil {
				return nil, fmt.Errorf("parse goal deadline: %w", err)
			}
			g.Deadline = &d
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// DistinctOwners enumerates every owner that has ever written a record, for
// the daily reminder batch.
func (r *Repository) DistinctOwners(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner_id FROM expenses UNION SELECT DISTINCT owner_id FROM income`)
	if err != nil {
		return nil, fmt.Errorf("query distinct owners: %w", err)
	}
	defer rows.Close()

	var owners []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		owners = append(owners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return owners, nil
}
