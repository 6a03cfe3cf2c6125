package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Period struct {
	ID                 string
	ClubID             int64
	PeriodStart        string
	PeriodEnd          string
	CurrentBalance     int64
	RevenueDonations   int64
	RevenueFundraising int64
	RevenueSponsorship int64
	ExpenseFood        int64
	ExpenseGiveaway    int64
	ExpenseUniforms    int64
	UpdatedAt          string
}

type Transaction struct {
	ID              string
	ClubID          int64
	AmountCents     int64
	Category        string
	Description     string
	Date            string
	Status          string
	Vendor          string
	ReceiptURL      string
	Code            string
	CreatedAt       string
	AppliedPeriodID sql.NullString
	AppliedAt       sql.NullString
}

const periodColumns = `id, club_id, period_start, period_end, current_balance,
    revenue_donations, revenue_fundraising, revenue_sponsorship,
    expense_food, expense_giveaway, expense_uniforms, updated_at`

const transactionColumns = `id, club_id, amount_cents, category, description, date, status,
    vendor, receipt_url, code, created_at, applied_period_id, applied_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPeriod(row rowScanner) (Period, error) {
	var p Period
	err := row.Scan(
		&p.ID,
		&p.ClubID,
		&p.PeriodStart,
		&p.PeriodEnd,
		&p.CurrentBalance,
		&p.RevenueDonations,
		&p.RevenueFundraising,
		&p.RevenueSponsorship,
		&p.ExpenseFood,
		&p.ExpenseGiveaway,
		&p.ExpenseUniforms,
		&p.UpdatedAt,
	)
	return p, err
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.ClubID,
		&t.AmountCents,
		&t.Category,
		&t.Description,
		&t.Date,
		&t.Status,
		&t.Vendor,
		&t.ReceiptURL,
		&t.Code,
		&t.CreatedAt,
		&t.AppliedPeriodID,
		&t.AppliedAt,
	)
	return t, err
}

const createPeriod = `INSERT INTO financial_periods (` + periodColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + periodColumns

func (q *Queries) CreatePeriod(ctx context.Context, arg Period) (Period, error) {
	row := q.db.QueryRowContext(ctx, createPeriod,
		arg.ID,
		arg.ClubID,
		arg.PeriodStart,
		arg.PeriodEnd,
		arg.CurrentBalance,
		arg.RevenueDonations,
		arg.RevenueFundraising,
		arg.RevenueSponsorship,
		arg.ExpenseFood,
		arg.ExpenseGiveaway,
		arg.ExpenseUniforms,
		arg.UpdatedAt,
	)
	return scanPeriod(row)
}

const getPeriod = `SELECT ` + periodColumns + ` FROM financial_periods WHERE id = ?`

func (q *Queries) GetPeriod(ctx context.Context, id string) (Period, error) {
	return scanPeriod(q.db.QueryRowContext(ctx, getPeriod, id))
}

const latestPeriod = `SELECT ` + periodColumns + ` FROM financial_periods
WHERE club_id = ?
ORDER BY period_end DESC, period_start DESC
LIMIT 1`

func (q *Queries) LatestPeriod(ctx context.Context, clubID int64) (Period, error) {
	return scanPeriod(q.db.QueryRowContext(ctx, latestPeriod, clubID))
}

const listPeriods = `SELECT ` + periodColumns + ` FROM financial_periods
WHERE club_id = ?
ORDER BY period_end DESC`

func (q *Queries) ListPeriods(ctx context.Context, clubID int64) ([]Period, error) {
	rows, err := q.db.QueryContext(ctx, listPeriods, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const periodForDate = `SELECT ` + periodColumns + ` FROM financial_periods
WHERE club_id = ? AND period_start <= ? AND period_end >= ?
ORDER BY period_end DESC
LIMIT 1`

func (q *Queries) PeriodForDate(ctx context.Context, clubID int64, date string) (Period, error) {
	return scanPeriod(q.db.QueryRowContext(ctx, periodForDate, clubID, date, date))
}

const updatePeriod = `UPDATE financial_periods SET
    club_id = ?, period_start = ?, period_end = ?, current_balance = ?,
    revenue_donations = ?, revenue_fundraising = ?, revenue_sponsorship = ?,
    expense_food = ?, expense_giveaway = ?, expense_uniforms = ?, updated_at = ?
WHERE id = ?
RETURNING ` + periodColumns

func (q *Queries) UpdatePeriod(ctx context.Context, arg Period) (Period, error) {
	row := q.db.QueryRowContext(ctx, updatePeriod,
		arg.ClubID,
		arg.PeriodStart,
		arg.PeriodEnd,
		arg.CurrentBalance,
		arg.RevenueDonations,
		arg.RevenueFundraising,
		arg.RevenueSponsorship,
		arg.ExpenseFood,
		arg.ExpenseGiveaway,
		arg.ExpenseUniforms,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPeriod(row)
}

// periodFieldColumns whitelists the columns AddToPeriodField may touch.
var periodFieldColumns = map[string]string{
	"revenue_donations":   "revenue_donations",
	"revenue_fundraising": "revenue_fundraising",
	"revenue_sponsorship": "revenue_sponsorship",
	"expense_food":        "expense_food",
	"expense_giveaway":    "expense_giveaway",
	"expense_uniforms":    "expense_uniforms",
}

func (q *Queries) AddToPeriodField(ctx context.Context, id, field string, cents int64, updatedAt string) (Period, error) {
	col, ok := periodFieldColumns[field]
	if !ok {
		return Period{}, fmt.Errorf("unknown period field %q", field)
	}
	query := `UPDATE financial_periods SET ` + col + ` = ` + col + ` + ?, updated_at = ?
WHERE id = ?
RETURNING ` + periodColumns
	return scanPeriod(q.db.QueryRowContext(ctx, query, cents, updatedAt, id))
}

const createTransaction = `INSERT INTO transactions (
    id, club_id, amount_cents, category, description, date, status, vendor, receipt_url, code, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.ID,
		arg.ClubID,
		arg.AmountCents,
		arg.Category,
		arg.Description,
		arg.Date,
		arg.Status,
		arg.Vendor,
		arg.ReceiptURL,
		arg.Code,
		arg.CreatedAt,
	)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions
WHERE club_id = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListTransactions(ctx context.Context, clubID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUnappliedTransactions = `SELECT ` + transactionColumns + ` FROM transactions
WHERE applied_at IS NULL AND apply_skipped_at IS NULL
    AND status IN ('completed', 'approved')
ORDER BY created_at
LIMIT ?`

func (q *Queries) ListUnappliedTransactions(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listUnappliedTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markTransactionApplied = `UPDATE transactions
SET applied_period_id = ?, applied_at = ?
WHERE id = ? AND applied_at IS NULL`

func (q *Queries) MarkTransactionApplied(ctx context.Context, id, periodID, appliedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markTransactionApplied, periodID, appliedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markTransactionSkipped = `UPDATE transactions
SET apply_skipped_at = ?, apply_skip_reason = ?
WHERE id = ? AND applied_at IS NULL`

func (q *Queries) MarkTransactionSkipped(ctx context.Context, id, reason, skippedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markTransactionSkipped, skippedAt, reason, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const clearSkipsInRange = `UPDATE transactions
SET apply_skipped_at = NULL, apply_skip_reason = NULL
WHERE club_id = ? AND apply_skip_reason = ? AND date >= ? AND date <= ?`

func (q *Queries) ClearSkipsInRange(ctx context.Context, clubID int64, reason, start, end string) (int64, error) {
	res, err := q.db.ExecContext(ctx, clearSkipsInRange, clubID, reason, start, end)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type Club struct {
	ID          int64
	Name        string
	Email       string
	Description string
	Status      string
	ClubType    string
	Link        string
	CreatedAt   string
}

const clubColumns = `id, name, email, description, status, club_type, link, created_at`

func scanClub(row rowScanner) (Club, error) {
	var c Club
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Description,
		&c.Status,
		&c.ClubType,
		&c.Link,
		&c.CreatedAt,
	)
	return c, err
}

const createClub = `INSERT INTO clubs (name, email, description, status, club_type, link, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + clubColumns

func (q *Queries) CreateClub(ctx context.Context, arg Club) (Club, error) {
	return scanClub(q.db.QueryRowContext(ctx, createClub,
		arg.Name,
		arg.Email,
		arg.Description,
		arg.Status,
		arg.ClubType,
		arg.Link,
		arg.CreatedAt,
	))
}

const getClub = `SELECT ` + clubColumns + ` FROM clubs WHERE id = ?`

func (q *Queries) GetClub(ctx context.Context, id int64) (Club, error) {
	return scanClub(q.db.QueryRowContext(ctx, getClub, id))
}

const listClubs = `SELECT ` + clubColumns + ` FROM clubs ORDER BY id`

func (q *Queries) ListClubs(ctx context.Context) ([]Club, error) {
	rows, err := q.db.QueryContext(ctx, listClubs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
