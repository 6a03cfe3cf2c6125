package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubdash/internal/core"
	applog "clubdash/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Serialises ApplyTransaction's read-modify-write.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  applog.Default(applog.ComponentStorage),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// CreatePeriod stores p, assigning an ID when it has none.
func (r *SQLiteRepository) CreatePeriod(ctx context.Context, p core.FinancialPeriod) (core.FinancialPeriod, error) {
	if err := p.Validate(); err != nil {
		return core.FinancialPeriod{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row, err := r.queries.CreatePeriod(ctx, periodRow(p))
	if err != nil {
		return core.FinancialPeriod{}, fmt.Errorf("create period: %w", err)
	}

	r.logger.InfoContext(ctx, "Period saved",
		applog.FieldPeriodID, row.ID,
		applog.FieldUnitID, row.ClubID,
		"period_start", row.PeriodStart,
		"period_end", row.PeriodEnd)

	r.reopenSkipped(ctx, row)
	return row.toDomain()
}

func (r *SQLiteRepository) GetPeriod(ctx context.Context, id string) (core.FinancialPeriod, error) {
	row, err := r.queries.GetPeriod(ctx, id)
	if err != nil {
		return core.FinancialPeriod{}, notFound(err, "get period")
	}
	return row.toDomain()
}

// LatestPeriod returns the unit's period with the latest end date.
func (r *SQLiteRepository) LatestPeriod(ctx context.Context, unitID int64) (core.FinancialPeriod, error) {
	row, err := r.queries.LatestPeriod(ctx, unitID)
	if err != nil {
		return core.FinancialPeriod{}, notFound(err, "latest period")
	}
	return row.toDomain()
}

// ListPeriods returns the unit's periods, latest end date first.
func (r *SQLiteRepository) ListPeriods(ctx context.Context, unitID int64) ([]core.FinancialPeriod, error) {
	rows, err := r.queries.ListPeriods(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	periods := make([]core.FinancialPeriod, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// UpdatePeriod overwrites every column of the stored period.
func (r *SQLiteRepository) UpdatePeriod(ctx context.Context, p core.FinancialPeriod) (core.FinancialPeriod, error) {
	if err := p.Validate(); err != nil {
		return core.FinancialPeriod{}, err
	}
	row, err := r.queries.UpdatePeriod(ctx, periodRow(p))
	if err != nil {
		return core.FinancialPeriod{}, notFound(err, "update period")
	}
	r.reopenSkipped(ctx, row)
	return row.toDomain()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = core.StatusCompleted
	}
	row, err := r.queries.CreateTransaction(ctx, Transaction{
		ID:          t.ID,
		ClubID:      t.UnitID,
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
		Status:      string(t.Status),
		Vendor:      t.Vendor,
		ReceiptURL:  t.ReceiptURL,
		Code:        t.Code,
		CreatedAt:   now(),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved",
		applog.NewFields().WithTransaction(row.ClubID, row.AmountCents, row.Category, row.Code).ToSlice()...)

	return row.toDomain()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction")
	}
	return row.toDomain()
}

// ListTransactions returns the unit's transactions, newest date first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, unitID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// ListUnappliedTransactions returns up to limit settled transactions that
// have not been added to a period yet, oldest first.
func (r *SQLiteRepository) ListUnappliedTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListUnappliedTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list unapplied transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// Reasons recorded by MarkApplySkipped.
const (
	SkipNoPeriod = "no_period"
	SkipUnmapped = "unmapped"
)

// MarkApplySkipped takes a settled transaction out of the unapplied backlog.
// Already applied transactions are left alone.
func (r *SQLiteRepository) MarkApplySkipped(ctx context.Context, txID, reason string) error {
	if _, err := r.queries.MarkTransactionSkipped(ctx, txID, reason, now()); err != nil {
		return fmt.Errorf("mark transaction %s skipped: %w", txID, err)
	}
	return nil
}

// reopenSkipped returns no_period skips dated inside p to the backlog so the
// next sweep applies them.
func (r *SQLiteRepository) reopenSkipped(ctx context.Context, p Period) {
	n, err := r.queries.ClearSkipsInRange(ctx, p.ClubID, SkipNoPeriod, p.PeriodStart, p.PeriodEnd)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to reopen skipped transactions",
			applog.FieldPeriodID, p.ID, applog.FieldError, err)
		return
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "Skipped transactions reopened",
			applog.FieldPeriodID, p.ID, "count", n)
	}
}

// Applied describes the outcome of ApplyTransaction.
type Applied struct {
	Period  core.FinancialPeriod
	Field   string
	Already bool
}

// ApplyTransaction adds the transaction's amount to field of the unit's
// period containing its date, inside one database transaction. A transaction
// is applied at most once; a repeat call reports Already.
func (r *SQLiteRepository) ApplyTransaction(ctx context.Context, txID, field string) (Applied, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Applied{}, fmt.Errorf("begin apply: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	t, err := q.GetTransaction(ctx, txID)
	if err != nil {
		return Applied{}, notFound(err, "get transaction")
	}
	if t.AppliedAt.Valid {
		p, err := q.GetPeriod(ctx, t.AppliedPeriodID.String)
		if err != nil {
			return Applied{}, notFound(err, "get applied period")
		}
		period, err := p.toDomain()
		return Applied{Period: period, Field: field, Already: true}, err
	}

	p, err := q.PeriodForDate(ctx, t.ClubID, t.Date)
	if err != nil {
		return Applied{}, notFound(err, "period for "+t.Date)
	}

	stamp := now()
	updated, err := q.AddToPeriodField(ctx, p.ID, field, t.AmountCents, stamp)
	if err != nil {
		return Applied{}, fmt.Errorf("update period field: %w", err)
	}
	if _, err := q.MarkTransactionApplied(ctx, t.ID, p.ID, stamp); err != nil {
		return Applied{}, fmt.Errorf("mark transaction applied: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Applied{}, fmt.Errorf("commit apply: %w", err)
	}

	period, err := updated.toDomain()
	if err != nil {
		return Applied{}, err
	}
	r.logger.InfoContext(ctx, "Transaction applied to period",
		applog.FieldTxID, t.ID,
		applog.FieldPeriodID, p.ID,
		"field", field,
		applog.FieldAmountCents, t.AmountCents)
	return Applied{Period: period, Field: field}, nil
}

func periodRow(p core.FinancialPeriod) Period {
	return Period{
		ID:                 p.ID,
		ClubID:             p.UnitID,
		PeriodStart:        p.PeriodStart.String(),
		PeriodEnd:          p.PeriodEnd.String(),
		CurrentBalance:     p.CurrentBalance.Cents,
		RevenueDonations:   p.Donations.Cents,
		RevenueFundraising: p.Fundraising.Cents,
		RevenueSponsorship: p.Sponsorship.Cents,
		ExpenseFood:        p.Food.Cents,
		ExpenseGiveaway:    p.Giveaway.Cents,
		ExpenseUniforms:    p.Uniforms.Cents,
		UpdatedAt:          now(),
	}
}

func (p Period) toDomain() (core.FinancialPeriod, error) {
	start, err := core.ParseDate(p.PeriodStart)
	if err != nil {
		return core.FinancialPeriod{}, fmt.Errorf("period %s start: %w", p.ID, err)
	}
	end, err := core.ParseDate(p.PeriodEnd)
	if err != nil {
		return core.FinancialPeriod{}, fmt.Errorf("period %s end: %w", p.ID, err)
	}
	updated, _ := time.Parse(time.RFC3339Nano, p.UpdatedAt)
	return core.FinancialPeriod{
		ID:             p.ID,
		UnitID:         p.ClubID,
		PeriodStart:    start,
		PeriodEnd:      end,
		CurrentBalance: core.Cents(p.CurrentBalance),
		Donations:      core.Cents(p.RevenueDonations),
		Fundraising:    core.Cents(p.RevenueFundraising),
		Sponsorship:    core.Cents(p.RevenueSponsorship),
		Food:           core.Cents(p.ExpenseFood),
		Giveaway:       core.Cents(p.ExpenseGiveaway),
		Uniforms:       core.Cents(p.ExpenseUniforms),
		UpdatedAt:      updated,
	}, nil
}

func (t Transaction) toDomain() (core.Transaction, error) {
	date, err := core.ParseDate(t.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", t.ID, err)
	}
	created, _ := time.Parse(time.RFC3339Nano, t.CreatedAt)
	return core.Transaction{
		ID:          t.ID,
		UnitID:      t.ClubID,
		Amount:      core.Cents(t.AmountCents),
		Category:    t.Category,
		Description: t.Description,
		Date:        date,
		Status:      core.TransactionStatus(t.Status),
		Vendor:      t.Vendor,
		ReceiptURL:  t.ReceiptURL,
		Code:        t.Code,
		CreatedAt:   created,
	}, nil
}

func (r *SQLiteRepository) CreateClub(ctx context.Context, c core.Club) (core.Club, error) {
	if err := c.Validate(); err != nil {
		return core.Club{}, err
	}
	row, err := r.queries.CreateClub(ctx, Club{
		Name:        strings.TrimSpace(c.Name),
		Email:       strings.TrimSpace(c.Email),
		Description: c.Description,
		Status:      c.Status,
		ClubType:    strings.TrimSpace(c.ClubType),
		Link:        c.Link,
		CreatedAt:   now(),
	})
	if err != nil {
		return core.Club{}, fmt.Errorf("create club: %w", err)
	}
	r.logger.InfoContext(ctx, "Club saved", applog.FieldUnitID, row.ID, "name", row.Name)
	return row.toDomain(), nil
}

func (r *SQLiteRepository) GetClub(ctx context.Context, id int64) (core.Club, error) {
	row, err := r.queries.GetClub(ctx, id)
	if err != nil {
		return core.Club{}, notFound(err, "get club")
	}
	return row.toDomain(), nil
}

func (r *SQLiteRepository) ListClubs(ctx context.Context) ([]core.Club, error) {
	rows, err := r.queries.ListClubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	clubs := make([]core.Club, 0, len(rows))
	for _, row := range rows {
		clubs = append(clubs, row.toDomain())
	}
	return clubs, nil
}

func (c Club) toDomain() core.Club {
	return core.Club{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Description: c.Description,
		Status:      c.Status,
		ClubType:    c.ClubType,
		Link:        c.Link,
	}
}
