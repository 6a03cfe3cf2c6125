package worker

import (
	"context"
	"errors"
	"fmt"

	"clubdash/internal/amqp"
	"clubdash/internal/cache"
	"clubdash/internal/core"
	applog "clubdash/internal/log"
	"clubdash/internal/sheets"
	"clubdash/internal/storage"
)

// Store is the slice of the ledger repository the worker needs.
type Store interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListUnappliedTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	ApplyTransaction(ctx context.Context, txID, field string) (storage.Applied, error)
	MarkApplySkipped(ctx context.Context, txID, reason string) error
}

// Invalidator drops cached ledger responses.
type Invalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// Outcome reports what Apply did with a transaction.
type Outcome int

const (
	Applied Outcome = iota
	AlreadyApplied
	SkippedUnsettled
	SkippedUnmapped
	SkippedNoPeriod
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadyApplied:
		return "already_applied"
	case SkippedUnsettled:
		return "skipped_unsettled"
	case SkippedUnmapped:
		return "skipped_unmapped"
	case SkippedNoPeriod:
		return "skipped_no_period"
	default:
		return "unknown"
	}
}

// ApplyWorker adds settled transactions to the period containing their date
// and mirrors each newly applied transaction to a spreadsheet.
type ApplyWorker struct {
	store     Store
	mirror    sheets.TransactionWriter
	cache     Invalidator
	batchSize int
	logger    *applog.Logger
}

// NewApplyWorker creates a worker. mirror and cache may be nil.
func NewApplyWorker(store Store, mirror sheets.TransactionWriter, cache Invalidator, batchSize int) *ApplyWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ApplyWorker{
		store:     store,
		mirror:    mirror,
		cache:     cache,
		batchSize: batchSize,
		logger:    applog.Default(applog.ComponentWorker),
	}
}

// HandleTransactionCreated processes a single transaction-created message from AMQP.
// A message naming an unknown transaction is dropped.
func (w *ApplyWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction message",
		applog.FieldTxID, msg.TransactionID,
		applog.FieldUnitID, msg.UnitID)

	t, err := w.store.GetTransaction(ctx, msg.TransactionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return amqp.Permanent(err)
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	_, err = w.Apply(ctx, t)
	return err
}

// Apply adds t to its period when it is settled and its code feeds a period
// field. Transactions outside every period are skipped, not failed, and
// marked so sweeps stop returning them.
func (w *ApplyWorker) Apply(ctx context.Context, t core.Transaction) (Outcome, error) {
	logger := w.logger.With(applog.FieldTxID, t.ID, applog.FieldUnitID, t.UnitID)

	if !t.Status.Settled() {
		logger.DebugContext(ctx, "Transaction not settled, skipping", applog.FieldState, t.Status)
		return SkippedUnsettled, nil
	}
	field, ok := core.PeriodFieldForCode(t.Code)
	if !ok {
		logger.DebugContext(ctx, "Transaction code feeds no period field, skipping", "code", t.Code)
		w.markSkipped(ctx, t.ID, storage.SkipUnmapped)
		return SkippedUnmapped, nil
	}

	res, err := w.store.ApplyTransaction(ctx, t.ID, field)
	if errors.Is(err, core.ErrNotFound) {
		logger.WarnContext(ctx, "No period contains transaction date, skipping",
			"date", t.Date.String())
		w.markSkipped(ctx, t.ID, storage.SkipNoPeriod)
		return SkippedNoPeriod, nil
	}
	if err != nil {
		return 0, fmt.Errorf("apply transaction %s: %w", t.ID, err)
	}
	if res.Already {
		logger.InfoContext(ctx, "Transaction already applied",
			applog.FieldPeriodID, res.Period.ID)
		return AlreadyApplied, nil
	}

	w.invalidate(ctx, t.UnitID)

	if w.mirror != nil {
		if _, err := w.mirror.AppendTransaction(ctx, t); err != nil {
			// The period is already updated; a mirror failure must not re-apply.
			logger.ErrorContext(ctx, "Failed to mirror transaction to sheet", applog.FieldError, err)
		}
	}

	logger.InfoContext(ctx, "Transaction applied",
		applog.FieldPeriodID, res.Period.ID,
		"field", res.Field,
		applog.FieldAmountCents, t.Amount.Cents)
	return Applied, nil
}

// markSkipped failures only cost a retry on the next sweep.
func (w *ApplyWorker) markSkipped(ctx context.Context, txID, reason string) {
	if err := w.store.MarkApplySkipped(ctx, txID, reason); err != nil {
		w.logger.WarnContext(ctx, "Failed to mark transaction skipped",
			applog.FieldTxID, txID,
			applog.FieldError, err)
	}
}

func (w *ApplyWorker) invalidate(ctx context.Context, unitID int64) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Delete(ctx, cache.UnitKeys(unitID)...); err != nil {
		w.logger.WarnContext(ctx, "Failed to invalidate cache",
			applog.FieldUnitID, unitID,
			applog.FieldError, err)
	}
}

// StartupCheck applies settled transactions that were never applied, which
// recovers from lost AMQP messages or worker downtime.
func (w *ApplyWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.ListUnappliedTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unapplied transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "No unapplied transactions found on startup")
		return nil
	}

	w.logger.InfoContext(ctx, "Found unapplied transactions on startup, processing...",
		"count", len(pending))

	counts := make(map[Outcome]int)
	errorCount := 0
	for _, t := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := w.Apply(ctx, t)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to apply transaction during startup",
				applog.FieldTxID, t.ID,
				applog.FieldError, err)
			errorCount++
			continue
		}
		counts[outcome]++
	}

	w.logger.InfoContext(ctx, "Startup check completed",
		"total", len(pending),
		"applied", counts[Applied],
		"skipped", counts[SkippedNoPeriod]+counts[SkippedUnmapped]+counts[SkippedUnsettled],
		"errors", errorCount)

	return nil
}
