// Package importer bulk-loads transactions into the ledger through the
// ledger client, a bounded number of rows at a time.
package importer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"clubdash/internal/ledger"
	applog "clubdash/internal/log"
)

// Result counts the outcome of an import.
type Result struct {
	Created int
	Failed  int
	Errors  []RowError
}

type Importer struct {
	ledger      ledger.Ledger
	concurrency int
	logger      *applog.Logger
}

func New(l ledger.Ledger, concurrency int) *Importer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Importer{
		ledger:      l,
		concurrency: concurrency,
		logger:      applog.Default(applog.ComponentImporter),
	}
}

// Import creates every row. A failing row is counted and does not stop the
// others; only cancellation of ctx aborts the run.
func (im *Importer) Import(ctx context.Context, rows []Row) (Result, error) {
	var (
		mu  sync.Mutex
		res Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)

	for _, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			created, err := im.ledger.CreateTransaction(gctx, row.Tx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res.Failed++
				res.Errors = append(res.Errors, RowError{Line: row.Line, Err: err})
				im.logger.WarnContext(ctx, "Failed to create transaction",
					"line", row.Line,
					applog.FieldError, err)
				return nil
			}
			res.Created++
			im.logger.DebugContext(ctx, "Transaction created",
				"line", row.Line,
				applog.FieldTxID, created.ID,
				applog.FieldAmountCents, created.Amount.Cents)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("import aborted: %w", err)
	}
	im.logger.InfoContext(ctx, "Import complete",
		"created", res.Created,
		"failed", res.Failed)
	return res, nil
}
