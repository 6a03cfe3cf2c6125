// Package sheets defines the spreadsheet ports: a mirror the worker appends
// settled transactions to, and a row source the importer can read from.
package sheets

import (
	"context"

	"clubdash/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// RowReader returns a sheet as string rows, header first.
	RowReader interface {
		ReadRows(ctx context.Context) ([][]string, error)
	}
)

// Columns is the header row of the transaction mirror. It matches the CSV
// import format so a mirror sheet can be re-imported.
var Columns = []string{
	"date", "club_id", "category", "code", "description",
	"amount", "status", "vendor", "receipt_url", "id",
}
