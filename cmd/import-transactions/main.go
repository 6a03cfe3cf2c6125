// Command import-transactions bulk-creates ledger transactions from a CSV
// file or from the configured Google Sheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubdash/internal/cli"
	"clubdash/internal/importer"
	"clubdash/internal/ledger"
	applog "clubdash/internal/log"
	gsheet "clubdash/internal/sheets/google"
)

func main() {
	file := flag.String("file", "", "CSV file to import (header: club_id,amount,code,category,description,date,status,vendor,receipt_url)")
	fromSheet := flag.Bool("sheet", false, "read rows from GOOGLE_SPREADSHEET_ID / GOOGLE_SHEET_NAME instead of a file")
	concurrency := flag.Int("concurrency", 0, "parallel requests (default IMPORT_CONCURRENCY)")
	dryRun := flag.Bool("dry-run", false, "parse and validate only")
	flag.Parse()

	cfg, logger := cli.Bootstrap()

	if (*file == "") == !*fromSheet {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -sheet is required")
		flag.Usage()
		os.Exit(2)
	}
	if *concurrency <= 0 {
		*concurrency = cfg.ImportConcurrency
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, rowErrs, err := readRows(ctx, *file, *fromSheet, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to read import rows", applog.FieldError, err)
		os.Exit(1)
	}
	for _, re := range rowErrs {
		fmt.Fprintf(os.Stderr, "skipped %v\n", re)
	}

	if *dryRun {
		fmt.Printf("parsed %d rows, %d invalid\n", len(rows), len(rowErrs))
		return
	}

	client := ledger.NewClient(cfg.LedgerBaseURL, &http.Client{Timeout: 30 * time.Second})
	res, err := importer.New(client, *concurrency).Import(ctx, rows)
	for _, re := range res.Errors {
		fmt.Fprintf(os.Stderr, "failed %v\n", re)
	}
	fmt.Printf("created %d, failed %d, invalid %d\n", res.Created, res.Failed, len(rowErrs))
	if err != nil {
		logger.Error("Import aborted", applog.FieldError, err)
		os.Exit(1)
	}
	if res.Failed > 0 || len(rowErrs) > 0 {
		os.Exit(1)
	}
}

func readRows(ctx context.Context, path string, fromSheet bool, spreadsheetID, sheetName string) ([]importer.Row, []importer.RowError, error) {
	if fromSheet {
		client, err := gsheet.New(ctx, spreadsheetID, sheetName)
		if err != nil {
			return nil, nil, err
		}
		records, err := client.ReadRows(ctx)
		if err != nil {
			return nil, nil, err
		}
		return importer.ParseRecords(records)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return importer.ReadCSV(f)
}
