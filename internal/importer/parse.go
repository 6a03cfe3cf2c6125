package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"clubdash/internal/core"
)

// Required columns of an import file. code, vendor and receipt_url are optional.
var requiredColumns = []string{"club_id", "amount", "category", "description", "date", "status"}

// Row is one parsed transaction and the line it came from.
type Row struct {
	Line int
	Tx   core.NewTransaction
}

// RowError reports why a line was not imported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e RowError) Unwrap() error { return e.Err }

// ReadCSV reads an import file. Lines that fail to parse are returned as
// RowErrors; only an unreadable file or a bad header fails the whole read.
func ReadCSV(r io.Reader) ([]Row, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	return ParseRecords(records)
}

// ParseRecords parses string rows, header first. Rows read from a sheet use
// the same layout as CSV files.
func ParseRecords(records [][]string) ([]Row, []RowError, error) {
	if len(records) == 0 {
		return nil, nil, errors.New("missing header row")
	}
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []Row
	var rowErrs []RowError
	for i, rec := range records[1:] {
		line := i + 2
		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		tx, err := parseRow(get)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		rows = append(rows, Row{Line: line, Tx: tx})
	}
	return rows, rowErrs, nil
}

func parseRow(get func(string) string) (core.NewTransaction, error) {
	unitID, err := strconv.ParseInt(get("club_id"), 10, 64)
	if err != nil || unitID < 1 {
		return core.NewTransaction{}, &core.ValidationError{Field: "club_id", Reason: fmt.Sprintf("invalid %q", get("club_id"))}
	}
	amount, err := core.ParseAmount(get("amount"))
	if err != nil {
		return core.NewTransaction{}, &core.ValidationError{Field: "amount", Reason: fmt.Sprintf("invalid %q", get("amount"))}
	}
	date, err := ParseDate(get("date"))
	if err != nil {
		return core.NewTransaction{}, &core.ValidationError{Field: "date", Reason: err.Error()}
	}

	tx := core.NewTransaction{
		UnitID:      unitID,
		Amount:      amount,
		Description: get("description"),
		Date:        date,
		Status:      core.TransactionStatus(strings.ToLower(get("status"))),
		Vendor:      optional(get("vendor")),
		ReceiptURL:  optional(get("receipt_url")),
	}
	tx.SetCategory(get("category"))
	// An explicit code in the file wins over the derived one.
	if code := get("code"); code != "" {
		tx.Code = code
	}
	if err := tx.Validate(); err != nil {
		return core.NewTransaction{}, err
	}
	return tx, nil
}

// optional maps the "N/A" placeholder to empty.
func optional(s string) string {
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}

// ParseDate accepts MM/DD/YY (as exported by spreadsheets) or YYYY-MM-DD.
func ParseDate(s string) (core.Date, error) {
	if t, err := time.Parse("01/02/06", s); err == nil {
		return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	if t, err := time.Parse("1/2/06", s); err == nil {
		return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("unrecognised date %q", s)
	}
	return d, nil
}
