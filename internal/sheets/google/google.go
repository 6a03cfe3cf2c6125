package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"clubdash/internal/core"
	applog "clubdash/internal/log"
	ports "clubdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultRowCacheTTL = 30 * time.Second

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger

	// Next-row bookkeeping so consecutive appends skip the dimension read.
	mu                 sync.Mutex
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var (
	_ ports.TransactionWriter = (*Client)(nil)
	_ ports.RowReader         = (*Client)(nil)
)

// New creates a Sheets client for one sheet of a spreadsheet. Without opts it
// authenticates from the environment, see authenticatedClient.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	logger := applog.Default(applog.ComponentSheets)
	if len(opts) == 0 {
		httpClient, err := authenticatedClient(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("sheets service: %w", err)
		}
		opts = []goption.ClientOption{goption.WithHTTPClient(httpClient)}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created successfully", "sheet", sheetName)

	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		logger:             logger,
		cacheValidDuration: defaultRowCacheTTL,
	}, nil
}

// NewHTTPClientWithPooling creates an HTTP client tuned for the Sheets API,
// where a long-running worker appends often.
func NewHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// AppendTransaction writes t as the next row of the mirror sheet.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if t.Amount.IsZero() {
		return "", fmt.Errorf("validation failed: %w", core.ErrInvalidAmount)
	}
	if err := t.Date.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", core.ErrInvalidDate)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	nextRow, err := c.nextRow(ctx)
	if err != nil {
		return "", err
	}

	lastCol := string(rune('A' + len(ports.Columns) - 1))
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, nextRow, lastCol, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(t)}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.invalidateRowCache()
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	c.mu.Lock()
	c.cachedRowCount = nextRow
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Transaction mirrored to sheet",
		applog.FieldTxID, t.ID,
		"range", rng)
	return rng, nil
}

// nextRow returns the first empty row, reading the sheet only when the
// cached count has expired.
func (c *Client) nextRow(ctx context.Context) (int, error) {
	c.mu.Lock()
	if time.Now().Before(c.cacheExpiresAt) && c.cachedRowCount > 0 {
		n := c.cachedRowCount + 1
		c.mu.Unlock()
		return n, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}

	count := len(resp.Values)
	if count == 0 {
		if err := c.writeHeader(ctx); err != nil {
			return 0, err
		}
		count = 1
	}

	c.mu.Lock()
	c.cachedRowCount = count
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()
	return count + 1, nil
}

func (c *Client) writeHeader(ctx context.Context) error {
	header := make([]any, len(ports.Columns))
	for i, h := range ports.Columns {
		header[i] = h
	}
	rng := fmt.Sprintf("%s!A1", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", c.sheetName, err)
	}
	return nil
}

func (c *Client) invalidateRowCache() {
	c.mu.Lock()
	c.cacheExpiresAt = time.Time{}
	c.mu.Unlock()
}

// ReadRows returns every non-empty row of the sheet, header first.
func (c *Client) ReadRows(ctx context.Context) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	lastCol := string(rune('A' + len(ports.Columns) - 1))
	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastCol)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return normalizeRows(resp.Values), nil
}

func transactionRow(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		strconv.FormatInt(t.UnitID, 10),
		t.Category,
		t.Code,
		t.Description,
		t.Amount.String(),
		string(t.Status),
		t.Vendor,
		t.ReceiptURL,
		t.ID,
	}
}
