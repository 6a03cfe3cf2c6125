// Package ledger is the typed client of the external financial-records
// service: financial periods, transactions and the assistant chat boundary.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"clubdash/internal/core"
	"clubdash/internal/fetch"
)

// Client implements Ledger over HTTP.
type Client struct {
	fetcher *fetch.Client
}

var _ Ledger = (*Client)(nil)

// NewClient builds a Client for the given base URL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	f := fetch.New(baseURL)
	if httpClient != nil {
		f.HTTPClient = httpClient
	}
	return &Client{fetcher: f}
}

// Details the ledger sends with a 404 when a unit simply has no rows yet.
const (
	DetailNoPeriods      = "No financial summaries found for this club"
	DetailNoTransactions = "No transactions found for this club"
)

// isEmptyListing reports whether err is the ledger's "nothing here" 404 for
// a listing, as opposed to a missing route or a wrong base URL.
func isEmptyListing(err error, detail string) bool {
	return fetch.IsNotFound(err) && fetch.Message(err) == detail
}

func unitPath(prefix string, unitID int64) string {
	return prefix + strconv.FormatInt(unitID, 10)
}

// LatestPeriod returns the single summary the ledger reports for a unit.
func (c *Client) LatestPeriod(ctx context.Context, unitID int64) (core.FinancialPeriod, error) {
	var p core.FinancialPeriod
	if err := c.fetcher.Do(ctx, http.MethodGet, unitPath("/financials/", unitID), nil, &p); err != nil {
		return core.FinancialPeriod{}, err
	}
	if err := checkPeriod(p); err != nil {
		return core.FinancialPeriod{}, err
	}
	return p, nil
}

// ListPeriods returns every period for a unit. Zero periods is a valid,
// non-error result; the ledger answers it with a 404 carrying DetailNoPeriods,
// which is normalised here. Any other 404 is a failure.
func (c *Client) ListPeriods(ctx context.Context, unitID int64) ([]core.FinancialPeriod, error) {
	var periods []core.FinancialPeriod
	err := c.fetcher.Do(ctx, http.MethodGet, unitPath("/financials/all/", unitID), nil, &periods)
	if isEmptyListing(err, DetailNoPeriods) {
		slog.DebugContext(ctx, "Ledger reports no periods", "unit_id", unitID)
		return []core.FinancialPeriod{}, nil
	}
	if err != nil {
		return nil, err
	}
	for _, p := range periods {
		if err := checkPeriod(p); err != nil {
			return nil, err
		}
	}
	if periods == nil {
		periods = []core.FinancialPeriod{}
	}
	return periods, nil
}

// CreatePeriod creates a new period summary.
func (c *Client) CreatePeriod(ctx context.Context, in PeriodCreate) (core.FinancialPeriod, error) {
	if err := in.Validate(); err != nil {
		return core.FinancialPeriod{}, err
	}
	var p core.FinancialPeriod
	if err := c.fetcher.Do(ctx, http.MethodPost, "/financials/", in, &p); err != nil {
		return core.FinancialPeriod{}, err
	}
	return p, checkPeriod(p)
}

// UpdatePeriod applies a partial update; only supplied fields change.
func (c *Client) UpdatePeriod(ctx context.Context, periodID string, patch PeriodPatch) (core.FinancialPeriod, error) {
	var p core.FinancialPeriod
	if err := c.fetcher.Do(ctx, http.MethodPatch, "/financials/"+url.PathEscape(periodID), patch, &p); err != nil {
		return core.FinancialPeriod{}, err
	}
	return p, checkPeriod(p)
}

// ListTransactions returns all transactions for a unit. A 404 carrying
// DetailNoTransactions means none.
func (c *Client) ListTransactions(ctx context.Context, unitID int64) ([]core.Transaction, error) {
	var txs []core.Transaction
	err := c.fetcher.Do(ctx, http.MethodGet, unitPath("/transactions/club/", unitID), nil, &txs)
	if isEmptyListing(err, DetailNoTransactions) {
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if err := checkTransaction(tx); err != nil {
			return nil, err
		}
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// CreateTransaction validates the payload locally and posts it. A recognised
// category always overrides the code; an explicit code is kept only for
// categories outside the lookup table (imported rows). Status defaults
// server-side to completed.
func (c *Client) CreateTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	if code := core.CodeForCategory(in.Category); code != "" {
		in.Code = code
	}
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var tx core.Transaction
	if err := c.fetcher.Do(ctx, http.MethodPost, "/transactions/", in, &tx); err != nil {
		return core.Transaction{}, err
	}
	return tx, checkTransaction(tx)
}

// GetTransaction fetches one transaction by ID.
func (c *Client) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var tx core.Transaction
	if err := c.fetcher.Do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(id), nil, &tx); err != nil {
		return core.Transaction{}, err
	}
	return tx, checkTransaction(tx)
}

// Chat forwards a message to the assistant and returns its reply.
func (c *Client) Chat(ctx context.Context, message, sessionID string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &core.ValidationError{Field: "message", Reason: "is required"}
	}
	var resp ChatResponse
	req := ChatRequest{UserMessage: message, SessionID: sessionID}
	if err := c.fetcher.Do(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// checkPeriod rejects shapes that decoded but violate the data model.
func checkPeriod(p core.FinancialPeriod) error {
	if err := p.Validate(); err != nil {
		return &fetch.Error{Kind: fetch.KindDecode, Message: fmt.Sprintf("Unexpected period from ledger: %v", err), Err: err}
	}
	return nil
}

func checkTransaction(tx core.Transaction) error {
	if tx.ID == "" || tx.Date.IsZero() {
		return &fetch.Error{Kind: fetch.KindDecode, Message: fmt.Sprintf("Unexpected transaction from ledger: missing id or date (id=%q)", tx.ID)}
	}
	if tx.Status != "" && !tx.Status.Valid() {
		return &fetch.Error{Kind: fetch.KindDecode, Message: fmt.Sprintf("Unexpected transaction status %q", tx.Status)}
	}
	return nil
}
