package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"clubdash/internal/core"
)

// fakeSheets serves the two Values endpoints the client uses.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]any
	gets    int
	updates []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		f.gets++
		json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
	case http.MethodPut:
		var body struct {
			Values [][]any `json:"values"`
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		f.rows = append(f.rows, body.Values...)
		f.updates = append(f.updates, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"updatedRows": len(body.Values)})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), "sheet-id", "Mirror",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), " ", "Mirror", goption.WithoutAuthentication())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	clearAuthEnv(t)
	_, err := New(context.Background(), "id", "Mirror")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendTransaction(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)
	ctx := context.Background()

	tx := core.Transaction{
		ID: "t-1", UnitID: 3, Amount: core.MustAmount("-12.50"), Category: "food", Code: "5520",
		Description: "pizza", Date: core.NewDate(2024, 8, 1), Status: core.StatusCompleted,
	}
	ref, err := c.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if ref != "Mirror!A2:J2" {
		t.Errorf("ref = %q, want Mirror!A2:J2", ref)
	}

	tx.ID = "t-2"
	ref, err = c.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if ref != "Mirror!A3:J3" {
		t.Errorf("ref = %q, want Mirror!A3:J3", ref)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gets != 1 {
		t.Errorf("expected cached row count to avoid a second read, got %d reads", f.gets)
	}
	if len(f.rows) != 3 || f.rows[0][0] != "date" || f.rows[1][5] != "-12.50" {
		t.Errorf("unexpected rows: %v", f.rows)
	}
}

func TestAppendTransaction_Validation(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	_, err := c.AppendTransaction(context.Background(), core.Transaction{Date: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got: %v", err)
	}
	_, err = c.AppendTransaction(context.Background(), core.Transaction{Amount: core.Cents(100)})
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got: %v", err)
	}
}

func TestRowCacheExpiration(t *testing.T) {
	f := &fakeSheets{rows: [][]any{{"date"}, {"2024-01-01"}}}
	c := newTestClient(t, f)
	c.cacheValidDuration = 10 * time.Millisecond

	if _, err := c.nextRow(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	n, err := c.nextRow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("nextRow = %d, want 3", n)
	}
	if f.gets != 2 {
		t.Errorf("expected a re-read after expiry, got %d reads", f.gets)
	}
}

func TestReadRows(t *testing.T) {
	f := &fakeSheets{rows: [][]any{
		{"Date", "Club_ID", "Category"},
		{"", "", ""},
		{"#note"},
		{"2024-08-01", 3, " food "},
	}}
	c := newTestClient(t, f)

	rows, err := c.ReadRows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][1] != "club_id" || rows[1][1] != "3" || rows[1][2] != "food" {
		t.Errorf("unexpected normalization: %v", rows)
	}
}
