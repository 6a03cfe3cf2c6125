package ledgerapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubdash/internal/assistant"
	"clubdash/internal/cache"
	"clubdash/internal/chat"
	"clubdash/internal/core"
	"clubdash/internal/fetch"
	"clubdash/internal/ledger"
	"clubdash/internal/storage"
	"clubdash/internal/worker"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakePublisher struct {
	ids []string
	err error
}

func (p *fakePublisher) PublishTransactionCreated(_ context.Context, txID string, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, txID)
	return nil
}

type harness struct {
	repo   *storage.SQLiteRepository
	store  *cache.LRUStore
	srv    *httptest.Server
	client *ledger.Client
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store := cache.NewLRUStore(100, time.Minute)
	opts := Options{
		Cache:     store,
		Applier:   worker.NewApplyWorker(repo, nil, store, 10),
		Assistant: assistant.New(nil),
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := httptest.NewServer(New(repo, opts).Handler())
	t.Cleanup(srv.Close)

	return &harness{repo: repo, store: store, srv: srv, client: ledger.NewClient(srv.URL, srv.Client())}
}

func (h *harness) seedPeriod(t *testing.T) core.FinancialPeriod {
	t.Helper()
	p, err := h.client.CreatePeriod(context.Background(), ledger.PeriodCreate{
		UnitID:         1,
		PeriodStart:    core.NewDate(2024, 7, 1),
		PeriodEnd:      core.NewDate(2025, 6, 30),
		CurrentBalance: core.MustAmount("1000"),
		Donations:      core.MustAmount("500"),
		Fundraising:    core.MustAmount("250"),
		Food:           core.MustAmount("100.25"),
		Uniforms:       core.MustAmount("100.25"),
	})
	require.NoError(t, err)
	return p
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.ModelName = "gemini-test" })
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, h.srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "gemini-test", body["model"])
}

func TestNotFoundDetails(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	tests := []struct {
		path   string
		detail string
	}{
		{"/financials/1", "Summary not found"},
		{"/financials/all/1", "No financial summaries found for this club"},
		{"/transactions/club/1", "No transactions found for this club"},
		{"/transactions/nope", "Transaction not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body map[string]string
			assert.Equal(t, http.StatusNotFound, getJSON(t, h.srv.URL+tt.path, &body))
			assert.Equal(t, tt.detail, body["detail"])
		})
	}

	// The client normalises empty listings.
	periods, err := h.client.ListPeriods(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, periods)
	txs, err := h.client.ListTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = h.client.LatestPeriod(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, "Summary not found", fetch.Message(err))
}

func TestBadUnitID(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, h.srv.URL+"/financials/abc", nil))
}

func TestPeriodsRoundTrip(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	created := h.seedPeriod(t)
	assert.NotEmpty(t, created.ID)

	latest, err := h.client.LatestPeriod(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, latest.ID)
	assert.Equal(t, core.MustAmount("100.25"), latest.Uniforms)

	var raw []map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, h.srv.URL+"/financials/all/1", &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "750.00", raw[0]["revenue_total"])
	assert.Equal(t, "200.50", raw[0]["expenses_total"])
}

func TestCreatePeriodRejectsInvertedRange(t *testing.T) {
	h := newHarness(t, nil)
	body := `{"club_id":1,"period_start":"2025-01-01","period_end":"2024-01-01","current_balance":"0",
	"revenue_donations":0,"revenue_fundraising":0,"revenue_sponsorship":0,
	"expense_food":0,"expense_giveaway":0,"expense_uniforms":0}`
	resp, err := http.Post(h.srv.URL+"/financials/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPatchIsPartial(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	created := h.seedPeriod(t)

	balance := core.MustAmount("1234.56")
	updated, err := h.client.UpdatePeriod(ctx, created.ID, ledger.PeriodPatch{CurrentBalance: &balance})
	require.NoError(t, err)
	assert.Equal(t, balance, updated.CurrentBalance)
	assert.Equal(t, created.Donations, updated.Donations)
	assert.Equal(t, created.PeriodEnd, updated.PeriodEnd)

	_, err = h.client.UpdatePeriod(ctx, "missing", ledger.PeriodPatch{CurrentBalance: &balance})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Equal(t, "Financial summary not found", fetch.Message(err))
}

func TestCreateTransactionAppliesInline(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.seedPeriod(t)

	// Prime the cache so the update has to invalidate it.
	_, err := h.client.ListPeriods(ctx, 1)
	require.NoError(t, err)

	in := core.NewTransaction{
		UnitID: 1, Amount: core.MustAmount("20"), Description: "Pizza",
		Date: core.NewDate(2024, 10, 1),
	}
	in.SetCategory("Food")
	tx, err := h.client.CreateTransaction(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, tx.Status)
	assert.Equal(t, "5520", tx.Code)

	periods, err := h.client.ListPeriods(ctx, 1)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, core.MustAmount("120.25"), periods[0].Food)

	got, err := h.client.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pizza", got.Description)

	txs, err := h.client.ListTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestCreateTransactionPendingNotApplied(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.seedPeriod(t)

	in := core.NewTransaction{
		UnitID: 1, Amount: core.MustAmount("20"), Description: "Deposit",
		Date: core.NewDate(2024, 10, 1), Status: core.StatusPending,
	}
	in.SetCategory("donation")
	_, err := h.client.CreateTransaction(ctx, in)
	require.NoError(t, err)

	latest, err := h.client.LatestPeriod(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.MustAmount("500"), latest.Donations)
}

func TestCreateTransactionValidation(t *testing.T) {
	h := newHarness(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"missing description", `{"club_id":1,"amount":"5","category":"food","date":"2024-10-01"}`},
		{"zero amount", `{"club_id":1,"amount":"0","category":"food","description":"x","date":"2024-10-01"}`},
		{"bad status", `{"club_id":1,"amount":"5","category":"food","description":"x","date":"2024-10-01","status":"maybe"}`},
		{"bad date", `{"club_id":1,"amount":"5","category":"food","description":"x","date":"yesterday"}`},
		{"missing club", `{"amount":"5","category":"food","description":"x","date":"2024-10-01"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(h.srv.URL+"/transactions/", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestCreateTransactionPublishes(t *testing.T) {
	pub := &fakePublisher{}
	h := newHarness(t, func(o *Options) { o.Publisher = pub })
	ctx := context.Background()
	h.seedPeriod(t)

	in := core.NewTransaction{UnitID: 1, Amount: core.MustAmount("5"), Description: "Snacks", Date: core.NewDate(2024, 10, 1)}
	in.SetCategory("food")
	tx, err := h.client.CreateTransaction(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []string{tx.ID}, pub.ids)

	// The worker applies it later, not the API.
	latest, err := h.client.LatestPeriod(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.MustAmount("100.25"), latest.Food)
}

func TestCreateTransactionFallsBackWhenPublishFails(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	h := newHarness(t, func(o *Options) { o.Publisher = pub })
	ctx := context.Background()
	h.seedPeriod(t)

	in := core.NewTransaction{UnitID: 1, Amount: core.MustAmount("5"), Description: "Snacks", Date: core.NewDate(2024, 10, 1)}
	in.SetCategory("food")
	_, err := h.client.CreateTransaction(ctx, in)
	require.NoError(t, err)

	latest, err := h.client.LatestPeriod(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.MustAmount("105.25"), latest.Food)
}

func TestListsAreCached(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.seedPeriod(t)

	_, err := h.client.ListPeriods(ctx, 1)
	require.NoError(t, err)

	// A write that bypasses the API is not visible until the entry expires.
	p.CurrentBalance = core.MustAmount("1")
	_, err = h.repo.UpdatePeriod(ctx, p)
	require.NoError(t, err)

	periods, err := h.client.ListPeriods(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.MustAmount("1000"), periods[0].CurrentBalance)

	require.NoError(t, h.store.Delete(ctx, cache.PeriodsKey(1)))
	periods, err = h.client.ListPeriods(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.MustAmount("1"), periods[0].CurrentBalance)
}

func TestChat(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	reply, err := h.client.Chat(ctx, "hello", "s-1")
	require.NoError(t, err)
	assert.Equal(t, chat.CannedReply("hello"), reply)

	resp, err := http.Post(h.srv.URL+"/chat", "application/json", strings.NewReader(`{"user_message":"  ","session_id":"s"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatWithoutAssistant(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Assistant = nil })
	resp, err := http.Post(h.srv.URL+"/chat", "application/json", strings.NewReader(`{"user_message":"hi","session_id":"s"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.CORSOrigins = []string{"http://localhost:5173"} })
	req, _ := http.NewRequest(http.MethodOptions, h.srv.URL+"/financials/1", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestClubs(t *testing.T) {
	h := newHarness(t, nil)

	var clubs []core.Club
	assert.Equal(t, http.StatusOK, getJSON(t, h.srv.URL+"/clubs/", &clubs))
	assert.Empty(t, clubs)

	resp, err := http.Post(h.srv.URL+"/clubs/", "application/json",
		strings.NewReader(`{"id":42,"name":"Robotics","email":"bots@school.test","club_type":"stem"}`))
	require.NoError(t, err)
	var created core.Club
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, int64(42), created.ID, "ids are assigned by the ledger")

	var got core.Club
	assert.Equal(t, http.StatusOK, getJSON(t, fmt.Sprintf("%s/clubs/%d", h.srv.URL, created.ID), &got))
	assert.Equal(t, created, got)

	var missing map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, h.srv.URL+"/clubs/999", &missing))
	assert.Equal(t, "Club not found", missing["detail"])

	resp, err = http.Post(h.srv.URL+"/clubs/", "application/json", strings.NewReader(`{"name":"No Type","email":"x@y.test"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
