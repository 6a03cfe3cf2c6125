package viewmodel

import (
	"errors"

	"clubdash/internal/core"
	"clubdash/internal/reconcile"
)

// State is the view model's lifecycle tag.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrBusy is returned when an action arrives while a fetch sequence is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrClosed is returned after Close; late results are discarded.
	ErrClosed = errors.New("view closed")
	// ErrSuperseded is returned when a newer sequence replaced this one.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// NoDataMessage is the error shown when the ledger holds zero periods.
const NoDataMessage = "No financial data found for this club"

// readyData exists only in StateReady.
type readyData struct {
	periods      []core.FinancialPeriod // PeriodEnd desc
	selected     int
	transactions []core.Transaction // Date desc
	totals       core.Totals
	spending     reconcile.Breakdown
}

func newReadyData(periods []core.FinancialPeriod, txs []core.Transaction) *readyData {
	d := &readyData{
		periods:      reconcile.SortPeriods(periods),
		transactions: reconcile.SortTransactionsByDateDesc(txs),
	}
	d.spending = reconcile.SpendingByCategory(d.transactions)
	d.derive()
	return d
}

// derive recomputes figures that depend on the selected period.
func (d *readyData) derive() {
	d.totals = reconcile.DeriveTotals(d.periods[d.selected])
}

func (d *readyData) indexOf(periodID string) int {
	for i, p := range d.periods {
		if p.ID == periodID {
			return i
		}
	}
	return -1
}

// Snapshot is an immutable copy of the view model for presentation.
type Snapshot struct {
	UnitID         int64                  `json:"club_id"`
	State          State                  `json:"state"`
	Periods        []core.FinancialPeriod `json:"periods"`
	SelectedPeriod *core.FinancialPeriod  `json:"selected_period"`
	Transactions   []core.Transaction     `json:"transactions"`
	Totals         core.Totals            `json:"totals"`
	Spending       reconcile.Breakdown    `json:"spending_by_category"`
	SpendingTotal  core.Amount            `json:"spending_total"`
	Error          string                 `json:"error,omitempty"`
}
