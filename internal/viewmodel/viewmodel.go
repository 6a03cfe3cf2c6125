// Package viewmodel holds the reconciled dashboard state of one
// organizational unit and sequences the ledger calls that refresh it.
//
// The state is a single tagged value (Idle, Loading, Ready, Error): Ready
// data and an error message never coexist, and Loading doubles as the
// busy-guard that rejects overlapping submissions. The view model performs
// no I/O itself; all network access goes through the ledger.Ledger port.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clubdash/internal/core"
	"clubdash/internal/fetch"
	"clubdash/internal/ledger"
	applog "clubdash/internal/log"
)

type ViewModel struct {
	ledger ledger.Ledger
	unitID int64
	logger *applog.Logger

	mu    sync.Mutex
	state State
	ready *readyData
	err   string
	gen   uint64

	lifetime context.Context
	cancel   context.CancelFunc
	closed   bool
}

// New returns an Idle view model for unitID.
func New(l ledger.Ledger, unitID int64, logger *applog.Logger) *ViewModel {
	if logger == nil {
		logger = applog.Default(applog.ComponentViewModel)
	}
	lifetime, cancel := context.WithCancel(context.Background())
	return &ViewModel{
		ledger:   l,
		unitID:   unitID,
		logger:   logger.WithComponent(applog.ComponentViewModel).With(applog.FieldUnitID, unitID),
		state:    StateIdle,
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// UnitID returns the organizational unit this view model serves.
func (vm *ViewModel) UnitID() int64 { return vm.unitID }

// State returns the current state tag.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Load runs the initial fetch sequence. Calling it again from Ready or
// Error is an explicit refresh.
func (vm *ViewModel) Load(ctx context.Context) error {
	gen, err := vm.enterLoading()
	if err != nil {
		return err
	}
	return vm.fetchSequence(ctx, gen)
}

// Refresh is an explicit refetch of periods and transactions.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	return vm.Load(ctx)
}

// SelectPeriod switches the selected period and re-derives figures locally.
// Unknown IDs and calls outside Ready are no-ops; the return value reports
// whether the selection changed.
func (vm *ViewModel) SelectPeriod(periodID string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.state != StateReady {
		return false
	}
	i := vm.ready.indexOf(periodID)
	if i < 0 {
		vm.logger.Debug("Ignoring unknown period selection", applog.FieldPeriodID, periodID)
		return false
	}
	vm.ready.selected = i
	vm.ready.derive()
	return true
}

// SubmitTransaction validates in, creates it through the ledger and then
// refetches everything so server-maintained balances are reflected.
// Validation failures return immediately without a state transition.
func (vm *ViewModel) SubmitTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	if in.UnitID == 0 {
		in.UnitID = vm.unitID
	}
	in.SetCategory(in.Category)
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	gen, err := vm.enterLoading()
	if err != nil {
		return core.Transaction{}, err
	}

	fctx, stop := vm.bind(ctx)
	created, err := vm.ledger.CreateTransaction(fctx, in)
	stop()
	if err != nil {
		vm.logger.ErrorContext(ctx, "Transaction submission failed",
			applog.NewFields().WithTransaction(in.UnitID, in.Amount.Cents, in.Category, in.Code).WithError(err).ToSlice()...)
		if ferr := vm.finishError(gen, err); ferr != nil {
			return core.Transaction{}, ferr
		}
		return core.Transaction{}, err
	}
	vm.logger.InfoContext(ctx, "Transaction submitted",
		applog.NewFields().WithTransaction(in.UnitID, in.Amount.Cents, in.Category, in.Code).ToSlice()...)

	return created, vm.fetchSequence(ctx, gen)
}

// Snapshot returns a copy of the current state safe to hand to renderers.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	s := Snapshot{UnitID: vm.unitID, State: vm.state, Error: vm.err}
	if vm.state != StateReady {
		return s
	}
	d := vm.ready
	s.Periods = append([]core.FinancialPeriod(nil), d.periods...)
	sel := d.periods[d.selected]
	s.SelectedPeriod = &sel
	s.Transactions = append([]core.Transaction(nil), d.transactions...)
	s.Totals = d.totals
	s.Spending = append(s.Spending, d.spending...)
	s.SpendingTotal = d.spending.Total()
	return s
}

// Close tears the view down. In-flight calls are cancelled and any result
// that still arrives is discarded.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}
	vm.closed = true
	vm.cancel()
}

// Done is closed when the view model is closed.
func (vm *ViewModel) Done() <-chan struct{} {
	return vm.lifetime.Done()
}

func (vm *ViewModel) enterLoading() (uint64, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return 0, ErrClosed
	}
	if vm.state == StateLoading {
		return 0, ErrBusy
	}
	vm.state = StateLoading
	vm.ready = nil
	vm.err = ""
	vm.gen++
	return vm.gen, nil
}

// bind derives a context cancelled by either the caller or Close.
func (vm *ViewModel) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	fctx, cancel := context.WithCancel(ctx)
	stopAfter := context.AfterFunc(vm.lifetime, cancel)
	return fctx, func() {
		stopAfter()
		cancel()
	}
}

// fetchSequence fetches periods then transactions and commits the result.
// Any failure discards partial data.
func (vm *ViewModel) fetchSequence(ctx context.Context, gen uint64) error {
	fctx, stop := vm.bind(ctx)
	defer stop()

	periods, err := vm.ledger.ListPeriods(fctx, vm.unitID)
	if err != nil {
		vm.logger.ErrorContext(ctx, "Failed to fetch periods", applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
		if ferr := vm.finishError(gen, err); ferr != nil {
			return ferr
		}
		return err
	}
	if len(periods) == 0 {
		noData := fmt.Errorf("%w: %s", core.ErrNoData, NoDataMessage)
		vm.logger.WarnContext(ctx, "Ledger returned zero periods", applog.FieldOperation, applog.OpLoad)
		if ferr := vm.finishMessage(gen, NoDataMessage); ferr != nil {
			return ferr
		}
		return noData
	}

	txs, err := vm.ledger.ListTransactions(fctx, vm.unitID)
	if err != nil {
		vm.logger.ErrorContext(ctx, "Failed to fetch transactions", applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
		if ferr := vm.finishError(gen, err); ferr != nil {
			return ferr
		}
		return err
	}

	data := newReadyData(periods, txs)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if err := vm.stale(gen); err != nil {
		return err
	}
	vm.state = StateReady
	vm.ready = data
	vm.err = ""
	vm.logger.InfoContext(ctx, "Dashboard reconciled",
		applog.FieldState, vm.state.String(),
		"periods", len(data.periods),
		"transactions", len(data.transactions),
		applog.FieldPeriodID, data.periods[data.selected].ID)
	return nil
}

func (vm *ViewModel) finishError(gen uint64, err error) error {
	return vm.finishMessage(gen, fetch.Message(err))
}

// finishMessage commits the Error state unless the sequence is stale.
func (vm *ViewModel) finishMessage(gen uint64, msg string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if err := vm.stale(gen); err != nil {
		return err
	}
	vm.state = StateError
	vm.ready = nil
	vm.err = msg
	return nil
}

// stale must be called with mu held.
func (vm *ViewModel) stale(gen uint64) error {
	if vm.closed {
		return ErrClosed
	}
	if gen != vm.gen {
		return ErrSuperseded
	}
	return nil
}

// IsBusy reports whether err came from the busy-guard.
func IsBusy(err error) bool { return errors.Is(err, ErrBusy) }
