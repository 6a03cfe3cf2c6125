package http

import (
	"errors"
	"net/http"

	"clubdash/internal/chat"
	"clubdash/internal/core"
	applog "clubdash/internal/log"
	"clubdash/internal/viewmodel"
)

type unitHandler func(w http.ResponseWriter, r *http.Request, vm *viewmodel.ViewModel)

// withUnit resolves the {unit} path value to its view model.
func (s *Server) withUnit(next unitHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, ok := parseUnit(r.PathValue("unit"))
		if !ok {
			badRequest(w, "invalid unit id")
			return
		}
		vm, err := s.view(unitID)
		if err != nil {
			writeError(w, err, nil)
			return
		}
		next(w, r, vm)
	}
}

func (s *Server) handleDefaultOverview(w http.ResponseWriter, r *http.Request) {
	vm, err := s.view(s.defaultUnit)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	s.handleOverview(w, r, vm)
}

// handleOverview returns the unit's snapshot, running the initial load the
// first time the unit is viewed.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, vm *viewmodel.ViewModel) {
	if vm.State() == viewmodel.StateIdle {
		ctx, cancel := s.loadContext(r)
		err := vm.Load(ctx)
		cancel()
		// A concurrent first load is already filling the state.
		if err != nil && !viewmodel.IsBusy(err) {
			snap := vm.Snapshot()
			writeError(w, err, &snap)
			return
		}
	}

	snap := vm.Snapshot()
	if snap.State == viewmodel.StateError {
		status := http.StatusBadGateway
		if snap.Error == viewmodel.NoDataMessage {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: snap.Error, Snapshot: &snap})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, vm *viewmodel.ViewModel) {
	ctx, cancel := s.loadContext(r)
	err := vm.Refresh(ctx)
	cancel()

	snap := vm.Snapshot()
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type selectPeriodRequest struct {
	PeriodID string `json:"period_id"`
}

func (s *Server) handleSelectPeriod(w http.ResponseWriter, r *http.Request, vm *viewmodel.ViewModel) {
	var req selectPeriodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if vm.State() != viewmodel.StateReady {
		snap := vm.Snapshot()
		writeJSON(w, http.StatusConflict, errorResponse{Error: "dashboard is not loaded", Snapshot: &snap})
		return
	}
	if !vm.SelectPeriod(req.PeriodID) {
		snap := vm.Snapshot()
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown period", Snapshot: &snap})
		return
	}
	writeJSON(w, http.StatusOK, vm.Snapshot())
}

type submitResponse struct {
	Transaction core.Transaction   `json:"transaction"`
	Snapshot    viewmodel.Snapshot `json:"snapshot"`
}

// handleSubmitTransaction creates a transaction and returns the refetched
// dashboard. The unit in the path always wins over the body.
func (s *Server) handleSubmitTransaction(w http.ResponseWriter, r *http.Request, vm *viewmodel.ViewModel) {
	var in core.NewTransaction
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	in.UnitID = vm.UnitID()

	ctx, cancel := s.loadContext(r)
	created, err := vm.SubmitTransaction(ctx, in)
	cancel()

	snap := vm.Snapshot()
	if err != nil && created.ID == "" {
		writeError(w, err, &snap)
		return
	}
	if err != nil {
		// Created, but the refetch after it failed; the snapshot shows why.
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Refetch after submission failed",
			applog.FieldTxID, created.ID, applog.FieldError, err)
	}
	writeJSON(w, http.StatusCreated, submitResponse{Transaction: created, Snapshot: snap})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	SessionID string         `json:"session_id"`
	Reply     *chat.Message  `json:"reply,omitempty"`
	History   []chat.Message `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	session := s.sessions.Get(req.SessionID)
	reply, err := session.Send(r.Context(), req.Message)
	if err != nil {
		if !errors.Is(err, chat.ErrEmptyMessage) {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Chat failed",
				applog.FieldSessionID, session.ID(), applog.FieldError, err)
		}
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: session.ID(), Reply: &reply, History: session.History()})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Lookup(r.PathValue("session"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown chat session"})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: session.ID(), History: session.History()})
}
