// Package http exposes the dashboard view models as a JSON API. Each
// organizational unit gets one long-lived view model, created on first use;
// every handler talks to the ledger only through it.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"clubdash/internal/cache"
	"clubdash/internal/chat"
	"clubdash/internal/ledger"
	applog "clubdash/internal/log"
	"clubdash/internal/middleware/ratelimit"
	"clubdash/internal/middleware/security"
	"clubdash/internal/middleware/trace"
	"clubdash/internal/viewmodel"
)

const (
	defaultMaxUnits    = 100
	defaultLoadTimeout = 30 * time.Second
	readyTimeout       = 3 * time.Second

	sessionSweepInterval = 5 * time.Minute
)

var errTooManyUnits = errors.New("too many organizational units in use")

// Options configures a Server. Zero values select defaults.
type Options struct {
	// DefaultUnitID is the tenant served by /api/overview.
	DefaultUnitID int64
	// Chat answers /api/chat. Nil selects local canned replies.
	Chat chat.Chatter
	// RequestsPerMinute bounds POST requests per client.
	RequestsPerMinute int
	MaxUnits          int
	LoadTimeout       time.Duration
	Logger            *applog.Logger
}

type Server struct {
	http.Server
	ledger      ledger.Ledger
	defaultUnit int64
	maxUnits    int
	loadTimeout time.Duration
	logger      *applog.Logger
	limiter     *ratelimit.Limiter
	sessions    *chat.Sessions
	janitor     *cache.Manager

	mu    sync.Mutex
	views map[int64]*viewmodel.ViewModel

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, l ledger.Ledger, opts Options) *Server {
	if opts.MaxUnits <= 0 {
		opts.MaxUnits = defaultMaxUnits
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.Logger == nil {
		opts.Logger = applog.Default(applog.ComponentHTTP)
	}

	s := &Server{
		ledger:      l,
		defaultUnit: opts.DefaultUnitID,
		maxUnits:    opts.MaxUnits,
		loadTimeout: opts.LoadTimeout,
		logger:      opts.Logger,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		sessions:    chat.NewSessions(opts.Chat, opts.Logger),
		views:       make(map[int64]*viewmodel.ViewModel),
		janitor:     cache.NewManager(opts.Logger),
	}
	s.janitor.Register(s.sessions)
	s.janitor.StartCleanup(sessionSweepInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/overview", s.handleDefaultOverview)
	mux.HandleFunc("GET /api/units/{unit}/overview", s.withUnit(s.handleOverview))
	mux.HandleFunc("POST /api/units/{unit}/refresh", s.withUnit(s.handleRefresh))
	mux.HandleFunc("POST /api/units/{unit}/period", s.withUnit(s.handleSelectPeriod))
	mux.HandleFunc("POST /api/units/{unit}/transactions", s.withUnit(s.handleSubmitTransaction))

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/{session}", s.handleChatHistory)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(applog.ClientIP, onRateLimited, http.MethodPost)

	var h http.Handler = mux
	h = limited(h)
	h = headers.Middleware(h)
	h = applog.Middleware(s.logger, trace.FromRequest)(h)
	h = trace.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// view returns the unit's view model, creating it on first use.
func (s *Server) view(unitID int64) (*viewmodel.ViewModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vm, ok := s.views[unitID]; ok {
		return vm, nil
	}
	if len(s.views) >= s.maxUnits {
		return nil, errTooManyUnits
	}
	vm := viewmodel.New(s.ledger, unitID, s.logger)
	s.views[unitID] = vm
	return vm, nil
}

// loadContext detaches a view model load from the request: the state it
// produces is shared by every client of the unit.
func (s *Server) loadContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.loadTimeout)
}

// Shutdown gracefully shuts down the server, its view models and chat sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)

		s.limiter.Stop()
		s.janitor.Stop()
		s.sessions.Close()

		s.mu.Lock()
		for id, vm := range s.views {
			vm.Close()
			delete(s.views, id)
		}
		s.mu.Unlock()
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the ledger answers. A 404 still proves it is up.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	_, err := s.ledger.LatestPeriod(ctx, s.defaultUnit)
	if err != nil && !isNotFound(err) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Ledger not reachable", applog.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": errorMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
