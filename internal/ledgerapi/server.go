// Package ledgerapi serves the ledger's HTTP JSON API (clubs, financial
// periods, transactions and chat) over the SQLite repository.
package ledgerapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"clubdash/internal/cache"
	"clubdash/internal/core"
	applog "clubdash/internal/log"
	"clubdash/internal/worker"
)

// Repository is the storage the API reads and writes.
type Repository interface {
	CreatePeriod(ctx context.Context, p core.FinancialPeriod) (core.FinancialPeriod, error)
	GetPeriod(ctx context.Context, id string) (core.FinancialPeriod, error)
	LatestPeriod(ctx context.Context, unitID int64) (core.FinancialPeriod, error)
	ListPeriods(ctx context.Context, unitID int64) ([]core.FinancialPeriod, error)
	UpdatePeriod(ctx context.Context, p core.FinancialPeriod) (core.FinancialPeriod, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, unitID int64) ([]core.Transaction, error)
	CreateClub(ctx context.Context, c core.Club) (core.Club, error)
	GetClub(ctx context.Context, id int64) (core.Club, error)
	ListClubs(ctx context.Context) ([]core.Club, error)
	Ping(ctx context.Context) error
}

// Publisher announces new transactions to the apply worker.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, txID string, unitID int64) error
}

// Applier applies a transaction to its period in-process.
type Applier interface {
	Apply(ctx context.Context, t core.Transaction) (worker.Outcome, error)
}

// Chatter answers chat messages.
type Chatter interface {
	Chat(ctx context.Context, message, sessionID string) (string, error)
}

type Options struct {
	// Cache holds encoded list responses; nil disables caching.
	Cache cache.Store
	// Publisher is preferred over Applier when both are set; Applier is the
	// fallback when publishing fails.
	Publisher Publisher
	Applier   Applier
	Assistant Chatter
	ModelName string

	CORSOrigins []string
}

type Server struct {
	repo      Repository
	cache     cache.Store
	publisher Publisher
	applier   Applier
	assistant Chatter
	modelName string
	logger    *applog.Logger
	engine    *gin.Engine
}

func New(repo Repository, opts Options) *Server {
	s := &Server{
		repo:      repo,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		applier:   opts.Applier,
		assistant: opts.Assistant,
		modelName: opts.ModelName,
		logger:    applog.Default(applog.ComponentHTTP).With("service", "ledgerd"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger), cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/health", s.health)

	r.GET("/clubs/", s.listClubs)
	r.GET("/clubs/:id", s.getClub)
	r.POST("/clubs/", s.createClub)

	r.GET("/financials/:id", s.latestPeriod)
	r.GET("/financials/all/:id", s.listPeriods)
	r.POST("/financials/", s.createPeriod)
	r.PATCH("/financials/:id", s.updatePeriod)

	r.GET("/transactions/club/:id", s.listTransactions)
	r.GET("/transactions/:id", s.getTransaction)
	r.POST("/transactions/", s.createTransaction)

	r.POST("/chat", s.chat)

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) health(c *gin.Context) {
	if err := s.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	body := gin.H{"status": "ok", "service": "ledgerd"}
	if s.modelName != "" {
		body["model"] = s.modelName
	}
	c.JSON(http.StatusOK, body)
}
