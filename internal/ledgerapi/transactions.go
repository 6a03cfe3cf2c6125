package ledgerapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clubdash/internal/cache"
	"clubdash/internal/core"
	"clubdash/internal/ledger"
	applog "clubdash/internal/log"
)

func (s *Server) listTransactions(c *gin.Context) {
	unitID, ok := unitParam(c)
	if !ok {
		return
	}
	s.cached(c, cache.TransactionsKey(unitID), func() (any, bool) {
		txs, err := s.repo.ListTransactions(c.Request.Context(), unitID)
		if err != nil {
			fail(c, err, "")
			return nil, false
		}
		if len(txs) == 0 {
			abort(c, http.StatusNotFound, ledger.DetailNoTransactions)
			return nil, false
		}
		return txs, true
	})
}

func (s *Server) getTransaction(c *gin.Context) {
	t, err := s.repo.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Transaction not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

// createTransaction stores a transaction and hands it to the apply path.
// Status defaults to completed and the code is derived from the category
// when the body has none.
func (s *Server) createTransaction(c *gin.Context) {
	var in core.NewTransaction
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	in.Status = core.TransactionStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	if in.Status == "" {
		in.Status = core.StatusCompleted
	}
	if strings.TrimSpace(in.Code) == "" {
		in.Code = core.CodeForCategory(in.Category)
	}
	if in.UnitID < 1 {
		abort(c, http.StatusUnprocessableEntity, "club_id must be a positive integer")
		return
	}
	if err := in.Validate(); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := c.Request.Context()
	t, err := s.repo.CreateTransaction(ctx, core.Transaction{
		UnitID:      in.UnitID,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		Status:      in.Status,
		Vendor:      in.Vendor,
		ReceiptURL:  in.ReceiptURL,
		Code:        in.Code,
	})
	if err != nil {
		fail(c, err, "")
		return
	}
	s.invalidate(c, t.UnitID)
	s.dispatch(ctx, t)

	c.JSON(http.StatusOK, t)
}

// dispatch publishes the transaction for the worker, applying it in-process
// when there is no broker or publishing fails.
func (s *Server) dispatch(ctx context.Context, t core.Transaction) {
	if s.publisher != nil {
		err := s.publisher.PublishTransactionCreated(ctx, t.ID, t.UnitID)
		if err == nil {
			return
		}
		s.logger.WarnContext(ctx, "Failed to publish transaction, applying inline",
			applog.FieldTxID, t.ID,
			applog.FieldError, err)
	}
	if s.applier == nil {
		return
	}
	if _, err := s.applier.Apply(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "Failed to apply transaction",
			applog.FieldTxID, t.ID,
			applog.FieldError, err)
	}
}
