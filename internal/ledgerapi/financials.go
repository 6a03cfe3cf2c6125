package ledgerapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubdash/internal/cache"
	"clubdash/internal/core"
	"clubdash/internal/ledger"
	"clubdash/internal/reconcile"
)

// periodResponse adds the server-computed subtotals to a period.
type periodResponse struct {
	core.FinancialPeriod
	RevenueTotal  core.Amount `json:"revenue_total"`
	ExpensesTotal core.Amount `json:"expenses_total"`
}

func toPeriodResponse(p core.FinancialPeriod) periodResponse {
	t := reconcile.DeriveTotals(p)
	return periodResponse{FinancialPeriod: p, RevenueTotal: t.Revenue, ExpensesTotal: t.Expense}
}

func (s *Server) latestPeriod(c *gin.Context) {
	unitID, ok := unitParam(c)
	if !ok {
		return
	}
	s.cached(c, cache.LatestPeriodKey(unitID), func() (any, bool) {
		p, err := s.repo.LatestPeriod(c.Request.Context(), unitID)
		if err != nil {
			fail(c, err, "Summary not found")
			return nil, false
		}
		return toPeriodResponse(p), true
	})
}

func (s *Server) listPeriods(c *gin.Context) {
	unitID, ok := unitParam(c)
	if !ok {
		return
	}
	s.cached(c, cache.PeriodsKey(unitID), func() (any, bool) {
		periods, err := s.repo.ListPeriods(c.Request.Context(), unitID)
		if err != nil {
			fail(c, err, "")
			return nil, false
		}
		if len(periods) == 0 {
			abort(c, http.StatusNotFound, ledger.DetailNoPeriods)
			return nil, false
		}
		out := make([]periodResponse, len(periods))
		for i, p := range periods {
			out[i] = toPeriodResponse(p)
		}
		return out, true
	})
}

func (s *Server) createPeriod(c *gin.Context) {
	var in ledger.PeriodCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.UnitID < 1 {
		abort(c, http.StatusUnprocessableEntity, "club_id must be a positive integer")
		return
	}
	if err := in.Validate(); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	p, err := s.repo.CreatePeriod(c.Request.Context(), core.FinancialPeriod{
		UnitID:         in.UnitID,
		PeriodStart:    in.PeriodStart,
		PeriodEnd:      in.PeriodEnd,
		CurrentBalance: in.CurrentBalance,
		Donations:      in.Donations,
		Fundraising:    in.Fundraising,
		Sponsorship:    in.Sponsorship,
		Food:           in.Food,
		Giveaway:       in.Giveaway,
		Uniforms:       in.Uniforms,
	})
	if err != nil {
		fail(c, err, "")
		return
	}
	s.invalidate(c, p.UnitID)
	c.JSON(http.StatusOK, toPeriodResponse(p))
}

// updatePeriod applies a partial update; fields absent from the body keep
// their stored values.
func (s *Server) updatePeriod(c *gin.Context) {
	var patch ledger.PeriodPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ctx := c.Request.Context()

	current, err := s.repo.GetPeriod(ctx, c.Param("id"))
	if err != nil {
		fail(c, err, "Financial summary not found")
		return
	}
	updated, err := s.repo.UpdatePeriod(ctx, patch.Apply(current))
	if err != nil {
		fail(c, err, "Financial summary not found")
		return
	}
	s.invalidate(c, current.UnitID, updated.UnitID)
	c.JSON(http.StatusOK, toPeriodResponse(updated))
}
