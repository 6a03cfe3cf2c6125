package ledgerapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubdash/internal/core"
)

func (s *Server) listClubs(c *gin.Context) {
	clubs, err := s.repo.ListClubs(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, clubs)
}

func (s *Server) getClub(c *gin.Context) {
	id, ok := unitParam(c)
	if !ok {
		return
	}
	club, err := s.repo.GetClub(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Club not found")
		return
	}
	c.JSON(http.StatusOK, club)
}

// createClub registers a club. The ID is assigned by the ledger.
func (s *Server) createClub(c *gin.Context) {
	var in core.Club
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	in.ID = 0
	club, err := s.repo.CreateClub(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, club)
}
