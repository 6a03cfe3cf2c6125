package ledgerapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clubdash/internal/cache"
	"clubdash/internal/core"
)

// abort writes a FastAPI-style {"detail": ...} error body.
func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// fail maps a repository error to a response; notFound is the detail for 404.
func fail(c *gin.Context, err error, notFound string) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, core.ErrNotFound):
		abort(c, http.StatusNotFound, notFound)
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidPeriod), errors.Is(err, core.ErrInvalidDate):
		abort(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abort(c, http.StatusInternalServerError, "Internal server error")
	}
}

func unitParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		abort(c, http.StatusUnprocessableEntity, "club_id must be a positive integer")
		return 0, false
	}
	return id, true
}

// cached serves key from the cache, or calls load and caches its JSON.
// load returns ok=false after it has written its own response.
func (s *Server) cached(c *gin.Context, key string, load func() (any, bool)) {
	ctx := c.Request.Context()
	if s.cache != nil {
		data, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
		} else if found {
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			return
		}
	}

	v, ok := load()
	if !ok {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		fail(c, err, "")
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			s.logger.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) invalidate(c *gin.Context, unitIDs ...int64) {
	if s.cache == nil {
		return
	}
	var keys []string
	for _, id := range unitIDs {
		keys = append(keys, cache.UnitKeys(id)...)
	}
	if err := s.cache.Delete(c.Request.Context(), keys...); err != nil {
		s.logger.WarnContext(c.Request.Context(), "Cache invalidation failed", "error", err)
	}
}
