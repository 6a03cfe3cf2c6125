package ledgerapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clubdash/internal/assistant"
	"clubdash/internal/ledger"
	applog "clubdash/internal/log"
)

func (s *Server) chat(c *gin.Context) {
	var req ledger.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		abort(c, http.StatusBadRequest, "user_message is empty")
		return
	}
	if s.assistant == nil {
		abort(c, http.StatusServiceUnavailable, "Assistant is not configured.")
		return
	}

	reply, err := s.assistant.Chat(c.Request.Context(), req.UserMessage, req.SessionID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ledger.ChatResponse{Response: reply})
	case errors.Is(err, assistant.ErrTimeout):
		abort(c, http.StatusGatewayTimeout, "Request timed out. Please try again.")
	default:
		s.logger.ErrorContext(c.Request.Context(), "Chat failed",
			applog.FieldSessionID, req.SessionID,
			applog.FieldError, err)
		abort(c, http.StatusInternalServerError, "Error generating response.")
	}
}
