// Package handler provides the HTTP request handlers.
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"campus-assist-api/internal/domain/repository"
	"campus-assist-api/internal/interfaces/http/dto"
	"campus-assist-api/pkg/logger"
)

// SessionHandler serves conversation context endpoints.
type SessionHandler struct {
	store    repository.ConversationStore
	maxTurns int
}

// NewSessionHandler creates the session handler.
func NewSessionHandler(store repository.ConversationStore, maxTurns int) *SessionHandler {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &SessionHandler{store: store, maxTurns: maxTurns}
}

// History returns the retained turns of a session, oldest first.
// @Summary Get session history
// @Tags Conversations
// @Produce json
// @Param sid path string true "session id"
// @Param limit query int false "max turns to return"
// @Success 200 {object} dto.Response[dto.SessionHistoryResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/conversations/{sid} [get]
func (h *SessionHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := strings.TrimSpace(c.Param("sid"))
	if sessionID == "" {
		dto.BadRequest(c, "session id is required")
		return
	}

	limit := parseLimit(c, h.maxTurns, h.maxTurns)
	turns, err := h.store.RecentContext(ctx, sessionID, limit)
	if err != nil {
		logger.Error(ctx, "failed to load session history", err)
		dto.InternalError(c, "failed to load session history")
		return
	}

	resp := &dto.SessionHistoryResponse{
		SessionID: sessionID,
		Turns:     make([]*dto.TurnResponse, 0, len(turns)),
	}
	for i := range turns {
		resp.Turns = append(resp.Turns, dto.ToTurnResponse(turns[i]))
	}
	dto.Success(c, resp)
}

// Clear removes a session and its turns.
// @Summary Clear session history
// @Tags Conversations
// @Param sid path string true "session id"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/conversations/{sid} [delete]
func (h *SessionHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := strings.TrimSpace(c.Param("sid"))
	if sessionID == "" {
		dto.BadRequest(c, "session id is required")
		return
	}

	if err := h.store.Clear(ctx, sessionID); err != nil {
		logger.Error(ctx, "failed to clear session", err)
		dto.InternalError(c, "failed to clear session")
		return
	}
	dto.NoContent(c)
}
