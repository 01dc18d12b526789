// Package handler provides the HTTP request handlers.
package handler

import (
	"github.com/gin-gonic/gin"

	"campus-assist-api/internal/application/chat"
	"campus-assist-api/internal/interfaces/http/dto"
	"campus-assist-api/pkg/logger"
)

// ChatHandler serves the question-answer endpoint.
type ChatHandler struct {
	pipeline *chat.Pipeline
}

// NewChatHandler creates the chat handler.
func NewChatHandler(pipeline *chat.Pipeline) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

// Chat answers one query.
// @Summary Ask the assistant a question
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "chat request"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.pipeline.Ask(ctx, chat.ChatInput{
		Query:     req.Query,
		SessionID: req.SessionID,
		Language:  req.Language,
		UserID:    req.UserID,
	})
	if err != nil {
		logger.Error(ctx, "chat request failed", err)
		dto.WriteAppError(c, err)
		return
	}

	dto.Success(c, dto.ToChatResponse(out))
}
