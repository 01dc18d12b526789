// Package handler provides the HTTP request handlers.
package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"campus-assist-api/internal/application/knowledge"
	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
	"campus-assist-api/internal/interfaces/http/dto"
	"campus-assist-api/pkg/logger"
)

// AdminHandler serves the audit log, usage stats and knowledge base
// reload endpoints.
type AdminHandler struct {
	exchangeRepo repository.ExchangeRepository
	indexer      *knowledge.Indexer
}

// NewAdminHandler creates the admin handler. exchangeRepo may be nil
// when exchange logging is not configured.
func NewAdminHandler(exchangeRepo repository.ExchangeRepository, indexer *knowledge.Indexer) *AdminHandler {
	return &AdminHandler{
		exchangeRepo: exchangeRepo,
		indexer:      indexer,
	}
}

// ListLogs returns recent exchange records, newest first.
// @Summary List recent exchange records
// @Tags Admin
// @Produce json
// @Param limit query int false "max records" default(50)
// @Param language query string false "filter by language code"
// @Success 200 {object} dto.Response[dto.ExchangeLogListResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/logs [get]
func (h *AdminHandler) ListLogs(c *gin.Context) {
	ctx := c.Request.Context()
	if h.exchangeRepo == nil {
		dto.ServiceUnavailable(c, "exchange log storage not configured")
		return
	}

	limit := parseLimit(c, 50, 500)
	language := strings.TrimSpace(c.Query("language"))
	if language != "" && !entity.IsSupportedLanguage(language) {
		dto.BadRequest(c, "unsupported language: "+language)
		return
	}

	records, err := h.exchangeRepo.ListRecent(ctx, limit, language)
	if err != nil {
		logger.Error(ctx, "failed to list exchange records", err)
		dto.InternalError(c, "failed to list logs")
		return
	}

	logs := make([]*dto.ExchangeLogResponse, 0, len(records))
	for i := range records {
		logs = append(logs, dto.ToExchangeLogResponse(records[i]))
	}
	dto.Success(c, &dto.ExchangeLogListResponse{Logs: logs, Total: len(logs)})
}

// Stats returns aggregate usage over all exchange records.
// @Summary Get usage statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.Response[dto.StatsResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	if h.exchangeRepo == nil {
		dto.ServiceUnavailable(c, "exchange log storage not configured")
		return
	}

	stats, err := h.exchangeRepo.Stats(ctx)
	if err != nil {
		logger.Error(ctx, "failed to aggregate stats", err)
		dto.InternalError(c, "failed to aggregate stats")
		return
	}
	dto.Success(c, dto.ToStatsResponse(stats))
}

// ReloadKnowledgeBase rebuilds the vector index from the data
// directory. Queries keep hitting the previous index until the new one
// is swapped in.
// @Summary Reload the knowledge base
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.Response[dto.ReloadResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/admin/reload-knowledge-base [post]
func (h *AdminHandler) ReloadKnowledgeBase(c *gin.Context) {
	ctx := c.Request.Context()
	if h.indexer == nil || !h.indexer.Enabled() {
		dto.ServiceUnavailable(c, "knowledge indexing not configured")
		return
	}

	start := time.Now()
	count, err := h.indexer.Rebuild(ctx)
	if err != nil {
		logger.Error(ctx, "knowledge base reload failed", err)
		dto.InternalError(c, "knowledge base reload failed")
		return
	}

	logger.Info(ctx, "knowledge base reloaded",
		"chunks", count,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	dto.Success(c, &dto.ReloadResponse{
		Chunks:     count,
		DurationMs: time.Since(start).Milliseconds(),
	})
}
