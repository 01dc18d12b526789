// Package handler provides the HTTP request handlers.
package handler

import (
	"github.com/gin-gonic/gin"

	"campus-assist-api/internal/interfaces/http/dto"
)

// LanguageHandler serves the supported-language listing.
type LanguageHandler struct{}

// NewLanguageHandler creates the language handler.
func NewLanguageHandler() *LanguageHandler {
	return &LanguageHandler{}
}

// List returns the supported languages.
// @Summary List supported languages
// @Tags Languages
// @Produce json
// @Success 200 {object} dto.Response[dto.LanguageListResponse]
// @Router /v1/languages [get]
func (h *LanguageHandler) List(c *gin.Context) {
	dto.Success(c, dto.ToLanguageListResponse())
}
