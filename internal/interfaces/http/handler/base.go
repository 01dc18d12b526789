// Package handler provides the HTTP request handlers.
package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// parseLimit reads a positive ?limit= value, falling back to def and
// capping at max.
func parseLimit(c *gin.Context, def, max int) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
