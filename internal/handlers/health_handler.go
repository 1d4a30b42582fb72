package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and cache warmth
type HealthHandler struct {
	geographyReady func() bool
}

// NewHealthHandler creates a health handler; geographyReady may be nil
func NewHealthHandler(geographyReady func() bool) *HealthHandler {
	return &HealthHandler{
		geographyReady: geographyReady,
	}
}

// Healthcheck reports liveness. A cold geography cache is reported but does not fail the check:
// pages still load straight from the upstream.
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	geography := "cold"
	if h.geographyReady != nil && h.geographyReady() {
		geography = "warm"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"geography_cache": geography,
	})
}
