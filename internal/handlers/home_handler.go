package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomeHandler serves the landing page
type HomeHandler struct{}

// NewHomeHandler creates a new landing page handler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Home handles GET /
func (h *HomeHandler) Home(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.HTML(http.StatusOK, "home", nil)
}
