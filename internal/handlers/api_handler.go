package handlers

import (
	"errors"
	"net/http"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/internal/services"
	"github.com/gin-gonic/gin"
)

// APIHandler exposes the registration flow as JSON for scripts and external clients
type APIHandler struct {
	service       services.RegistrationServiceInterface
	maxImageBytes int64
}

// NewAPIHandler creates a new JSON API handler
func NewAPIHandler(service services.RegistrationServiceInterface, maxImageBytes int64) *APIHandler {
	return &APIHandler{service: service, maxImageBytes: maxImageBytes}
}

// GetItems handles GET /api/v1/items
func (h *APIHandler) GetItems(c *gin.Context) {
	items, err := h.service.LoadItems(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusBadGateway, services.MsgLoadItemsFailed, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetStates handles GET /api/v1/states
func (h *APIHandler) GetStates(c *gin.Context) {
	states, err := h.service.LoadStates(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusBadGateway, services.MsgLoadStatesFailed, err)
		return
	}
	c.JSON(http.StatusOK, states)
}

// GetCities handles GET /api/v1/states/:uf/cities
func (h *APIHandler) GetCities(c *gin.Context) {
	cities, err := h.service.LoadCities(c.Request.Context(), c.Param("uf"))
	if err != nil {
		respondError(c, http.StatusBadGateway, services.MsgLoadCitiesFailed, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

// CreatePoint handles POST /api/v1/points
func (h *APIHandler) CreatePoint(c *gin.Context) {
	form, err := bindPointForm(c, h.maxImageBytes)
	if err != nil {
		respondError(c, bindStatus(err), "Invalid request", err)
		return
	}

	token, err := h.service.SubmitPoint(c.Request.Context(), form.Point, form.StagedToken)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			attachError(c, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":       "Validation failed",
				"details":     verr.Fields,
				"image_token": token,
			})
			return
		}
		respondErrorWithDetails(c, http.StatusBadGateway, services.MsgSubmitFailed, gin.H{"image_token": token}, err)
		return
	}

	c.JSON(http.StatusCreated, models.SubmitPointResponse{
		Success:         true,
		Message:         SuccessMessage,
		Redirect:        "/",
		RedirectAfterMs: int(RedirectDelay.Milliseconds()),
	})
}
