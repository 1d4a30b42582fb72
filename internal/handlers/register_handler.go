package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/internal/services"
	"github.com/gin-gonic/gin"
)

// SuccessMessage is shown in the overlay after a point is registered
const SuccessMessage = "Cadastro concluído!"

// RedirectDelay is how long the overlay stays up before going back home
const RedirectDelay = 2 * time.Second

// RegisterHandler serves the registration page
type RegisterHandler struct {
	service       services.RegistrationServiceInterface
	mapSettings   models.MapSettings
	maxImageBytes int64
}

// NewRegisterHandler creates a new registration page handler
func NewRegisterHandler(service services.RegistrationServiceInterface, mapSettings models.MapSettings, maxImageBytes int64) *RegisterHandler {
	return &RegisterHandler{
		service:       service,
		mapSettings:   mapSettings,
		maxImageBytes: maxImageBytes,
	}
}

// Page handles GET /register. An optional uf query also loads that state's cities.
// The no-script city reload submits the whole form as a query, so whatever else it
// carries is echoed back into the form.
func (h *RegisterHandler) Page(c *gin.Context) {
	page := h.service.LoadRegisterPage(c.Request.Context(), c.Query("uf"))
	page.Map = h.mapSettings

	page.Values.Name = c.Query("name")
	page.Values.Email = strings.TrimSpace(c.Query("email"))
	page.Values.Whatsapp = strings.TrimSpace(c.Query("whatsapp"))
	page.Values.City = c.Query("city")
	page.Position = models.Position{
		Latitude:  parseCoord(c.Query("latitude")),
		Longitude: parseCoord(c.Query("longitude")),
	}
	page.SelectedItems = parseItems(c.QueryArray("items"))
	page.ImageToken = strings.TrimSpace(c.Query("image_token"))

	h.render(c, http.StatusOK, page)
}

// Submit handles POST /register
func (h *RegisterHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := bindPointForm(c, h.maxImageBytes)
	if err != nil {
		attachError(c, err)
		page := h.service.ReloadRegisterPage(ctx, "")
		page.Map = h.mapSettings
		page.Notify(models.ErrorNotification(services.MsgSubmitFailed))
		h.render(c, bindStatus(err), page)
		return
	}

	token, err := h.service.SubmitPoint(ctx, form.Point, form.StagedToken)
	if err == nil {
		page := models.NewRegisterPage()
		page.Map = h.mapSettings
		page.ShowOverlay = true
		page.RedirectTo = "/"
		page.RedirectAfter = int(RedirectDelay / time.Second)
		c.Header("Refresh", fmt.Sprintf("%d; url=%s", page.RedirectAfter, page.RedirectTo))
		h.render(c, http.StatusOK, page)
		return
	}

	attachError(c, err)

	page := h.service.ReloadRegisterPage(ctx, form.Values.UF)
	page.Map = h.mapSettings
	page.Values = form.Values
	page.Position = form.Point.Position
	page.SelectedItems = form.Point.Items
	page.ImageToken = token

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		page.Errors = verr.Fields
		h.render(c, http.StatusUnprocessableEntity, page)
		return
	}

	page.Notify(models.ErrorNotification(services.MsgSubmitFailed))
	h.render(c, http.StatusBadGateway, page)
}

func (h *RegisterHandler) render(c *gin.Context, status int, page *models.RegisterPage) {
	c.Header("Cache-Control", "no-store")
	c.HTML(status, "register", page)
}
