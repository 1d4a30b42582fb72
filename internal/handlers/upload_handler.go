package handlers

import (
	"net/http"
	"strings"

	"github.com/ecoleta/ecoleta-web/internal/services"
	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/gin-gonic/gin"
)

// UploadHandler serves previews of images staged by failed submissions
type UploadHandler struct {
	service services.RegistrationServiceInterface
}

// NewUploadHandler creates a new staged upload handler
func NewUploadHandler(service services.RegistrationServiceInterface) *UploadHandler {
	return &UploadHandler{service: service}
}

// Preview handles GET /register/uploads/:token
func (h *UploadHandler) Preview(c *gin.Context) {
	img, err := h.service.StagedImage(c.Request.Context(), c.Param("token"))
	if err != nil {
		attachError(c, err)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	contentType := img.ContentType
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "application/octet-stream"
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, img.Data)
}
