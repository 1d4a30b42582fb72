package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/internal/services"
	"github.com/gin-gonic/gin"
)

var errImageTooLarge = errors.New("image exceeds the upload limit")

// pointForm is one bound submission plus what is needed to re-render it
type pointForm struct {
	Point       *models.PointSubmission
	Values      models.FormValues
	StagedToken string
}

// bindPointForm reads the multipart registration form. Malformed numbers and item ids
// are not binding errors: they fall through to validation as missing values.
func bindPointForm(c *gin.Context, maxImageBytes int64) (*pointForm, error) {
	if _, err := c.MultipartForm(); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	values := models.FormValues{
		Name:     c.PostForm("name"),
		Email:    strings.TrimSpace(c.PostForm("email")),
		Whatsapp: strings.TrimSpace(c.PostForm("whatsapp")),
		UF:       strings.TrimSpace(c.PostForm("uf")),
		City:     c.PostForm("city"),
	}

	point := &models.PointSubmission{
		Name:     values.Name,
		Email:    values.Email,
		Whatsapp: values.Whatsapp,
		UF:       values.UF,
		City:     values.City,
		Position: models.Position{
			Latitude:  parseCoord(c.PostForm("latitude")),
			Longitude: parseCoord(c.PostForm("longitude")),
		},
		Items: parseItems(c.PostFormArray("items")),
	}

	img, err := readImage(c, "image", maxImageBytes)
	if err != nil {
		return nil, err
	}
	point.Image = img

	return &pointForm{
		Point:       point,
		Values:      values,
		StagedToken: strings.TrimSpace(c.PostForm("image_token")),
	}, nil
}

func parseCoord(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseItems accepts repeated checkbox values as well as a single comma-joined value
func parseItems(raw []string) models.ItemSet {
	set := models.NewItemSet()
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			set[id] = struct{}{}
		}
	}
	return set
}

// readImage returns nil when no file was chosen; browsers send an empty part in that case
func readImage(c *gin.Context, field string, maxBytes int64) (*models.ImageUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if header.Size == 0 && header.Filename == "" {
		return nil, nil
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, errImageTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &models.ImageUpload{
		FileName:    header.Filename,
		ContentType: services.DetectContentType(data),
		Data:        data,
	}, nil
}
