package services_test

import (
	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func validSubmission() *models.PointSubmission {
	return &models.PointSubmission{
		Name:     "Mercado Verde",
		Email:    "contato@verde.com",
		Whatsapp: "11999999999",
		UF:       "SP",
		City:     "Santos",
		Position: models.Position{Latitude: -23.96, Longitude: -46.33},
		Items:    models.NewItemSet(1, 2),
		Image:    &models.ImageUpload{FileName: "loja.png", ContentType: "image/png", Data: pngBytes},
	}
}
