package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ecoleta/ecoleta-web/internal/cache"
	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/internal/services"
	"github.com/ecoleta/ecoleta-web/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

var errUpstream500 = errors.New("upstream returned status 500")

type fakeRegistry struct {
	mu        sync.Mutex
	itemsErr  error
	submitErr error
	itemCalls int
	submitted []models.PointSubmission
}

func (f *fakeRegistry) ListItems(_ context.Context) ([]models.Item, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return []models.Item{
		{ID: 1, Title: "Lâmpadas", ImageURL: "http://registry/uploads/lampadas.svg"},
		{ID: 2, Title: "Pilhas e Baterias", ImageURL: "http://registry/uploads/baterias.svg"},
	}, nil
}

func (f *fakeRegistry) SubmitPoint(_ context.Context, point *models.PointSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, *point)
	return f.submitErr
}

func (f *fakeRegistry) itemLoads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls
}

func (f *fakeRegistry) submissions() []models.PointSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PointSubmission(nil), f.submitted...)
}

type fakeGeography struct {
	mu        sync.Mutex
	statesErr error
	citiesErr error
	cityCalls []string
}

func (f *fakeGeography) ListStates(_ context.Context) ([]models.State, error) {
	if f.statesErr != nil {
		return nil, f.statesErr
	}
	return []models.State{{Code: "RJ"}, {Code: "SP"}}, nil
}

func (f *fakeGeography) ListCities(_ context.Context, uf string) ([]models.City, error) {
	f.mu.Lock()
	f.cityCalls = append(f.cityCalls, uf)
	f.mu.Unlock()
	if f.citiesErr != nil {
		return nil, f.citiesErr
	}
	return []models.City{{Name: "Santos"}, {Name: "São Paulo"}}, nil
}

func (f *fakeGeography) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cityCalls...)
}

func newTestRouter(t *testing.T, registry *fakeRegistry, geography *fakeGeography) *gin.Engine {
	t.Helper()

	items := cache.NewItemCache(registry, time.Minute)
	svc := services.NewRegistrationService(items, geography, cache.NewUploadCache(time.Minute))
	mapSettings := models.MapSettings{TileURL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", Zoom: 15}

	home := NewHomeHandler()
	register := NewRegisterHandler(svc, mapSettings, 1<<20)
	uploads := NewUploadHandler(svc)
	api := NewAPIHandler(svc, 1<<20)

	router := gin.New()
	tmpl, err := web.Templates()
	require.NoError(t, err)
	router.SetHTMLTemplate(tmpl)

	router.GET("/", home.Home)
	router.GET("/register", register.Page)
	router.POST("/register", register.Submit)
	router.GET("/register/uploads/:token", uploads.Preview)

	v1 := router.Group("/api/v1")
	v1.GET("/items", api.GetItems)
	v1.GET("/states", api.GetStates)
	v1.GET("/states/:uf/cities", api.GetCities)
	v1.POST("/points", api.CreatePoint)

	return router
}

func validFields() map[string][]string {
	return map[string][]string{
		"name":      {"Mercado Verde"},
		"email":     {"contato@verde.com"},
		"whatsapp":  {"11999999999"},
		"uf":        {"SP"},
		"city":      {"Santos"},
		"latitude":  {"-23.96"},
		"longitude": {"-46.33"},
		"items":     {"1", "2"},
	}
}

// multipartRequest builds a form post; a nil image sends an empty file part like a browser does
func multipartRequest(t *testing.T, target string, fields map[string][]string, image []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, writer.WriteField(key, v))
		}
	}

	filename := ""
	if image != nil {
		filename = "loja.png"
	}
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
