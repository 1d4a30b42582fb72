// Package registry talks to the collection-point registry API: the item catalog and point creation.
package registry

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/pkg/circuitbreaker"
	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/ecoleta/ecoleta-web/pkg/httpclient"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const serviceName = "registry"

// Client is a fixed-base-URL accessor for the registry API
type Client struct {
	rest    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a registry client for baseURL
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		rest:    httpclient.NewRESTClient(baseURL, httpClient),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig(serviceName)),
	}
}

// ListItems fetches the item catalog in registry order
func (c *Client) ListItems(ctx context.Context) ([]models.Item, error) {
	const operation = "listItems"
	start := time.Now()

	var items []models.Item
	resp, err := circuitbreaker.Execute(c.breaker, func() (*resty.Response, error) {
		resp, err := c.rest.R().
			SetContext(ctx).
			ForceContentType("application/json").
			SetResult(&items).
			Get("/items")
		if err != nil {
			return nil, apperrors.UpstreamError(serviceName, operation, err)
		}
		if resp.IsError() {
			return resp, apperrors.UpstreamStatusError(serviceName, operation, resp.StatusCode())
		}
		return resp, nil
	})

	if err != nil {
		duration := metrics.ObserveUpstream(serviceName, operation, "error", start)
		logger.LogAPICall(ctx, serviceName, operation, "error", duration, zap.Error(err))
		return nil, err
	}

	duration := metrics.ObserveUpstream(serviceName, operation, "success", start)
	logger.LogAPICall(ctx, serviceName, operation, "success", duration,
		zap.Int("status_code", resp.StatusCode()),
		zap.Int("count", len(items)),
	)

	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// SubmitPoint posts a validated submission as a multipart form. Any 2xx is success.
func (c *Client) SubmitPoint(ctx context.Context, point *models.PointSubmission) error {
	const operation = "createPoint"

	if point == nil || point.Image == nil {
		return apperrors.InvalidInputError("image", "submission has no image")
	}

	start := time.Now()

	// the breaker drops the response on failure; keep it for the error body
	var failed *resty.Response
	resp, err := circuitbreaker.Execute(c.breaker, func() (*resty.Response, error) {
		resp, err := c.rest.R().
			SetContext(ctx).
			SetMultipartFormData(FormFields(point)).
			SetMultipartField("image", imageFileName(point.Image), point.Image.ContentType, bytes.NewReader(point.Image.Data)).
			Post("/points")
		if err != nil {
			return nil, apperrors.UpstreamError(serviceName, operation, err)
		}
		if resp.IsError() {
			failed = resp
			return nil, apperrors.UpstreamStatusError(serviceName, operation, resp.StatusCode())
		}
		return resp, nil
	})

	fields := []zap.Field{
		zap.String("uf", point.UF),
		zap.String("city", point.City),
		zap.Int("items", len(point.Items)),
		zap.Int("image_bytes", len(point.Image.Data)),
	}

	if err != nil {
		duration := metrics.ObserveUpstream(serviceName, operation, "error", start)
		if failed != nil {
			fields = append(fields, zap.Int("status_code", failed.StatusCode()))
			if msg := errorMessage(failed.Body()); msg != "" {
				fields = append(fields, zap.String("upstream_message", msg))
			}
		}
		logger.LogAPICall(ctx, serviceName, operation, "error", duration, append(fields, zap.Error(err))...)
		return err
	}

	duration := metrics.ObserveUpstream(serviceName, operation, "success", start)
	logger.LogAPICall(ctx, serviceName, operation, "success", duration,
		append(fields, zap.Int("status_code", resp.StatusCode()))...)
	return nil
}

// FormFields returns the text parts of the multipart body
func FormFields(point *models.PointSubmission) map[string]string {
	return map[string]string{
		"name":      point.Name,
		"email":     point.Email,
		"whatsapp":  point.Whatsapp,
		"uf":        point.UF,
		"city":      point.City,
		"latitude":  strconv.FormatFloat(point.Position.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(point.Position.Longitude, 'f', -1, 64),
		"items":     point.Items.Join(),
	}
}

func imageFileName(img *models.ImageUpload) string {
	if img.FileName != "" {
		return img.FileName
	}
	return "image"
}

// errorMessage pulls a human-readable message out of an error body, if it has one
func errorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "error", "errors.0.message"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
