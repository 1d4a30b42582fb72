// Package geography reads Brazilian states and municipalities from the IBGE localities API.
package geography

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/pkg/circuitbreaker"
	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/ecoleta/ecoleta-web/pkg/httpclient"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const serviceName = "geography"

// Client is a fixed-base-URL accessor for the geography API
type Client struct {
	rest    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a geography client for baseURL
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		rest:    httpclient.NewRESTClient(baseURL, httpClient),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig(serviceName)),
	}
}

// ListStates returns every state ordered by code
func (c *Client) ListStates(ctx context.Context) ([]models.State, error) {
	var states []models.State
	if err := c.get(ctx, "listStates", "/estados", nil, &states); err != nil {
		return nil, err
	}

	sort.Slice(states, func(i, j int) bool { return states[i].Code < states[j].Code })
	return states, nil
}

// ListCities returns the municipalities of the state with code uf
func (c *Client) ListCities(ctx context.Context, uf string) ([]models.City, error) {
	uf = strings.TrimSpace(uf)
	if uf == "" {
		return nil, apperrors.InvalidInputError("uf", "state code is empty")
	}

	var cities []models.City
	err := c.get(ctx, "listCities", "/estados/{uf}/municipios", map[string]string{"uf": uf}, &cities)
	if err != nil {
		return nil, err
	}
	return cities, nil
}

func (c *Client) get(ctx context.Context, operation, path string, pathParams map[string]string, out interface{}) error {
	start := time.Now()

	resp, err := circuitbreaker.Execute(c.breaker, func() (*resty.Response, error) {
		resp, err := c.rest.R().
			SetContext(ctx).
			SetPathParams(pathParams).
			ForceContentType("application/json").
			SetResult(out).
			Get(path)
		if err != nil {
			return nil, apperrors.UpstreamError(serviceName, operation, err)
		}
		if resp.IsError() {
			return resp, apperrors.UpstreamStatusError(serviceName, operation, resp.StatusCode())
		}
		return resp, nil
	})

	fields := []zap.Field{zap.String("path", path)}
	if uf, ok := pathParams["uf"]; ok {
		fields = append(fields, zap.String("uf", uf))
	}

	if err != nil {
		duration := metrics.ObserveUpstream(serviceName, operation, "error", start)
		logger.LogAPICall(ctx, serviceName, operation, "error", duration, append(fields, zap.Error(err))...)
		return err
	}

	duration := metrics.ObserveUpstream(serviceName, operation, "success", start)
	logger.LogAPICall(ctx, serviceName, operation, "success", duration,
		append(fields, zap.Int("status_code", resp.StatusCode()))...)
	return nil
}
