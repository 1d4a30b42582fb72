package httpclient

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every upstream call when no timeout is configured
const DefaultTimeout = 30 * time.Second

// NewStandardClient creates an HTTP client whose transport propagates and records traces
func NewStandardClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewRESTClient creates a resty client pinned to a fixed base URL.
// Retries are off: callers surface failures to the user instead.
func NewRESTClient(baseURL string, httpClient *http.Client) *resty.Client {
	if httpClient == nil {
		httpClient = NewStandardClient(DefaultTimeout)
	}
	return resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "ecoleta-web").
		SetRetryCount(0)
}
