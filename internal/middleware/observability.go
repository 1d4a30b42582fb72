package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// formFieldsLogged are the submission fields worth echoing on a failed request.
// Contact details stay out of the logs.
var formFieldsLogged = []string{"uf", "city", "items"}

// ObservabilityMiddleware instruments HTTP requests with metrics and logging
func ObservabilityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		metrics.ActiveRequests.WithLabelValues(method).Inc()
		defer metrics.ActiveRequests.WithLabelValues(method).Dec()

		c.Next()

		// route template, not the raw path, keeps label cardinality bounded
		// (upload tokens and state codes are path params)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		duration := metrics.MeasureDuration(start)
		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)

		metrics.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
		metrics.HTTPRequestTotal.WithLabelValues(method, path, statusStr).Inc()

		// static assets are noise at info level
		if strings.HasPrefix(c.Request.URL.Path, "/static/") && status < 400 {
			return
		}

		fields := []zap.Field{
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("response_size", c.Writer.Size()),
		}

		if status >= 400 {
			if len(c.Params) > 0 {
				params := make(map[string]string, len(c.Params))
				for _, p := range c.Params {
					params[p.Key] = p.Value
				}
				fields = append(fields, zap.Any("route_params", params))
			}

			if query := c.Request.URL.Query(); len(query) > 0 {
				params := make(map[string]string, len(query))
				for k, v := range query {
					if len(v) > 0 {
						params[k] = v[0]
					}
				}
				fields = append(fields, zap.Any("query_params", params))
			}

			if c.Request.PostForm != nil {
				form := make(map[string]string, len(formFieldsLogged))
				for _, key := range formFieldsLogged {
					if v := c.Request.PostForm[key]; len(v) > 0 {
						form[key] = strings.Join(v, ",")
					}
				}
				if len(form) > 0 {
					fields = append(fields, zap.Any("form", form))
				}
			}

			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("error", c.Errors.String()))
			}
		}

		logger.LogHTTPRequest(c.Request.Context(), method, c.Request.URL.Path, status, duration, fields...)
	}
}
