package middleware

import (
	"github.com/gin-gonic/gin"
)

// contentSecurityPolicy allows the Leaflet bundle from unpkg and tiles from any https host
const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' https://unpkg.com; " +
	"style-src 'self' https://unpkg.com; " +
	"img-src 'self' data: blob: https:; " +
	"connect-src 'self'; " +
	"frame-ancestors 'none'"

// SecurityHeadersMiddleware adds security headers to all HTTP responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// the registration map asks for the visitor's position
		c.Header("Permissions-Policy", "camera=(), microphone=(), geolocation=(self), interest-cohort=()")

		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Header("Content-Security-Policy", contentSecurityPolicy)

		c.Next()
	}
}
