package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// SecurityConfig represents security headers configuration
type SecurityConfig struct {
	HSTS         bool
	HSTSMaxAge   int
	FrameOptions string
	NoStore      bool
}

// DefaultSecurityConfig suits a JSON API that serves patient data.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTS:         true,
		HSTSMaxAge:   31536000,
		FrameOptions: "DENY",
		NoStore:      true,
	}
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.HSTS {
			c.Header("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", config.HSTSMaxAge))
		}
		c.Header("X-Frame-Options", config.FrameOptions)
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if config.NoStore {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}
