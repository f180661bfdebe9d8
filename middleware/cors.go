package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// CORSConfig holds CORS configuration. An empty or "*" origin list allows
// every origin.
type CORSConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func (cfg CORSConfig) toContrib() cors.Config {
	out := cors.Config{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodHead,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Authorization",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"X-Request-ID",
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
		},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if out.MaxAge == 0 {
		out.MaxAge = 24 * time.Hour
	}

	allowAll := len(cfg.AllowOrigins) == 0
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		out.AllowAllOrigins = true
	} else {
		out.AllowOrigins = cfg.AllowOrigins
	}
	return out
}

// CORS returns a middleware that handles CORS
func (m *middlewares) CORS() gin.HandlerFunc {
	return cors.New(m.corsConfig.toContrib())
}

// SecureConfig switches the security headers between development and
// production behaviour.
type SecureConfig struct {
	IsDevelopment bool
	SSLRedirect   bool
	STSSeconds    int64
}

type secureProcessor interface {
	Process(w http.ResponseWriter, r *http.Request) error
}

func newSecure(cfg SecureConfig) secureProcessor {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data: https:",
		SSLRedirect:           cfg.SSLRedirect,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:            cfg.STSSeconds,
		IsDevelopment:         cfg.IsDevelopment,
	})
}

// SecureHeaders sets the standard security headers and performs the SSL
// redirect when enabled.
func (m *middlewares) SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.secure.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		// a redirect was written
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
