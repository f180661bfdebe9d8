package middleware

import (
	"fmt"
	"net/http"
	"time"

	"rbac-admin/common"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoggerConfig struct {
	// SkipPaths is an url path array which logs are not written.
	SkipPaths []string
}

// LoggingMiddleware logs one line per request. The level follows the status
// code.
func (m *middlewares) LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc {
	conf := LoggerConfig{SkipPaths: []string{"/health", "/metrics"}}
	if len(config) > 0 {
		conf = config[0]
	}

	skipPaths := make(map[string]bool, len(conf.SkipPaths))
	for _, path := range conf.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		if latency > time.Minute {
			latency = latency.Truncate(time.Second)
		}

		statusCode := c.Writer.Status()
		fields := []log.Field{
			log.String("method", c.Request.Method),
			log.String("path", path),
			log.String("route", c.FullPath()),
			log.Int("status", statusCode),
			log.Duration("latency", latency),
			log.String("client_ip", c.ClientIP()),
			log.String("user_agent", c.Request.UserAgent()),
			log.Int("response_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, log.String("errors", c.Errors.String()))
		}

		// the request context carries the request and user ids
		ctx := c.Request.Context()
		switch {
		case statusCode >= http.StatusInternalServerError:
			m.logger.ErrorContext(ctx, "HTTP Request", fields...)
		case statusCode >= http.StatusBadRequest:
			m.logger.WarnContext(ctx, "HTTP Request", fields...)
		default:
			m.logger.InfoContext(ctx, "HTTP Request", fields...)
		}
	}
}

// RequestID reuses the caller's X-Request-ID or generates one, and exposes it
// on the response, the gin context and the request context.
func (m *middlewares) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(common.RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		c.Header(common.RequestIDHeader, requestID)
		c.Set(common.RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(log.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Recovery turns a panic into a 500 response in the standard envelope.
func (m *middlewares) Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		m.logger.ErrorContext(c.Request.Context(), "Panic recovered",
			log.Any("panic", recovered),
			log.String("path", c.Request.URL.Path),
		)
		common.ResponseError(c, domain.ErrInternalServerError.WithDebug(fmt.Sprint(recovered)))
	})
}
