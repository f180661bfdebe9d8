package log

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Field = zap.Field

// Logger is the structured logger usecases, repositories and middleware
// receive. The *Context variants add the request and user ids the HTTP
// middleware stored on ctx.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
	Sync() error
}

func String(key, value string) Field                 { return zap.String(key, value) }
func Int(key string, value int) Field                { return zap.Int(key, value) }
func Int64(key string, value int64) Field            { return zap.Int64(key, value) }
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }
func Error(err error) Field                          { return zap.Error(err) }
func Any(key string, value interface{}) Field        { return zap.Any(key, value) }

type contextKey int

const (
	requestIDKey contextKey = iota
	userIDKey
)

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithUserID tags ctx with the authenticated user.
func ContextWithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func contextFields(ctx context.Context) []Field {
	var fields []Field
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id, ok := ctx.Value(userIDKey).(uint); ok && id != 0 {
		fields = append(fields, zap.Uint("user_id", id))
	}
	return fields
}

var defaultLogger Logger = NewNopLogger()

// SetDefault replaces the logger used by code that runs before dependencies
// are injected, such as validator registration.
func SetDefault(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

func Default() Logger {
	return defaultLogger
}
