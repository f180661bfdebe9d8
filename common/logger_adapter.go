package common

import (
	"fmt"
	"rbac-admin/pkg/log"
)

// Logger is the key/value logger used by packages that do not depend on
// pkg/log, e.g. pkg/cache.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// LoggerAdapter adapts pkg/log.Logger to common.Logger interface
type LoggerAdapter struct {
	logger log.Logger
}

func NewLoggerAdapter(logger log.Logger) *LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

// toFields pairs up alternating keys and values, a trailing key is dropped.
func toFields(kv []interface{}) []log.Field {
	fields := make([]log.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, log.Any(fmt.Sprintf("%v", kv[i]), kv[i+1]))
	}
	return fields
}

func (a *LoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, toFields(fields)...)
}

func (a *LoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, toFields(fields)...)
}

func (a *LoggerAdapter) Debug(msg string, fields ...interface{}) {
	a.logger.Debug(msg, toFields(fields)...)
}

func (a *LoggerAdapter) Warn(msg string, fields ...interface{}) {
	a.logger.Warn(msg, toFields(fields)...)
}
