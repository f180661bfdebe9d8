package log

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEnvironment(t *testing.T) {
	prod := ForEnvironment("rbac-admin", "1.2.0", "production")
	assert.Equal(t, "info", prod.Level)
	assert.Equal(t, "json", prod.Format)
	assert.True(t, prod.Sampled)

	dev := ForEnvironment("rbac-admin", "1.2.0", "local")
	assert.Equal(t, "debug", dev.Level)
	assert.Equal(t, "console", dev.Format)
	assert.False(t, dev.Sampled)
}

func TestConfigValidate(t *testing.T) {
	cfg := ForEnvironment("rbac-admin", "dev", "local")
	require.NoError(t, cfg.Validate())

	cfg.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = ForEnvironment("rbac-admin", "dev", "local")
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = ForEnvironment("rbac-admin", "dev", "local")
	cfg.File = &FileConfig{Path: "app.log"}
	assert.Error(t, cfg.Validate())
}

func TestContextFields(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, 42)

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	fields := contextFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "request_id", fields[0].Key)
	assert.Equal(t, "user_id", fields[1].Key)

	assert.Empty(t, contextFields(context.Background()))
	assert.Empty(t, contextFields(ContextWithUserID(context.Background(), 0)))
}

func TestFileLoggerWritesContextFields(t *testing.T) {
	cfg := ForEnvironment("rbac-admin", "1.2.0", "production")
	cfg.File = &FileConfig{
		Path:       filepath.Join(t.TempDir(), "logs", "app.log"),
		MaxSizeMB:  1,
		MaxAgeDays: 1,
	}

	logger, err := New(cfg)
	require.NoError(t, err)
	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-9"), 7)
	logger.InfoContext(ctx, "Role created", String("name", "editor"))
	_ = logger.Sync()

	raw, err := os.ReadFile(cfg.File.Path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "Role created", entry["message"])
	assert.Equal(t, "rbac-admin", entry["service"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, float64(7), entry["user_id"])
	assert.Equal(t, "editor", entry["name"])
}

func TestDefaultLogger(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	require.NotNil(t, Default())
	SetDefault(nil)
	assert.Same(t, prev, Default())
}
