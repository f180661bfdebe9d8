package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Provider string

const (
	Redis  Provider = "redis"
	Memory Provider = "memory"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrInvalidTTL    = errors.New("invalid TTL")
	ErrSerialization = errors.New("serialization failed")
)

type Error struct {
	Operation string
	Key       string
	Err       error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s operation failed for key '%s': %v", e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s operation failed: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern such as "access:*".
	DeletePattern(ctx context.Context, pattern string) error

	// Increment adds delta to the integer stored at key. The ttl is applied
	// when the key is created.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	// Connection settings
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`

	// Pool settings
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	PoolTimeout  time.Duration `json:"pool_timeout" yaml:"pool_timeout"`

	// Operation settings
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`

	// Memory cache settings
	MaxSize int `json:"max_size" yaml:"max_size"`
}

// NewClient creates a cache client for provider, filling unset config values
// with defaults.
func NewClient(provider Provider, config *Config, logger Logger) (Client, error) {
	switch provider {
	case Redis:
		setRedisDefaults(config)
		client, err := NewRedisCache(config, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis cache: %w", err)
		}
		logger.Info("Redis cache created successfully",
			"host", config.Host,
			"port", config.Port,
			"db", config.DB,
			"pool_size", config.PoolSize,
			"default_ttl", config.DefaultTTL.String(),
		)
		return client, nil
	case Memory:
		setMemoryDefaults(config)
		client := NewMemoryCache(config, logger)
		logger.Info("Memory cache created successfully",
			"max_size", config.MaxSize,
			"default_ttl", config.DefaultTTL.String(),
		)
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", provider)
	}
}

func setRedisDefaults(config *Config) {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 6379
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.MinIdleConns == 0 {
		config.MinIdleConns = 2
	}
	if config.PoolTimeout == 0 {
		config.PoolTimeout = 4 * time.Second
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 3 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 3 * time.Second
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 1 * time.Hour
	}
}

func setMemoryDefaults(config *Config) {
	if config.MaxSize == 0 {
		config.MaxSize = 1000
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 5 * time.Minute
	}
}
