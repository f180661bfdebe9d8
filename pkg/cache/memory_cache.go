package cache

import (
	"context"
	"errors"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache implements Client with a size bounded LRU. Entries expire after
// their own ttl, never later than the configured default ttl.
type MemoryCache struct {
	lru    *expirable.LRU[string, memoryItem]
	mu     sync.Mutex
	config *Config
	logger Logger
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryCache(config *Config, logger Logger) *MemoryCache {
	return &MemoryCache{
		lru:    expirable.NewLRU[string, memoryItem](config.MaxSize, nil, config.DefaultTTL),
		config: config,
		logger: logger,
	}
}

func (m *MemoryCache) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > m.config.DefaultTTL {
		return m.config.DefaultTTL
	}
	return ttl
}

func (m *MemoryCache) lookup(key string) (memoryItem, bool) {
	item, ok := m.lru.Get(key)
	if !ok {
		return memoryItem{}, false
	}
	if time.Now().After(item.expiresAt) {
		m.lru.Remove(key)
		return memoryItem{}, false
	}
	return item, true
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	item, ok := m.lookup(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return &Error{Operation: "set", Key: key, Err: ErrInvalidTTL}
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.lru.Add(key, memoryItem{value: stored, expiresAt: time.Now().Add(m.ttl(ttl))})
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

func (m *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	for _, key := range m.lru.Keys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return &Error{Operation: "delete_pattern", Err: err}
		}
		if matched {
			m.lru.Remove(key)
		}
	}
	return nil
}

func (m *MemoryCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	expiresAt := time.Now().Add(m.ttl(ttl))
	if item, ok := m.lookup(key); ok {
		n, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, &Error{Operation: "increment", Key: key, Err: errors.New("value is not an integer")}
		}
		current = n
		expiresAt = item.expiresAt
	}

	current += delta
	m.lru.Add(key, memoryItem{
		value:     []byte(strconv.FormatInt(current, 10)),
		expiresAt: expiresAt,
	})
	return current, nil
}

func (m *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &Error{Operation: "serialize", Key: key, Err: errors.Join(ErrSerialization, err)}
	}
	return m.Set(ctx, key, data, ttl)
}

func (m *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &Error{Operation: "deserialize", Key: key, Err: errors.Join(ErrSerialization, err)}
	}
	return nil
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.lru.Purge()
	return nil
}
