package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. Values are typed the way the TOML
// decoder types them: int64 and float64 numbers, []any lists.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return NewConfigStoreWith(nil)
}

// NewConfigStoreWith creates a store holding a copy of values.
func NewConfigStoreWith(values map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any, len(values))}
	maps.Copy(s.values, values)
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := lookup[string](s, key)
	return v
}

func (s *ConfigStore) GetInt(key string) int {
	return int(s.number(key))
}

func (s *ConfigStore) GetFloat(key string) float64 {
	return s.number(key)
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := lookup[bool](s, key)
	return v
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	if v, ok := lookup[[]string](s, key); ok {
		return v
	}
	items, ok := lookup[[]any](s, key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op; Set already holds the value.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }

func (s *ConfigStore) number(key string) float64 {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

func lookup[T any](s *ConfigStore, key string) (T, bool) {
	val, _ := s.Get(key)
	v, ok := val.(T)
	return v, ok
}
