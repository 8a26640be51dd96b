package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in <dir>/config.toml.
//
// Keys are dotted ("detector.model") and written as nested TOML tables;
// hand-edited files may use either form. Every Set rewrites the file
// through a temporary file so a crash never leaves it half written.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens the config in configDir, or ~/.pikia when empty.
// A missing file is an empty config.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".pikia")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(configDir, "config.toml")}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt truncates floats, so "param = 3.0" reads as 3.
func (s *ConfigStore) GetInt(key string) int {
	return int(s.GetFloat(key))
}

// GetFloat reads TOML integers and floats alike.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice skips non-string entries of a TOML array.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set stores value and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.write()
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]any)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.values = flattenMap(tree, "")
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

// write encodes the values and swaps them into place. Caller holds mu.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nestMap(s.values))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// nestMap turns {"a.b": 1} into {"a": {"b": 1}}. When a key is both a value
// and a table prefix the table wins.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, isTable := node[leaf].(map[string]any); !isTable {
			node[leaf] = value
		}
	}
	return root
}

// flattenMap turns {"a": {"b": 1}} into {"a.b": 1}.
func flattenMap(tree map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	var walk func(node map[string]any, prefix string)
	walk = func(node map[string]any, prefix string) {
		for key, value := range node {
			if prefix != "" {
				key = prefix + "." + key
			}
			if child, ok := value.(map[string]any); ok {
				walk(child, key)
				continue
			}
			flat[key] = value
		}
	}
	walk(tree, prefix)
	return flat
}
