// Package prefs is a small durable key-value store for client
// preferences, kept as a TOML file.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// KeyTheme holds "light" or "dark".
const KeyTheme = "theme"

type Store struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// Open loads the preferences at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read preferences %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat preferences %s: %w", path, err)
	}
	return &Store{path: path, v: v}, nil
}

// Get returns the stored value and whether one exists.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.v.IsSet(key) {
		return "", false
	}
	return s.v.GetString(key), true
}

// Set stores value and writes the file.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir preferences dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
