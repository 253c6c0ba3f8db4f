package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/localrag/internal/adapters/driven/config"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore.
// The file format follows the extension: .toml, or .yaml/.yml.
// Environment variables named by config.EnvName override file values.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     config.Values
	useEnv   bool
}

// Option configures a ConfigStore.
type Option func(*ConfigStore)

// WithoutEnv disables environment overrides.
func WithoutEnv() Option {
	return func(s *ConfigStore) {
		s.useEnv = false
	}
}

// DefaultPaths returns the locations tried, in order, when no
// configuration file is given.
func DefaultPaths() []string {
	paths := []string{"config_real.yaml", "config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".localrag", "config.toml"))
	}
	return paths
}

// ResolvePath returns explicit when set, otherwise the first existing
// default path, otherwise the last default path.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	paths := DefaultPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return paths[len(paths)-1]
}

// LoadDotEnv loads environment variables from the given .env files.
// Missing files are ignored and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// NewConfigStore creates a config store backed by filePath.
// If filePath is empty the path is resolved with ResolvePath.
// A missing file is not an error; the store starts empty.
func NewConfigStore(filePath string, opts ...Option) (*ConfigStore, error) {
	s := &ConfigStore{
		filePath: ResolvePath(filePath),
		data:     make(config.Values),
		useEnv:   true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !isYAML(s.filePath) && !isTOML(s.filePath) {
		return nil, fmt.Errorf("unsupported config format %q: use .toml, .yaml or .yml", filepath.Ext(s.filePath))
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isTOML(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".toml"
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Lookup(key, s.useEnv)
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	return config.String(val)
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	return config.Int(val)
}

// GetFloat retrieves a floating point configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	return config.Float(val)
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	return config.Bool(val)
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	return config.StringSlice(val)
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the file (caller must hold lock).
func (s *ConfigStore) save() error {
	var (
		data []byte
		err  error
	)
	if isYAML(s.filePath) {
		data, err = yaml.Marshal(s.data.Nest())
	} else {
		data, err = toml.Marshal(s.data.Nest())
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the file. Legacy flat keys are
// rewritten to their current names.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start empty
			s.data = make(config.Values)
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	var loaded map[string]any
	if isYAML(s.filePath) {
		err = yaml.Unmarshal(data, &loaded)
	} else {
		err = toml.Unmarshal(data, &loaded)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	values := config.Flatten(loaded, "")
	config.ApplyLegacy(values)
	s.data = values
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
