package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tierone/deckhand/pkg/progress"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = ".deckhand.toml"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log handler.
	DefaultLogFormat = "text"

	// DefaultConcurrency is the default number of repositories refreshed at once.
	DefaultConcurrency = 4

	// DefaultDebounce is the default quiet period before a watched repository
	// is refreshed.
	DefaultDebounce = 200 * time.Millisecond
)

// Config represents the parsed and validated configuration.
type Config struct {
	General      GeneralConfig
	Watch        WatchConfig
	Operations   []Operation
	Repositories []Repository
	configPath   string // Path to the config file
}

// GeneralConfig holds general settings.
type GeneralConfig struct {
	LogLevel              string
	LogFormat             string
	Concurrency           int
	ClearPartialSelection bool
}

// WatchConfig holds settings for dh watch.
type WatchConfig struct {
	Debounce time.Duration
}

// ConfigFile represents the raw TOML structure for file I/O.
type ConfigFile struct {
	General      GeneralConfigFile `toml:"general"`
	Watch        WatchConfigFile   `toml:"watch"`
	Operations   []OperationFile   `toml:"operation,omitempty"`
	Repositories []RepositoryFile  `toml:"repository,omitempty"`
}

// GeneralConfigFile is the raw TOML structure for general settings.
type GeneralConfigFile struct {
	LogLevel              string `toml:"log_level,omitempty"`
	LogFormat             string `toml:"log_format,omitempty"`
	Concurrency           *int   `toml:"concurrency,omitempty"`
	ClearPartialSelection *bool  `toml:"clear_partial_selection,omitempty"`
}

// WatchConfigFile is the raw TOML structure for watch settings.
type WatchConfigFile struct {
	Debounce string `toml:"debounce,omitempty"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	var cf ConfigFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg, err := parseConfigFile(&cf)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for the configuration file in the current
// directory.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("config file not found: %s", configPath)
		}
		return "", err
	}

	return configPath, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config path not set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	cf := toConfigFile(c)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cf); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Path returns the path to the config file.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory relative repository paths are resolved against:
// the directory of the config file, or the working directory when the
// config was never loaded or saved.
func (c *Config) Dir() string {
	if c.configPath != "" {
		if dir, err := filepath.Abs(filepath.Dir(c.configPath)); err == nil {
			return dir
		}
	}
	cwd, _ := os.Getwd()
	return cwd
}

// GetRepository returns a repository by name.
func (c *Config) GetRepository(name string) (*Repository, bool) {
	for i := range c.Repositories {
		if c.Repositories[i].Name == name {
			return &c.Repositories[i], true
		}
	}
	return nil, false
}

// AddRepository adds a repository to the configuration.
func (c *Config) AddRepository(repo Repository) error {
	if _, exists := c.GetRepository(repo.Name); exists {
		return fmt.Errorf("repository already exists: %s", repo.Name)
	}
	c.Repositories = append(c.Repositories, repo)
	return nil
}

// RemoveRepository removes a repository from the configuration.
func (c *Config) RemoveRepository(name string) error {
	for i, repo := range c.Repositories {
		if repo.Name == name {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("repository not found: %s", name)
}

// GetRepositoriesByTag returns all repositories with the specified tag.
func (c *Config) GetRepositoriesByTag(tag string) []Repository {
	var repos []Repository
	for _, repo := range c.Repositories {
		if repo.HasTag(tag) {
			repos = append(repos, repo)
		}
	}
	return repos
}

// ResolvePath returns the absolute working tree path of a repository.
func (c *Config) ResolvePath(repo *Repository) (string, error) {
	p, err := ExpandPath(repo.GetEffectivePath())
	if err != nil {
		return "", fmt.Errorf("failed to expand path for %s: %w", repo.Name, err)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.Dir(), p)
	}
	return filepath.Clean(p), nil
}

// GetOperation returns an operation defined in the config file.
func (c *Config) GetOperation(name string) (*Operation, bool) {
	for i := range c.Operations {
		if c.Operations[i].Name == name {
			return &c.Operations[i], true
		}
	}
	return nil, false
}

// Steps returns the progress steps for an operation. Operations in the
// config file take precedence over the built-in presets.
func (c *Config) Steps(name string) ([]progress.Step, bool) {
	if op, ok := c.GetOperation(name); ok {
		return op.Steps(), true
	}
	return progress.Preset(name)
}

// OperationNames returns the names of every known operation, built-in and
// configured, sorted.
func (c *Config) OperationNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range progress.PresetNames() {
		seen[n] = true
		names = append(names, n)
	}
	for _, op := range c.Operations {
		if !seen[op.Name] {
			seen[op.Name] = true
			names = append(names, op.Name)
		}
	}
	sort.Strings(names)
	return names
}

func parseConfigFile(cf *ConfigFile) (*Config, error) {
	cfg := &Config{}

	// Parse general config
	if cf.General.LogLevel != "" {
		cfg.General.LogLevel = cf.General.LogLevel
	} else {
		cfg.General.LogLevel = DefaultLogLevel
	}

	if cf.General.LogFormat != "" {
		cfg.General.LogFormat = cf.General.LogFormat
	} else {
		cfg.General.LogFormat = DefaultLogFormat
	}

	if cf.General.Concurrency != nil {
		cfg.General.Concurrency = *cf.General.Concurrency
	} else {
		cfg.General.Concurrency = DefaultConcurrency
	}

	if cf.General.ClearPartialSelection != nil {
		cfg.General.ClearPartialSelection = *cf.General.ClearPartialSelection
	}

	// Parse watch config
	if cf.Watch.Debounce != "" {
		d, err := time.ParseDuration(cf.Watch.Debounce)
		if err != nil {
			return nil, fmt.Errorf("failed to parse debounce: %w", err)
		}
		cfg.Watch.Debounce = d
	} else {
		cfg.Watch.Debounce = DefaultDebounce
	}

	// Parse operations
	for _, of := range cf.Operations {
		op := Operation{Name: of.Name}
		for _, pf := range of.Phases {
			op.Phases = append(op.Phases, Phase(pf))
		}
		cfg.Operations = append(cfg.Operations, op)
	}

	// Parse repositories
	for _, rf := range cf.Repositories {
		cfg.Repositories = append(cfg.Repositories, Repository(rf))
	}

	return cfg, nil
}

func toConfigFile(c *Config) *ConfigFile {
	cf := &ConfigFile{}

	// General config
	cf.General.LogLevel = c.General.LogLevel
	cf.General.LogFormat = c.General.LogFormat
	cf.General.Concurrency = &c.General.Concurrency
	cf.General.ClearPartialSelection = &c.General.ClearPartialSelection

	// Watch config
	cf.Watch.Debounce = c.Watch.Debounce.String()

	// Operations
	for _, op := range c.Operations {
		of := OperationFile{Name: op.Name}
		for _, p := range op.Phases {
			of.Phases = append(of.Phases, PhaseFile(p))
		}
		cf.Operations = append(cf.Operations, of)
	}

	// Repositories
	for _, repo := range c.Repositories {
		cf.Repositories = append(cf.Repositories, RepositoryFile(repo))
	}

	return cf
}

// NewDefaultConfig creates a new configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:    DefaultLogLevel,
			LogFormat:   DefaultLogFormat,
			Concurrency: DefaultConcurrency,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}
