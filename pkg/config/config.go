// Package config handles configuration for seltest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/seltest-dev/seltest/pkg/core"
)

// Default browser settings.
const (
	DefaultWindowWidth  = 1400
	DefaultWindowHeight = 800
	DefaultTimeoutMs    = 10000
)

// Config represents the workspace configuration (seltest.yaml or seltest.toml).
type Config struct {
	// Test selection
	Tests       string   `yaml:"tests" toml:"tests"`             // Tests root directory
	IncludeTags []string `yaml:"includeTags" toml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags" toml:"excludeTags"` // Tags to exclude

	// Named suites: suite name → qualified-name patterns
	Suites map[string][]string `yaml:"suites" toml:"suites" validate:"dive,keys,required,endkeys,min=1,dive,required"`

	// Execution settings
	Env     map[string]string `yaml:"env" toml:"env"`
	BaseURL string            `yaml:"baseUrl" toml:"baseUrl" validate:"omitempty,url"`
	Browser Browser           `yaml:"browser" toml:"browser"`

	// Output
	Output        string `yaml:"output" toml:"output"`
	FailedOnlyLog *bool  `yaml:"failedOnlyLog" toml:"failedOnlyLog"` // Write ResultsLogFail.html (default true)
	Allure        bool   `yaml:"allure" toml:"allure"`
}

// Browser holds the browser launch settings.
type Browser struct {
	Headless     bool   `yaml:"headless" toml:"headless"`
	WindowWidth  int    `yaml:"windowWidth" toml:"windowWidth" validate:"gte=0,lte=10000"`
	WindowHeight int    `yaml:"windowHeight" toml:"windowHeight" validate:"gte=0,lte=10000"`
	ExecPath     string `yaml:"execPath" toml:"execPath"`
	TimeoutMs    int    `yaml:"timeoutMs" toml:"timeoutMs" validate:"gte=0"`
}

// WantFailedOnlyLog reports whether the failed-only results log is written.
func (c *Config) WantFailedOnlyLog() bool {
	return c.FailedOnlyLog == nil || *c.FailedOnlyLog
}

// ApplyDefaults fills unset browser settings.
func (c *Config) ApplyDefaults() {
	if c.Browser.WindowWidth == 0 {
		c.Browser.WindowWidth = DefaultWindowWidth
	}
	if c.Browser.WindowHeight == 0 {
		c.Browser.WindowHeight = DefaultWindowHeight
	}
	if c.Browser.TimeoutMs == 0 {
		c.Browser.TimeoutMs = DefaultTimeoutMs
	}
}

// Validate checks the struct constraints. A missing value yields
// core.ErrMissingRequired, any other violation core.ErrInvalidConfig.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				return core.ErrMissingRequired.WithCause(err)
			}
		}
	}
	return core.ErrInvalidConfig.WithCause(err)
}

// Load loads configuration from a file. The format follows the extension:
// .toml is TOML, anything else YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FileNames lists the config file names looked up by LoadFromDir, in order.
var FileNames = []string{"seltest.yaml", "seltest.yml", "seltest.toml"}

// LoadFromDir looks for a config file in the directory. A missing file
// yields the default configuration.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range FileNames {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg, nil
}
