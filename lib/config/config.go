// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/fetch"
	"github.com/bureau-foundation/webstart/lib/trust"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "WEBSTART_CONFIG"

// Config is the launcher configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths    PathsConfig    `yaml:"paths"`
	Security SecurityConfig `yaml:"security"`
	Fetch    FetchConfig    `yaml:"fetch"`

	// Runtime overrides the detected OS, architecture, or locale.
	// Empty fields keep the detected value.
	Runtime RuntimeConfig `yaml:"runtime"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths    *PathsConfig    `yaml:"paths,omitempty"`
	Security *SecurityConfig `yaml:"security,omitempty"`
	Fetch    *FetchConfig    `yaml:"fetch,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for launcher data.
	Root string `yaml:"root"`

	// Cache holds downloaded resource archives.
	Cache string `yaml:"cache"`
}

// SecurityConfig configures the trust policy.
type SecurityConfig struct {
	// Level is one of DENY_ALL, DENY_UNSIGNED, ASK_UNSIGNED,
	// ALLOW_UNSIGNED (or the legacy VERY_HIGH, HIGH, MEDIUM).
	// Default: ASK_UNSIGNED (development), DENY_UNSIGNED (production)
	Level string `yaml:"level"`

	// AskTimeout bounds how long a trust prompt waits for an answer.
	// Empty or "0" waits indefinitely.
	AskTimeout string `yaml:"ask_timeout"`
}

// FetchConfig configures resource downloads and the local cache.
type FetchConfig struct {
	// Timeout bounds each resource download.
	// Default: 60s
	Timeout string `yaml:"timeout"`

	// MaxResourceSize is the largest archive accepted, in bytes.
	// Zero is unbounded.
	MaxResourceSize int64 `yaml:"max_resource_size"`

	// Compression is how cache entries are stored: none, lz4, zstd.
	Compression string `yaml:"compression"`

	// AllowInsecureHTTP permits plain http to non-loopback hosts.
	// Default: false; production forces false unless its override
	// block sets it.
	AllowInsecureHTTP *bool `yaml:"allow_insecure_http,omitempty"`

	// BaseURL is used as the codebase for descriptors that declare
	// none.
	BaseURL string `yaml:"base_url"`
}

// RuntimeConfig overrides runtime detection.
type RuntimeConfig struct {
	OS     string `yaml:"os"`
	Arch   string `yaml:"arch"`
	Locale string `yaml:"locale"`
}

// Default returns the default configuration. The defaults give every
// field a sensible value; they are not a substitute for the config
// file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "webstart")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:  defaultRoot,
			Cache: filepath.Join(defaultRoot, "resources"),
		},
		Security: SecurityConfig{
			Level: trust.Default().String(),
		},
		Fetch: FetchConfig{
			Timeout:         "60s",
			MaxResourceSize: 256 << 20,
			Compression:     "zstd",
		},
	}
}

// Load loads configuration from the file named by WEBSTART_CONFIG.
// There is no fallback when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your webstart.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// matching environment overrides, and expands path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{}
		}
		// Production is never looser than DENY_UNSIGNED or plain
		// http unless its own block says so.
		if overrides.Security == nil || overrides.Security.Level == "" {
			if current, err := trust.ParseLevel(c.Security.Level); err != nil || !current.MoreRestrictive(trust.DenyUnsigned) {
				c.Security.Level = trust.DenyUnsigned.String()
			}
		}
		if overrides.Fetch == nil || overrides.Fetch.AllowInsecureHTTP == nil {
			disallowed := false
			c.Fetch.AllowInsecureHTTP = &disallowed
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Cache != "" {
			c.Paths.Cache = overrides.Paths.Cache
		}
	}

	if overrides.Security != nil {
		if overrides.Security.Level != "" {
			c.Security.Level = overrides.Security.Level
		}
		if overrides.Security.AskTimeout != "" {
			c.Security.AskTimeout = overrides.Security.AskTimeout
		}
	}

	if overrides.Fetch != nil {
		if overrides.Fetch.Timeout != "" {
			c.Fetch.Timeout = overrides.Fetch.Timeout
		}
		if overrides.Fetch.MaxResourceSize != 0 {
			c.Fetch.MaxResourceSize = overrides.Fetch.MaxResourceSize
		}
		if overrides.Fetch.Compression != "" {
			c.Fetch.Compression = overrides.Fetch.Compression
		}
		if overrides.Fetch.AllowInsecureHTTP != nil {
			c.Fetch.AllowInsecureHTTP = overrides.Fetch.AllowInsecureHTTP
		}
		if overrides.Fetch.BaseURL != "" {
			c.Fetch.BaseURL = overrides.Fetch.BaseURL
		}
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"WEBSTART_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["WEBSTART_ROOT"] = c.Paths.Root
	c.Paths.Cache = expandVars(c.Paths.Cache, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.Root == "" {
		errs = append(errs, errors.New("paths.root is required"))
	}
	if c.Paths.Cache == "" {
		errs = append(errs, errors.New("paths.cache is required"))
	}
	if _, err := c.SecurityLevel(); err != nil {
		errs = append(errs, fmt.Errorf("security.level: %w", err))
	}
	if _, err := c.AskTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("security.ask_timeout: %w", err))
	}
	if _, err := c.FetchTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("fetch.timeout: %w", err))
	}
	if c.Fetch.MaxResourceSize < 0 {
		errs = append(errs, errors.New("fetch.max_resource_size must not be negative"))
	}
	if _, err := c.CacheCompression(); err != nil {
		errs = append(errs, fmt.Errorf("fetch.compression: %w", err))
	}
	if c.Fetch.BaseURL != "" {
		if parsed, err := url.Parse(c.Fetch.BaseURL); err != nil || !parsed.IsAbs() {
			errs = append(errs, fmt.Errorf("fetch.base_url must be an absolute URL, got %q", c.Fetch.BaseURL))
		}
	}

	return errors.Join(errs...)
}

// SecurityLevel parses Security.Level.
func (c *Config) SecurityLevel() (trust.Level, error) {
	return trust.ParseLevel(c.Security.Level)
}

// AskTimeout parses Security.AskTimeout. Empty is zero.
func (c *Config) AskTimeout() (time.Duration, error) {
	return parseDuration(c.Security.AskTimeout)
}

// FetchTimeout parses Fetch.Timeout. Empty is zero.
func (c *Config) FetchTimeout() (time.Duration, error) {
	return parseDuration(c.Fetch.Timeout)
}

// CacheCompression parses Fetch.Compression.
func (c *Config) CacheCompression() (fetch.Compression, error) {
	return fetch.ParseCompression(c.Fetch.Compression)
}

// InsecureHTTPAllowed reports whether plain http to non-loopback hosts
// is permitted.
func (c *Config) InsecureHTTPAllowed() bool {
	return c.Fetch.AllowInsecureHTTP != nil && *c.Fetch.AllowInsecureHTTP
}

// ApplyRuntime returns detected with the configured overrides applied.
func (c *Config) ApplyRuntime(detected bundle.Runtime) bundle.Runtime {
	return detected.WithOverrides(bundle.Runtime{
		OS:     c.Runtime.OS,
		Arch:   c.Runtime.Arch,
		Locale: c.Runtime.Locale,
	})
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.Cache} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" || value == "0" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %s", value)
	}
	return duration, nil
}
