// Package config loads the client configuration.
//
// Settings come from a YAML file, then from LDN_* environment variables
// (a .env file in the working directory is loaded first), and are
// validated before use. Every setting has a default, so a missing file is
// not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails
// validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LDN_"

// Config holds all configuration settings.
type Config struct {
	// WebID is the user's WebID; it names the actor of sent notifications.
	WebID string `yaml:"webid" validate:"omitempty,url"`

	// Inbox is the default inbox. When empty the inbox advertised by the
	// WebID profile is used.
	Inbox string `yaml:"inbox" validate:"omitempty,url"`

	// StateDir holds the persisted UI state.
	StateDir string `yaml:"state_dir" validate:"required"`

	Log    LogConfig    `yaml:"log"`
	HTTP   HTTPConfig   `yaml:"http"`
	Loader LoaderConfig `yaml:"loader"`
	Watch  WatchConfig  `yaml:"watch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// HTTPConfig configures the Solid HTTP client.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	AuthToken string        `yaml:"auth_token"`
	RateLimit float64       `yaml:"rate_limit" validate:"gte=0"`
	Burst     int           `yaml:"burst" validate:"gte=1"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker of the HTTP client.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures" validate:"gte=1"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoaderConfig configures inbox loading.
type LoaderConfig struct {
	Concurrency int `yaml:"concurrency" validate:"gte=1,lte=64"`
}

// WatchConfig configures live updates.
type WatchConfig struct {
	// URL overrides the websocket endpoint derived from the inbox URL.
	URL       string        `yaml:"url" validate:"omitempty,url"`
	KeepAlive time.Duration `yaml:"keepalive"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		StateDir: defaultStateDir(),
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "ldn/1.0",
			RateLimit: 20,
			Burst:     10,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
			},
		},
		Loader: LoaderConfig{Concurrency: 8},
		Watch:  WatchConfig{KeepAlive: 20 * time.Second},
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ldn.yaml"
	}
	return filepath.Join(dir, "ldn", "config.yaml")
}

func defaultStateDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".ldn"
	}
	return filepath.Join(dir, "ldn", "state")
}

// Load reads the configuration file at path, applies .env and LDN_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides cfg with LDN_* variables.
func applyEnv(cfg *Config, getenv func(string) string) error {
	env := func(name string) string {
		return strings.TrimSpace(getenv(EnvPrefix + name))
	}

	setString := func(name string, dst *string) {
		if v := env(name); v != "" {
			*dst = v
		}
	}
	setString("WEBID", &cfg.WebID)
	setString("INBOX", &cfg.Inbox)
	setString("STATE_DIR", &cfg.StateDir)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)
	setString("HTTP_USER_AGENT", &cfg.HTTP.UserAgent)
	setString("AUTH_TOKEN", &cfg.HTTP.AuthToken)
	setString("WATCH_URL", &cfg.Watch.URL)

	var errs []error
	setDuration := func(name string, dst *time.Duration) {
		if v := env(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	setDuration("HTTP_TIMEOUT", &cfg.HTTP.Timeout)
	setDuration("BREAKER_TIMEOUT", &cfg.HTTP.Breaker.Timeout)
	setDuration("WATCH_KEEPALIVE", &cfg.Watch.KeepAlive)

	setInt := func(name string, dst *int) {
		if v := env(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setInt("HTTP_BURST", &cfg.HTTP.Burst)
	setInt("LOADER_CONCURRENCY", &cfg.Loader.Concurrency)

	if v := env("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sHTTP_RATE_LIMIT: %w", EnvPrefix, err))
		} else {
			cfg.HTTP.RateLimit = f
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, formatValidationError(err))
	}

	var problems []string
	for name, d := range map[string]time.Duration{
		"http.timeout":         c.HTTP.Timeout,
		"http.breaker.timeout": c.HTTP.Breaker.Timeout,
		"watch.keepalive":      c.Watch.KeepAlive,
	} {
		if d <= 0 {
			problems = append(problems, name+" must be positive")
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	var msgs []string
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return strings.Join(msgs, "; ")
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be an absolute URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

