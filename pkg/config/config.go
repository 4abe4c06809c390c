package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tplengine/internal/logging"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Expression dialects.
const (
	DialectExpr   = "expr"
	DialectDjango = "django"
)

// Config is the complete engine configuration.
type Config struct {
	Templates   TemplatesConfig   `yaml:"templates"`
	Cache       CacheConfig       `yaml:"cache"`
	Redis       RedisConfig       `yaml:"redis"`
	Log         LogConfig         `yaml:"log"`
	Stages      StagesConfig      `yaml:"stages"`
	Expressions ExpressionsConfig `yaml:"expressions"`
}

// TemplatesConfig drives the resolvers.
type TemplatesConfig struct {
	Dirs      []string      `yaml:"dirs"`
	URL       string        `yaml:"url"`
	Prefix    string        `yaml:"prefix"`
	Suffix    string        `yaml:"suffix"`
	Mode      string        `yaml:"mode"`
	Cacheable bool          `yaml:"cacheable"`
	TTL       time.Duration `yaml:"ttl"`
	Patterns  []string      `yaml:"patterns"`

	// NonCacheable lists name patterns that are always reparsed.
	NonCacheable []string `yaml:"nonCacheable"`
}

// CacheConfig selects and bounds the model cache.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	MaxSize int           `yaml:"maxSize"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LogConfig configures the engine logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StagesConfig toggles the optional default stages.
type StagesConfig struct {
	TrimWhitespace bool `yaml:"trimWhitespace"`
	Sanitize       bool `yaml:"sanitize"`
}

// ExpressionsConfig selects how inline expressions are evaluated. Globals
// only apply to the django dialect.
type ExpressionsConfig struct {
	Dialect string         `yaml:"dialect"`
	Globals map[string]any `yaml:"globals"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Templates: TemplatesConfig{
			Mode:      string(template.ModeHTML),
			Cacheable: true,
		},
		Cache: CacheConfig{
			Backend: BackendMemory,
			MaxSize: 512,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			Prefix:  "tplengine:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Expressions: ExpressionsConfig{
			Dialect: DialectExpr,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown fields are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	var errs []error
	if _, err := template.ParseMode(c.Templates.Mode); err != nil {
		errs = append(errs, fmt.Errorf("templates.mode: %w", err))
	}
	if c.Templates.TTL < 0 {
		errs = append(errs, errors.New("templates.ttl must not be negative"))
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendNone, "":
	case BackendRedis:
		if c.Redis.Address == "" {
			errs = append(errs, errors.New("redis.address is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of memory, redis, none", c.Cache.Backend))
	}
	if c.Cache.MaxSize < 0 {
		errs = append(errs, errors.New("cache.maxSize must not be negative"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	switch c.Expressions.Dialect {
	case DialectExpr, DialectDjango, "":
	default:
		errs = append(errs, fmt.Errorf("expressions.dialect %q is not one of expr, django", c.Expressions.Dialect))
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		errs = append(errs, errors.New("redis.db must be between 0 and 15"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Logger builds the configured logger writing to stderr.
func (c Config) Logger() *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(c.Log.Level),
		Format: logging.ParseFormat(c.Log.Format),
	})
}
