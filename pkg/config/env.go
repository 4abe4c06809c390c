package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable read by ApplyEnv.
const EnvPrefix = "TPLENGINE_"

// LookupFunc reads one variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv loads the given .env files (".env" when none are named, missing
// files are ignored) and applies the environment over the defaults.
func FromEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return ApplyEnv(Default(), os.LookupEnv)
}

// ApplyEnv overrides cfg with the TPLENGINE_* variables lookup reports.
func ApplyEnv(cfg Config, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := envReader{lookup: lookup}

	env.list("TEMPLATE_DIRS", &cfg.Templates.Dirs)
	env.str("TEMPLATE_URL", &cfg.Templates.URL)
	env.str("PREFIX", &cfg.Templates.Prefix)
	env.str("SUFFIX", &cfg.Templates.Suffix)
	env.str("MODE", &cfg.Templates.Mode)
	env.boolean("CACHEABLE", &cfg.Templates.Cacheable)
	env.duration("TEMPLATE_TTL", &cfg.Templates.TTL)
	env.list("PATTERNS", &cfg.Templates.Patterns)
	env.list("NON_CACHEABLE", &cfg.Templates.NonCacheable)

	env.str("CACHE_BACKEND", &cfg.Cache.Backend)
	env.integer("CACHE_SIZE", &cfg.Cache.MaxSize)
	env.duration("CACHE_TTL", &cfg.Cache.TTL)

	env.str("REDIS_ADDRESS", &cfg.Redis.Address)
	env.str("REDIS_PASSWORD", &cfg.Redis.Password)
	env.integer("REDIS_DB", &cfg.Redis.DB)
	env.str("REDIS_PREFIX", &cfg.Redis.Prefix)

	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.str("LOG_FORMAT", &cfg.Log.Format)

	env.boolean("TRIM_WHITESPACE", &cfg.Stages.TrimWhitespace)
	env.boolean("SANITIZE", &cfg.Stages.Sanitize)

	env.str("EXPRESSION_DIALECT", &cfg.Expressions.Dialect)

	if len(env.errs) > 0 {
		return Config{}, fmt.Errorf("config: environment: %w", errors.Join(env.errs...))
	}
	return cfg, nil
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (r *envReader) get(name string) (string, bool) {
	value, ok := r.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func (r *envReader) str(name string, target *string) {
	if value, ok := r.get(name); ok {
		*target = value
	}
}

func (r *envReader) list(name string, target *[]string) {
	value, ok := r.get(name)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*target = items
}

func (r *envReader) boolean(name string, target *bool) {
	value, ok := r.get(name)
	if !ok || value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*target = parsed
}

func (r *envReader) integer(name string, target *int) {
	value, ok := r.get(name)
	if !ok || value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*target = parsed
}

func (r *envReader) duration(name string, target *time.Duration) {
	value, ok := r.get(name)
	if !ok || value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*target = parsed
}
