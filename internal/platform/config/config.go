// Package config loads navigator settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Prefix is prepended to every environment variable name.
const Prefix = "PJAXNAV_"

// Config holds everything the CLI needs to assemble a navigator.
type Config struct {
	CacheEnabled   bool          `env:"CACHE_ENABLED" envDefault:"true" yaml:"cacheEnabled"`
	IgnoreClass    string        `env:"IGNORE_CLASS" envDefault:"no-barba" yaml:"ignoreClass"`
	WrapperID      string        `env:"WRAPPER_ID" envDefault:"barba-wrapper" yaml:"wrapperId"`
	ContainerClass string        `env:"CONTAINER_CLASS" envDefault:"barba-container" yaml:"containerClass"`
	NamespaceAttr  string        `env:"NAMESPACE_ATTR" envDefault:"namespace" yaml:"namespaceAttr"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"5s" yaml:"fetchTimeout"`
	RequestHeader  string        `env:"REQUEST_HEADER" envDefault:"X-Barba" yaml:"requestHeader"`
	FrameInterval  time.Duration `env:"FRAME_INTERVAL" envDefault:"16ms" yaml:"frameInterval"`
	// Exclude holds guard expressions such as "path ^= /admin".
	Exclude []string `env:"EXCLUDE" envSeparator:";" yaml:"exclude"`

	OTelEndpoint string `env:"OTEL_ENDPOINT" yaml:"otelEndpoint"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info" yaml:"logLevel"`

	HistoryDir    string `env:"HISTORY_DIR" yaml:"historyDir"`
	HistoryFormat string `env:"HISTORY_FORMAT" envDefault:"json" yaml:"historyFormat"`

	// Addr is the dev server listen address; empty disables it.
	Addr     string `env:"ADDR" envDefault:"127.0.0.1:8088" yaml:"addr"`
	StartURL string `env:"START_URL" yaml:"startUrl"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the YAML file at path, when given, and then applies the
// environment on top of it. Defaults fill whatever neither sets.
func Load(path string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	// Environment wins over the file. Renaming the default tag keeps
	// envDefault values from overwriting what the file set.
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:              Prefix,
		DefaultValueTagName: "fileDefault",
	}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings the navigator cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.WrapperID == "" {
		errs = append(errs, errors.New("wrapper id is empty"))
	}
	if c.ContainerClass == "" {
		errs = append(errs, errors.New("container class is empty"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout %s is not positive", c.FetchTimeout))
	}
	switch c.HistoryFormat {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("history format %q: want json or yaml", c.HistoryFormat))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
