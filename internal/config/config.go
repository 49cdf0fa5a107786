// Package config loads application configuration from defaults, an optional
// YAML file, LANGDRILL_ environment variables and command-line flags, in
// increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
)

const envPrefix = "LANGDRILL_"

// Config holds all configuration for the application.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Content   ContentConfig   `koanf:"content"`
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	Timezone  string          `koanf:"timezone" validate:"required,timezone"`
	Defaults  DefaultsConfig  `koanf:"defaults"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// ContentConfig locates deck content. Repos are cloned under ReposDir unless
// they name their own path.
type ContentConfig struct {
	Dir      string       `koanf:"dir" validate:"required"`
	ReposDir string       `koanf:"repos_dir" validate:"required"`
	Repos    []RepoConfig `koanf:"repos" validate:"dive"`
}

type RepoConfig struct {
	URL  string `koanf:"url" validate:"required"`
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

type DefaultsConfig struct {
	NewCardsPerDay int `koanf:"new_cards_per_day" validate:"gte=0,lte=9999"`
}

type SchedulerConfig struct {
	DesiredRetention float64 `koanf:"desired_retention" validate:"gt=0,lt=1"`
	MaximumInterval  int     `koanf:"maximum_interval" validate:"gte=1"`
}

// defaults are applied before any other source.
var defaults = map[string]any{
	"database.path":               "langdrill.db",
	"content.dir":                 "content",
	"content.repos_dir":           "repos",
	"log.level":                   "info",
	"log.format":                  "json",
	"server.addr":                 ":8080",
	"timezone":                    "UTC",
	"defaults.new_cards_per_day":  20,
	"scheduler.desired_retention": 0.9,
	"scheduler.maximum_interval":  36500,
}

// RegisterFlags adds the configuration flags to fs. Flag names are the
// configuration keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to a YAML configuration file")
	fs.String("database.path", "langdrill.db", "path to the SQLite database file")
	fs.String("content.dir", "content", "directory holding one sub-directory per deck")
	fs.String("log.level", "info", "log level")
	fs.String("log.format", "json", "log format: json or text")
	fs.String("server.addr", ":8080", "address the API listens on")
	fs.String("timezone", "UTC", "IANA time zone that defines the study day")
}

// Load builds the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("error setting default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithValue(flags, ".", k, flagValue), nil); err != nil {
			return nil, fmt.Errorf("error reading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envValue maps LANGDRILL_SCHEDULER__MAXIMUM_INTERVAL to
// scheduler.maximum_interval.
func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.ReplaceAll(key, "__", "."), value
}

func flagValue(key, value string) (string, any) {
	if key == "config" {
		return "", nil
	}
	return key, value
}

// Location returns the time zone of the study day.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SchedulerParams returns the per-card scheduler parameters.
func (c *Config) SchedulerParams() *fsrs.Params {
	p := fsrs.DefaultParams()
	p.DesiredRetention = c.Scheduler.DesiredRetention
	p.MaximumInterval = c.Scheduler.MaximumInterval
	return p
}

// DefaultSettings returns the settings used for decks never configured.
func (c *Config) DefaultSettings() domain.Settings {
	return domain.Settings{NewCardsPerDay: c.Defaults.NewCardsPerDay}
}
