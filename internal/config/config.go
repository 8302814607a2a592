// Package config loads stressoscope settings from defaults, an optional YAML
// file and STRESSOSCOPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"stressoscope/internal/llm"
)

const (
	// EnvPrefix prefixes every environment override, e.g. STRESSOSCOPE_LLM_MODEL.
	EnvPrefix = "STRESSOSCOPE"
	// FileName is the config file searched for when no explicit path is given.
	FileName = "stressoscope"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type LLMConfig struct {
	Provider         string        `mapstructure:"provider"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Model            string        `mapstructure:"model"`
	Temperature      float64       `mapstructure:"temperature"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
}

type AnalysisConfig struct {
	RepairJSON bool `mapstructure:"repair_json"`
	CacheSize  int  `mapstructure:"cache_size"`
}

// Session storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type SessionsConfig struct {
	Capacity int    `mapstructure:"capacity"`
	Backend  string `mapstructure:"backend"`
	// SQLitePath is used by the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path"`
	// Retention drops persisted sessions untouched for longer. Zero keeps them.
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// envAliases lists extra variables consulted for a key, after the prefixed one.
var envAliases = map[string][]string{
	"llm.api_key": {"GROQ_API_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", int64(1<<20))

	v.SetDefault("llm.provider", llm.ProviderGroq)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.max_response_bytes", int64(llm.DefaultMaxResponseBytes))

	v.SetDefault("analysis.repair_json", false)
	v.SetDefault("analysis.cache_size", 256)

	v.SetDefault("sessions.capacity", 1024)
	v.SetDefault("sessions.backend", BackendMemory)
	v.SetDefault("sessions.sqlite_path", "stressoscope.db")
	v.SetDefault("sessions.retention", 30*24*time.Hour)
	v.SetDefault("sessions.prune_interval", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load resolves configuration. When path is empty, stressoscope.yaml is
// searched for in the working directory and $HOME/.config/stressoscope; a
// missing file is not an error. An explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/stressoscope")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that viper cannot express.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	switch strings.ToLower(strings.TrimSpace(c.LLM.Provider)) {
	case "", llm.ProviderGroq, llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderMock, llm.ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of groq, openai, gemini, mock, none", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %.2f out of range [0,2]", c.LLM.Temperature))
	}
	if c.Analysis.CacheSize < 0 {
		errs = append(errs, errors.New("analysis.cache_size must be >= 0"))
	}
	if c.Sessions.Capacity <= 0 {
		errs = append(errs, errors.New("sessions.capacity must be > 0"))
	}
	switch c.Sessions.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Sessions.SQLitePath) == "" {
			errs = append(errs, errors.New("sessions.sqlite_path is required for the sqlite backend"))
		}
		if c.Sessions.Retention > 0 && c.Sessions.PruneInterval <= 0 {
			errs = append(errs, errors.New("sessions.prune_interval must be > 0 when retention is set"))
		}
	default:
		errs = append(errs, fmt.Errorf("sessions.backend %q must be memory or sqlite", c.Sessions.Backend))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or text", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// LLMClientConfig converts the llm section for llm.New.
func (c Config) LLMClientConfig() llm.Config {
	return llm.Config{
		Provider:         c.LLM.Provider,
		APIKey:           c.LLM.APIKey,
		BaseURL:          c.LLM.BaseURL,
		Model:            c.LLM.Model,
		Temperature:      c.LLM.Temperature,
		Timeout:          c.LLM.Timeout,
		MaxResponseBytes: c.LLM.MaxResponseBytes,
	}
}
