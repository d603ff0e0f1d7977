package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	CatalogURL      string        `json:"catalog_url"       yaml:"catalog_url"`
	RequestTimeout  time.Duration `json:"request_timeout"   yaml:"request_timeout"`
	ProbeTimeout    time.Duration `json:"probe_timeout"     yaml:"probe_timeout"`
	InitialVolume   float64       `json:"initial_volume"    yaml:"initial_volume"`
	AutoAdvance     bool          `json:"auto_advance"      yaml:"auto_advance"`
	CatalogCacheTTL time.Duration `json:"catalog_cache_ttl" yaml:"catalog_cache_ttl"`
	ProbeCacheTTL   time.Duration `json:"probe_cache_ttl"   yaml:"probe_cache_ttl"`
	ListenAddr      string        `json:"listen_addr"       yaml:"listen_addr"`
	LogFormat       string        `json:"log_format"        yaml:"log_format"`
	LogLevel        string        `json:"log_level"         yaml:"log_level"`
}

func defaults() Config {
	return Config{
		CatalogURL:      "",
		RequestTimeout:  DefaultRequestTimeout,
		ProbeTimeout:    DefaultProbeTimeout,
		InitialVolume:   1,
		AutoAdvance:     false,
		CatalogCacheTTL: 0,
		ProbeCacheTTL:   DefaultProbeCacheTTL,
		ListenAddr:      "127.0.0.1:8080",
		LogFormat:       "pretty",
		LogLevel:        "info",
	}
}

func (cfg *Config) validate() error {
	if cfg.CatalogURL == "" {
		return errors.New("catalog url is empty")
	}
	u, err := url.Parse(cfg.CatalogURL)
	if nil != err {
		return fmt.Errorf("catalog url is invalid: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("catalog url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("catalog url has no host")
	}

	if cfg.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if cfg.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}
	if cfg.CatalogCacheTTL < 0 || cfg.ProbeCacheTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}

	if math.IsNaN(cfg.InitialVolume) || cfg.InitialVolume < 0 || cfg.InitialVolume > 1 {
		return fmt.Errorf("initial volume must be within [0, 1], got %v", cfg.InitialVolume)
	}

	switch cfg.LogFormat {
	case "pretty", "packed":
	default:
		return fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); nil != err {
		return fmt.Errorf("unsupported log level %q", cfg.LogLevel)
	}

	return nil
}

// Level returns the configured log level. It is only meaningful on a
// validated config.
func (cfg *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if nil != err {
		return zerolog.InfoLevel
	}
	return lvl
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config file %q: %v", filePath, err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}

func FromString(data string) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal([]byte(data), &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}
