package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultConfigPath = "config/config.yaml"
	defaultBatchSize  = 10
	defaultMaxRetries = 5
	defaultTimeout    = 15
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	CatAPI struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		BatchSize      int    `yaml:"batch_size"`      // images per request
		MaxRetries     int    `yaml:"max_retries"`     // extra batches after the first
		TimeoutSeconds int    `yaml:"timeout_seconds"` // per request
	} `yaml:"cat_api"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

var AppConfig *Config

// Default returns a config with every optional value filled in
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 4000
	cfg.Server.Env = "development"
	cfg.CatAPI.BaseURL = "https://api.thecatapi.com/v1"
	cfg.CatAPI.BatchSize = defaultBatchSize
	cfg.CatAPI.MaxRetries = defaultMaxRetries
	cfg.CatAPI.TimeoutSeconds = defaultTimeout
	cfg.CORS.AllowedOrigins = []string{"http://localhost:4000"}
	return &cfg
}

// Load reads the yaml file at path (CONFIG_PATH or config/config.yaml when
// empty), then applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath
	}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults + env only
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads into AppConfig
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CAT_API_KEY"); v != "" {
		cfg.CatAPI.APIKey = v
	}
	if v := os.Getenv("CAT_API_BASE_URL"); v != "" {
		cfg.CatAPI.BaseURL = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
	return nil
}

// fillDefaults restores values a config file explicitly zeroed
func (c *Config) fillDefaults() {
	if c.CatAPI.BatchSize <= 0 {
		c.CatAPI.BatchSize = defaultBatchSize
	}
	if c.CatAPI.MaxRetries < 0 {
		c.CatAPI.MaxRetries = defaultMaxRetries
	}
	if c.CatAPI.TimeoutSeconds <= 0 {
		c.CatAPI.TimeoutSeconds = defaultTimeout
	}
}

// Validate checks values that have no sensible default
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if strings.TrimSpace(c.CatAPI.BaseURL) == "" {
		errs = append(errs, errors.New("cat_api.base_url is required"))
	}
	if c.CatAPI.BatchSize > 100 {
		errs = append(errs, fmt.Errorf("cat_api.batch_size must be at most 100, got %d", c.CatAPI.BatchSize))
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("cors.allowed_origins: %q must start with http:// or https://", origin))
		}
	}
	return errors.Join(errs...)
}

// Address returns host:port for the HTTP listener
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Timeout returns the per-request timeout of the image search client
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.CatAPI.TimeoutSeconds) * time.Second
}

// IsDevelopment reports whether debug output should be enabled
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
