package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig         `yaml:"app"`
	Exchange    ExchangeConfig    `yaml:"exchange"`
	Credentials CredentialsConfig `yaml:"credentials"`
	HTTP        HTTPConfig        `yaml:"http"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Stream      StreamConfig      `yaml:"stream"`
	Logging     LoggingConfig     `yaml:"logging"`
	CloudWatch  CloudWatchConfig  `yaml:"cloudwatch"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ExchangeConfig struct {
	RESTURL   string `yaml:"rest_url"`
	WSURL     string `yaml:"ws_url"`
	UserAgent string `yaml:"user_agent"`
}

// CredentialsConfig holds the API key pair. Values from the file are
// overridden by VALR_API_KEY / VALR_API_SECRET so secrets can stay out of
// committed configuration.
type CredentialsConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type HTTPConfig struct {
	Timeout        time.Duration        `yaml:"timeout"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type StreamConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Pairs          []string      `yaml:"pairs"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	Buffer         int           `yaml:"buffer"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

const (
	defaultRESTURL = "https://api.valr.com"
	defaultWSURL   = "wss://api.valr.com"
)

// LoadConfig reads and validates a configuration file, applying defaults and
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Exchange: ExchangeConfig{
			RESTURL: defaultRESTURL,
			WSURL:   defaultWSURL,
		},
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:    10,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		// 1000 calls per minute upstream; stay just under.
		RateLimit: RateLimitConfig{RequestsPerSecond: 16, BurstSize: 4},
		Stream:    StreamConfig{ReconnectDelay: 5 * time.Second, Buffer: 256},
		Logging:   LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if v := os.Getenv("VALR_API_KEY"); v != "" {
		config.Credentials.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("VALR_API_SECRET"); v != "" {
		config.Credentials.APISecret = strings.TrimSpace(v)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if cfg.App.Version == "" {
		return fmt.Errorf("app.version is required")
	}
	if !strings.HasPrefix(cfg.Exchange.RESTURL, "http") {
		return fmt.Errorf("exchange.rest_url must be an http(s) URL")
	}
	if !strings.HasPrefix(cfg.Exchange.WSURL, "ws") {
		return fmt.Errorf("exchange.ws_url must be a ws(s) URL")
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be greater than 0")
	}
	if cfg.Stream.Enabled && len(cfg.Stream.Pairs) == 0 {
		return fmt.Errorf("stream.pairs is required when the stream is enabled")
	}
	// Key and secret travel together: a lone key can never sign a request.
	if (cfg.Credentials.APIKey == "") != (cfg.Credentials.APISecret == "") {
		return fmt.Errorf("credentials require both api_key and api_secret")
	}
	return nil
}
