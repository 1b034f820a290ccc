package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tokenlens TokenlensConfig `yaml:"tokenlens"`
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Moralis   MoralisConfig   `yaml:"moralis"`
	Birdeye   BirdeyeConfig   `yaml:"birdeye"`
	AI        AIConfig        `yaml:"ai"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type TokenlensConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CacheConfig struct {
	TokenDataTTL    time.Duration `yaml:"token_data_ttl"`
	AnalyticsTTL    time.Duration `yaml:"analytics_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type MoralisConfig struct {
	BaseURL   string          `yaml:"base_url"`
	APIKey    string          `yaml:"api_key"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`
}

type BirdeyeConfig struct {
	BaseURL       string          `yaml:"base_url"`
	PublicBaseURL string          `yaml:"public_base_url"`
	APIKey        string          `yaml:"api_key"`
	Timeout       time.Duration   `yaml:"timeout"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	ProbeEnabled  *bool           `yaml:"probe_enabled"`
}

type AIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Models      []string      `yaml:"models"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// envVarPattern matches ${VAR} placeholders in configuration values.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} placeholders with environment variable values.
// Unset variables expand to an empty string.
func expandEnv(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVarPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

var defaultConfigPaths = map[string]string{
	environmentProduction: "config.production.yml",
	environmentStaging:    "config.staging.yml",
}

// ResolveConfigPath picks an environment specific configuration file when one
// exists for the current APP_ENV. An explicit non-default path always wins.
func ResolveConfigPath(path string) string {
	return resolveEnvSpecificPath(path, "config.yml", defaultConfigPaths)
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Server: ServerConfig{
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			TokenDataTTL:    2 * time.Minute,
			AnalyticsTTL:    30 * time.Minute,
			CleanupInterval: time.Minute,
		},
	}
	if err := yaml.Unmarshal(expandEnv(data), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables override file values for credentials
	if v := os.Getenv("MORALIS_API_KEY"); v != "" {
		config.Moralis.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("BIRDEYE_API_KEY"); v != "" {
		config.Birdeye.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("XAI_API_KEY"); v != "" {
		config.AI.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.TrimSpace(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &port); err == nil && port > 0 {
			config.Server.Port = port
		}
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Moralis.BaseURL == "" {
		cfg.Moralis.BaseURL = "https://deep-index.moralis.io/api/v2.2"
	}
	if cfg.Moralis.Timeout <= 0 {
		cfg.Moralis.Timeout = 10 * time.Second
	}
	if cfg.Moralis.Retry.MaxAttempts <= 0 {
		cfg.Moralis.Retry.MaxAttempts = 2
	}
	if cfg.Moralis.Retry.BaseDelay <= 0 {
		cfg.Moralis.Retry.BaseDelay = 500 * time.Millisecond
	}
	if cfg.Moralis.Retry.MaxDelay <= 0 {
		cfg.Moralis.Retry.MaxDelay = 5 * time.Second
	}
	if cfg.Moralis.RateLimit.RequestsPerSecond <= 0 {
		cfg.Moralis.RateLimit.RequestsPerSecond = 10
	}
	if cfg.Moralis.RateLimit.BurstSize <= 0 {
		cfg.Moralis.RateLimit.BurstSize = 5
	}

	if cfg.Birdeye.BaseURL == "" {
		cfg.Birdeye.BaseURL = "https://api.birdeye.so"
	}
	if cfg.Birdeye.PublicBaseURL == "" {
		cfg.Birdeye.PublicBaseURL = "https://public-api.birdeye.so"
	}
	if cfg.Birdeye.Timeout <= 0 {
		cfg.Birdeye.Timeout = 10 * time.Second
	}
	if cfg.Birdeye.RateLimit.RequestsPerSecond <= 0 {
		cfg.Birdeye.RateLimit.RequestsPerSecond = 10
	}
	if cfg.Birdeye.RateLimit.BurstSize <= 0 {
		cfg.Birdeye.RateLimit.BurstSize = 5
	}
	if cfg.Birdeye.ProbeEnabled == nil {
		enabled := true
		cfg.Birdeye.ProbeEnabled = &enabled
	}

	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://api.x.ai/v1"
	}
	if len(cfg.AI.Models) == 0 {
		cfg.AI.Models = []string{"grok-3-mini", "grok-3", "grok-2-1212"}
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.AI.MaxRetries <= 0 {
		cfg.AI.MaxRetries = 2
	}
	if cfg.AI.Temperature <= 0 {
		cfg.AI.Temperature = 0.7
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 1500
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Tokenlens.Name == "" {
		return fmt.Errorf("tokenlens.name is required")
	}

	if cfg.Tokenlens.Version == "" {
		return fmt.Errorf("tokenlens.version is required")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if cfg.Cache.TokenDataTTL <= 0 {
		return fmt.Errorf("cache.token_data_ttl must be greater than 0")
	}
	if cfg.Cache.AnalyticsTTL <= 0 {
		return fmt.Errorf("cache.analytics_ttl must be greater than 0")
	}
	if cfg.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache.cleanup_interval must be greater than 0")
	}

	env := getAppEnvironment()
	if IsProductionLike(env) {
		if cfg.Moralis.APIKey == "" {
			return fmt.Errorf("moralis.api_key is required in %s", env)
		}
		if cfg.Birdeye.APIKey == "" {
			return fmt.Errorf("birdeye.api_key is required in %s", env)
		}
	}

	return nil
}
