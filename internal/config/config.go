package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DemographicsMode decides how incomplete user demographics are handled
// when scoring. Strict rejects the submission; defaults substitutes the
// configured fallback values.
type DemographicsMode string

const (
	DemographicsStrict   DemographicsMode = "strict"
	DemographicsDefaults DemographicsMode = "defaults"
)

// Config holds service configuration.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	AQIProviderBaseURL string `yaml:"aqi_provider_base_url"`
	AQIProviderAPIKey  string `yaml:"aqi_provider_api_key"`
	DefaultCity        string `yaml:"default_city"`

	AlertWindow time.Duration `yaml:"alert_window"`
	WebhookURL  string        `yaml:"webhook_url"`

	HistoryPageSize int `yaml:"history_page_size"`

	Demographics    DemographicsMode `yaml:"demographics_mode"`
	DefaultAge      int              `yaml:"default_age"`
	LatestAQICacheT time.Duration    `yaml:"latest_aqi_cache_ttl"`

	AQIRefreshInterval time.Duration `yaml:"aqi_refresh_interval"`
}

// Load builds configuration from defaults, an optional yaml file pointed
// at by AIRHEALTH_CONFIG, and env overrides. A local .env file is loaded
// first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
		DefaultCity:     getenvDefault("AQI_DEFAULT_CITY", "Chennai"),
		AlertWindow:     24 * time.Hour,
		HistoryPageSize: 10,
		Demographics:    DemographicsStrict,
		DefaultAge:      30,
		LatestAQICacheT: 5 * time.Minute,

		AQIRefreshInterval: 10 * time.Minute,
	}

	if path := os.Getenv("AIRHEALTH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("AQI_PROVIDER_BASE_URL"); v != "" {
		cfg.AQIProviderBaseURL = v
	}
	if v := os.Getenv("AQI_PROVIDER_API_KEY"); v != "" {
		cfg.AQIProviderAPIKey = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	cfg.AlertWindow = getenvDuration("ALERT_WINDOW", cfg.AlertWindow)
	cfg.LatestAQICacheT = getenvDuration("LATEST_AQI_CACHE_TTL", cfg.LatestAQICacheT)
	cfg.AQIRefreshInterval = getenvDuration("AQI_REFRESH_INTERVAL", cfg.AQIRefreshInterval)
	cfg.HistoryPageSize = getenvIntDefault("HISTORY_PAGE_SIZE", cfg.HistoryPageSize)
	cfg.DefaultAge = getenvIntDefault("DEMOGRAPHICS_DEFAULT_AGE", cfg.DefaultAge)
	if v := os.Getenv("DEMOGRAPHICS_MODE"); v != "" {
		cfg.Demographics = DemographicsMode(v)
	}

	return cfg, cfg.Validate()
}

// Validate checks required settings and invariants.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	if c.AlertWindow <= 0 {
		return errors.New("config: alert window must be positive")
	}
	if c.HistoryPageSize <= 0 {
		return errors.New("config: history page size must be positive")
	}
	switch c.Demographics {
	case DemographicsStrict, DemographicsDefaults:
	default:
		return errors.New("config: demographics_mode must be strict or defaults")
	}
	if c.Demographics == DemographicsDefaults && c.DefaultAge <= 0 {
		return errors.New("config: default age must be positive")
	}
	if c.AQIRefreshInterval <= 0 {
		return errors.New("config: aqi refresh interval must be positive")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
