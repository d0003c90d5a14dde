package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode   `yaml:"mode" validate:"oneof=local gcp"`
	Port string `yaml:"port" validate:"required,numeric"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Timezone string `yaml:"timezone"`

	Storage StorageConfig `yaml:"storage"`
	Advice  AdviceConfig  `yaml:"advice"`
	Auth    AuthConfig    `yaml:"auth"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" validate:"oneof=memory firestore mongo"` // "memory", "firestore" or "mongo"

	GCPProjectID string `yaml:"gcp_project" validate:"required_if=Backend firestore"`

	MongoURI      string `yaml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string `yaml:"mongo_database"`

	// SeedScenario preloads demo data into the memory backend.
	SeedScenario string `yaml:"seed_scenario" validate:"omitempty,oneof=stressed_work stressed_school productive"`
}

type AdviceConfig struct {
	Backend string `yaml:"backend" validate:"oneof=mock rest vertex"`

	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	APIKey  string `yaml:"api_key" validate:"required_if=Backend rest"`
	Model   string `yaml:"model" validate:"required"`

	GCPProjectID string `yaml:"gcp_project" validate:"required_if=Backend vertex"`
	GCPLocation  string `yaml:"gcp_location"`

	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	MaxRetries     int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `yaml:"initial_backoff" validate:"gt=0"`

	Cooldown    time.Duration `yaml:"cooldown" validate:"gte=0"`
	WindowHours int           `yaml:"window_hours" validate:"gt=0"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required"`
}

// Default returns the configuration used when neither a file nor env vars
// override a value.
func Default() *Config {
	return &Config{
		Mode:     ModeLocal,
		Port:     "8080",
		LogLevel: "info",
		Timezone: "Local",
		Storage: StorageConfig{
			Backend:       "memory",
			MongoDatabase: "trackmate",
		},
		Advice: AdviceConfig{
			Backend:        "mock",
			BaseURL:        "https://generativelanguage.googleapis.com/",
			Model:          "gemini-2.5-flash",
			GCPLocation:    "us-central1",
			RequestTimeout: 2 * time.Minute,
			MaxRetries:     3,
			InitialBackoff: time.Second,
			Cooldown:       30 * time.Second,
			WindowHours:    48,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-secret",
		},
	}
}

// Load builds the config: defaults, then the optional YAML file at path,
// then TRACKMATE_* env vars. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	switch getEnv("TRACKMATE_MODE", string(c.Mode)) {
	case "gcp":
		c.Mode = ModeGCP
	default:
		c.Mode = ModeLocal
	}

	c.Port = getEnv("TRACKMATE_PORT", getEnv("PORT", c.Port))
	c.LogLevel = getEnv("TRACKMATE_LOG_LEVEL", c.LogLevel)
	c.Timezone = getEnv("TRACKMATE_TIMEZONE", c.Timezone)

	c.Storage.Backend = getEnv("TRACKMATE_STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.GCPProjectID = getEnv("TRACKMATE_GCP_PROJECT", c.Storage.GCPProjectID)
	c.Storage.MongoURI = getEnv("TRACKMATE_MONGO_URI", c.Storage.MongoURI)
	c.Storage.MongoDatabase = getEnv("TRACKMATE_MONGO_DATABASE", c.Storage.MongoDatabase)
	c.Storage.SeedScenario = getEnv("TRACKMATE_SEED_SCENARIO", c.Storage.SeedScenario)

	c.Advice.Backend = getEnv("TRACKMATE_ADVICE_BACKEND", c.Advice.Backend)
	c.Advice.BaseURL = getEnv("TRACKMATE_ADVICE_BASE_URL", c.Advice.BaseURL)
	c.Advice.APIKey = getEnv("TRACKMATE_ADVICE_API_KEY", getEnv("GEMINI_API_KEY", c.Advice.APIKey))
	c.Advice.Model = getEnv("TRACKMATE_ADVICE_MODEL", c.Advice.Model)
	c.Advice.GCPProjectID = getEnv("TRACKMATE_GCP_PROJECT", c.Advice.GCPProjectID)
	c.Advice.GCPLocation = getEnv("TRACKMATE_GCP_LOCATION", c.Advice.GCPLocation)

	var err error
	if c.Advice.RequestTimeout, err = getDurationEnv("TRACKMATE_ADVICE_TIMEOUT", c.Advice.RequestTimeout); err != nil {
		return err
	}
	if c.Advice.InitialBackoff, err = getDurationEnv("TRACKMATE_ADVICE_INITIAL_BACKOFF", c.Advice.InitialBackoff); err != nil {
		return err
	}
	if c.Advice.Cooldown, err = getDurationEnv("TRACKMATE_RECOMMENDATION_COOLDOWN", c.Advice.Cooldown); err != nil {
		return err
	}
	if c.Advice.MaxRetries, err = getIntEnv("TRACKMATE_ADVICE_MAX_RETRIES", c.Advice.MaxRetries); err != nil {
		return err
	}
	if c.Advice.WindowHours, err = getIntEnv("TRACKMATE_SNAPSHOT_WINDOW_HOURS", c.Advice.WindowHours); err != nil {
		return err
	}

	c.Auth.JWTSecret = getEnv("TRACKMATE_JWT_SECRET", getEnv("JWT_SECRET", c.Auth.JWTSecret))
	return nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.Auth.JWTSecret == "dev-secret" {
		return fmt.Errorf("invalid config: TRACKMATE_JWT_SECRET must be set in gcp mode")
	}
	return nil
}

// Location resolves the time zone used for week and day boundaries.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
