package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevSessionSecret signs tokens in development when SESSION_SECRET is unset.
const DevSessionSecret = "natabridge-development-secret"

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	SessionSecret  string        `mapstructure:"SESSION_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	AlertStream    string        `mapstructure:"ALERT_STREAM"`
	MQTTBroker     string        `mapstructure:"MQTT_BROKER"`
	MQTTClientID   string        `mapstructure:"MQTT_CLIENT_ID"`
	MQTTTopic      string        `mapstructure:"MQTT_TOPIC"`
	RulesFile      string        `mapstructure:"RULES_FILE"`
	MigrationsDir  string        `mapstructure:"MIGRATIONS_DIR"`
	TLSEnabled     bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile    string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string        `mapstructure:"TLS_KEY_FILE"`
}

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"SESSION_SECRET", "TOKEN_TTL", "CORS_ORIGINS", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "BODY_LIMIT", "REDIS_URL", "ALERT_STREAM",
	"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_TOPIC", "RULES_FILE",
	"MIGRATIONS_DIR", "TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads configuration from the environment, falling back to a .env
// file in the working directory and then to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "2M")
	v.SetDefault("ALERT_STREAM", "natabridge:alerts")
	v.SetDefault("MQTT_CLIENT_ID", "natabridge-server")
	v.SetDefault("MQTT_TOPIC", "nataband/+/vitals")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")

	// Bind explicitly so Unmarshal sees variables that have no default.
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" && cfg.IsDev() {
		cfg.SessionSecret = DevSessionSecret
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required when ENV=%q", c.Env)
		}
		if c.SessionSecret == DevSessionSecret {
			return fmt.Errorf("SESSION_SECRET must not be the development secret when ENV=%q", c.Env)
		}
		if len(c.SessionSecret) < 16 {
			return fmt.Errorf("SESSION_SECRET must be at least 16 characters")
		}
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return fmt.Errorf("MQTT_TOPIC is required when MQTT_BROKER is set")
	}

	// When TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
