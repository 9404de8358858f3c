package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Hub auth modes.
const (
	AuthModeBearer   = "bearer"
	AuthModeInternal = "internal"
	AuthModeJWT      = "jwt"
)

type Config struct {
	Hub      HubConfig      `mapstructure:"hub"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type HubConfig struct {
	URL                 string        `mapstructure:"url"`
	Token               string        `mapstructure:"token"`
	AuthMode            string        `mapstructure:"auth_mode"`
	DefaultTenant       string        `mapstructure:"default_tenant"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ReadTimeout         time.Duration `mapstructure:"read_timeout"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL        string `mapstructure:"url"`
	Migrations string `mapstructure:"migrations"`
}

type RedisConfig struct {
	URL           string        `mapstructure:"url"`
	Enabled       bool          `mapstructure:"enabled"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
	Subject string `mapstructure:"subject"`
	Queue   string `mapstructure:"queue"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv lists the environment names accepted for a key, in precedence order.
var legacyEnv = map[string][]string{
	"hub.url":            {"GATEWAY_HUB_URL", "INTEGRATION_HUB_BASE", "HUB_URL"},
	"hub.token":          {"GATEWAY_HUB_TOKEN", "INTEGRATION_HUB_TOKEN", "HUB_SHARED_TOKEN"},
	"hub.default_tenant": {"GATEWAY_HUB_DEFAULT_TENANT", "DEMO_TENANT_ID"},
	"hub.timeout":        {"GATEWAY_HUB_TIMEOUT", "HUB_TIMEOUT"},
	"database.url":       {"GATEWAY_DATABASE_URL", "LP_DB_URL"},
}

// Load reads configuration from defaults, an optional yaml file and the
// environment (GATEWAY_ prefix, plus the legacy names above).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("hub.url", "http://localhost:8080")
	v.SetDefault("hub.token", "")
	v.SetDefault("hub.auth_mode", AuthModeBearer)
	v.SetDefault("hub.default_tenant", "demo")
	v.SetDefault("hub.timeout", "30s")
	v.SetDefault("hub.read_timeout", "120s")
	v.SetDefault("hub.max_idle_conns_per_host", 32)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations", "file://gateway/migrations")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.flush_interval", "30s")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.subject", "lotuspetal.sourcing_events.upsert")
	v.SetDefault("nats.queue", "gateway-events")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/lotuspetal/gateway")
	}

	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Hub.URL = strings.TrimRight(strings.TrimSpace(cfg.Hub.URL), "/")
	cfg.Hub.DefaultTenant = strings.TrimSpace(cfg.Hub.DefaultTenant)
	cfg.Hub.AuthMode = strings.ToLower(strings.TrimSpace(cfg.Hub.AuthMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded values. Every problem is reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Hub.URL == "" {
		errs = append(errs, errors.New("hub.url is required"))
	} else if u, err := url.Parse(c.Hub.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("hub.url must be an absolute http(s) URL, got %q", c.Hub.URL))
	}

	if c.Hub.DefaultTenant == "" {
		errs = append(errs, errors.New("hub.default_tenant must not be empty"))
	}

	switch c.Hub.AuthMode {
	case AuthModeBearer, AuthModeInternal, AuthModeJWT:
	default:
		errs = append(errs, fmt.Errorf("hub.auth_mode must be one of bearer, internal, jwt, got %q", c.Hub.AuthMode))
	}

	if c.Hub.Timeout <= 0 {
		errs = append(errs, errors.New("hub.timeout must be positive"))
	}
	if c.Hub.ReadTimeout <= 0 {
		errs = append(errs, errors.New("hub.read_timeout must be positive"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required when redis.enabled is true"))
	}
	if c.Redis.Enabled && c.Redis.FlushInterval <= 0 {
		errs = append(errs, errors.New("redis.flush_interval must be positive"))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, errors.New("nats.url is required when nats.enabled is true"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
