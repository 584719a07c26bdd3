// Package config loads the service configuration from an optional YAML file
// and the environment. Every key can be overridden with a SUPPORTMESH_
// prefixed environment variable, e.g. SUPPORTMESH_ORACLE_MODEL or
// SUPPORTMESH_SESSION_REDIS_ADDR.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Oracle  OracleConfig  `mapstructure:"oracle"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Session SessionConfig `mapstructure:"session"`
	Support SupportConfig `mapstructure:"support"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `mapstructure:"addr"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// OracleConfig selects and configures the model backend.
type OracleConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `mapstructure:"provider"`
	// Model is the provider-specific model identifier.
	Model string `mapstructure:"model"`
	// APIKey overrides the provider SDK's own environment lookup.
	APIKey string `mapstructure:"api_key"`
	// Temperature is the sampling temperature for decide calls.
	Temperature float64 `mapstructure:"temperature"`
	// TimeoutSeconds bounds a single decide call; 0 disables the bound.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// EngineConfig controls the execution loop.
type EngineConfig struct {
	// ParallelActions resolves the actions of one act step concurrently.
	ParallelActions bool `mapstructure:"parallel_actions"`
	// SnapshotBufferSize sets channel buffering for streamed snapshots.
	SnapshotBufferSize int `mapstructure:"snapshot_buffer_size"`
}

// SessionConfig selects and configures the conversation store.
type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`
	// TTLMinutes is how long an idle session survives; 0 keeps it forever.
	TTLMinutes int `mapstructure:"ttl_minutes"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis session backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SupportConfig configures the external systems the specialist teams call.
type SupportConfig struct {
	// OrderAPIBaseURL is the order lookup service.
	OrderAPIBaseURL string `mapstructure:"order_api_base_url"`
	// PaymentAPIBaseURL is the payment profile service.
	PaymentAPIBaseURL string `mapstructure:"payment_api_base_url"`
	// Airtable receives escalation tickets.
	Airtable AirtableConfig `mapstructure:"airtable"`
	// SlackWebhookURL gets a notification per escalation ticket; empty
	// disables notifications.
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
}

// AirtableConfig identifies the ticket table.
type AirtableConfig struct {
	BaseID  string `mapstructure:"base_id"`
	TableID string `mapstructure:"table_id"`
	Token   string `mapstructure:"token"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `mapstructure:"level"`
	// Format is "json" or "text".
	Format string `mapstructure:"format"`
}

// OracleTimeout returns the decide-call bound as a duration.
func (o OracleConfig) OracleTimeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// TTL returns the idle-session lifetime as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// ShutdownTimeout returns the graceful-shutdown bound as a duration.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			ShutdownTimeoutSeconds: 10,
		},
		Oracle: OracleConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Temperature:    0,
			TimeoutSeconds: 60,
		},
		Engine: EngineConfig{
			ParallelActions:    false,
			SnapshotBufferSize: 64,
		},
		Session: SessionConfig{
			Backend:    "memory",
			TTLMinutes: 60,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Support: SupportConfig{
			OrderAPIBaseURL:   "https://fakestoreapi.com",
			PaymentAPIBaseURL: "https://dummyjson.com",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration. file may be empty, in which case only
// defaults and environment overrides apply; a named file that does not exist
// is an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SUPPORTMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enum-valued fields.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid oracle provider %q (want openai or anthropic)", c.Oracle.Provider)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid session backend %q (want memory or redis)", c.Session.Backend)
	}
	if c.Session.Backend == "redis" && c.Session.Redis.Addr == "" {
		return fmt.Errorf("session backend redis requires session.redis.addr")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout_seconds", d.Server.ShutdownTimeoutSeconds)

	v.SetDefault("oracle.provider", d.Oracle.Provider)
	v.SetDefault("oracle.model", d.Oracle.Model)
	v.SetDefault("oracle.api_key", d.Oracle.APIKey)
	v.SetDefault("oracle.temperature", d.Oracle.Temperature)
	v.SetDefault("oracle.timeout_seconds", d.Oracle.TimeoutSeconds)

	v.SetDefault("engine.parallel_actions", d.Engine.ParallelActions)
	v.SetDefault("engine.snapshot_buffer_size", d.Engine.SnapshotBufferSize)

	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.ttl_minutes", d.Session.TTLMinutes)
	v.SetDefault("session.redis.addr", d.Session.Redis.Addr)
	v.SetDefault("session.redis.password", d.Session.Redis.Password)
	v.SetDefault("session.redis.db", d.Session.Redis.DB)

	v.SetDefault("support.order_api_base_url", d.Support.OrderAPIBaseURL)
	v.SetDefault("support.payment_api_base_url", d.Support.PaymentAPIBaseURL)
	v.SetDefault("support.airtable.base_id", d.Support.Airtable.BaseID)
	v.SetDefault("support.airtable.table_id", d.Support.Airtable.TableID)
	v.SetDefault("support.airtable.token", d.Support.Airtable.Token)
	v.SetDefault("support.slack_webhook_url", d.Support.SlackWebhookURL)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
