package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration for the dossier server.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Log         LogConfig      `mapstructure:"log"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// DatabaseConfig selects Postgres when URL is set; otherwise stores run in memory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

// RedisConfig configures the revocation list backend. Empty URL means in-memory.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	JWTSigningKey string        `mapstructure:"jwt_signing_key"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	// LegacyPlaintextApplicants accepts applicant rows whose stored credential
	// predates hashing. Staff accounts are always bcrypt.
	LegacyPlaintextApplicants bool   `mapstructure:"legacy_plaintext_applicants"`
	BootstrapAdminName        string `mapstructure:"bootstrap_admin_name"`
	BootstrapAdminEmail       string `mapstructure:"bootstrap_admin_email"`
	BootstrapAdminPassword    string `mapstructure:"bootstrap_admin_password"`
	// Failed logins per email and client IP before a lockout.
	LockoutAttempts int           `mapstructure:"lockout_attempts"`
	LockoutWindow   time.Duration `mapstructure:"lockout_window"`
	LockoutDuration time.Duration `mapstructure:"lockout_duration"`
}

// KafkaConfig enables the audit stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	AuditTopic string `mapstructure:"audit_topic"`
	Partitions int32  `mapstructure:"partitions"`
}

// BrokerList splits the comma separated broker setting.
func (k KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

const devSigningKey = "dev-secret-key-change-in-production"

var defaults = map[string]any{
	"environment":                      "development",
	"server.addr":                      ":8080",
	"server.request_timeout":           "15s",
	"server.shutdown_timeout":          "10s",
	"log.level":                        "info",
	"log.format":                       "json",
	"database.url":                     "",
	"database.max_open_conns":          25,
	"database.max_idle_conns":          5,
	"database.conn_max_lifetime":       "30m",
	"database.migrate_on_start":        true,
	"redis.url":                        "",
	"redis.pool_size":                  10,
	"redis.min_idle_conns":             2,
	"redis.dial_timeout":               "5s",
	"redis.read_timeout":               "3s",
	"redis.write_timeout":              "3s",
	"auth.jwt_signing_key":             devSigningKey,
	"auth.jwt_issuer":                  "dossier",
	"auth.token_ttl":                   "12h",
	"auth.legacy_plaintext_applicants": false,
	"auth.bootstrap_admin_name":        "Administrator",
	"auth.bootstrap_admin_email":       "",
	"auth.bootstrap_admin_password":    "",
	"auth.lockout_attempts":            5,
	"auth.lockout_window":              "15m",
	"auth.lockout_duration":            "15m",
	"kafka.brokers":                    "",
	"kafka.audit_topic":                "dossier.audit",
	"kafka.partitions":                 3,
}

// Load reads an optional .env file, then resolves every key from the
// environment (SERVER_ADDR, DATABASE_URL, AUTH_TOKEN_TTL, ...) over defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper unmarshals and validates a prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if c.Environment == "production" && c.Auth.JWTSigningKey == devSigningKey {
		return errors.New("auth.jwt_signing_key must be set in production")
	}
	if (c.Auth.BootstrapAdminEmail == "") != (c.Auth.BootstrapAdminPassword == "") {
		return errors.New("bootstrap admin needs both email and password")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q not supported", c.Log.Format)
	}
	return nil
}

// UsesPostgres reports whether durable stores are configured.
func (c *Config) UsesPostgres() bool { return c.Database.URL != "" }
