// Package config loads RentNest settings. Precedence, highest first:
// RENTNEST_* environment variables, a .env file, config.toml, then the
// defaults registered in setDefaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RENTNEST"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Email     EmailConfig     `mapstructure:"email"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Receipt   ReceiptConfig   `mapstructure:"receipt"`
	Swagger   SwaggerConfig   `mapstructure:"swagger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
	// PublicURL is where browsers reach the API; payment gateways redirect back to it
	PublicURL string `mapstructure:"public_url"`
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// DSN renders a postgres:// URL, escaping credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig backs the token blacklist, idempotency keys and the message fan-out channel
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + strconv.Itoa(r.Port)
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	// RefreshSecret falls back to Secret when empty
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	Issuer                 string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or console
	Output     string `mapstructure:"output"` // stdout, stderr or a file path rotated by size
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type HTTPConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxBodySize    int64         `mapstructure:"max_body_size"`

	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	// login and register get their own, tighter bucket
	AuthRateLimitEnabled  bool          `mapstructure:"auth_rate_limit_enabled"`
	AuthRateLimitRequests int           `mapstructure:"auth_rate_limit_requests"`
	AuthRateLimitWindow   time.Duration `mapstructure:"auth_rate_limit_window"`

	// An empty origin list refuses every cross-origin request
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

// StorageConfig points at the S3-compatible bucket holding listing photos
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	// PublicBaseURL is a CDN in front of the bucket; empty means presigned GET URLs
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type PaymentConfig struct {
	// IdempotencyTTL is how long an Idempotency-Key on POST /payments stays reserved
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
	Stripe         StripeConfig  `mapstructure:"stripe"`
	PayPal         PayPalConfig  `mapstructure:"paypal"`
}

type StripeConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type PayPalConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	ClientID           string        `mapstructure:"client_id"`
	ClientSecret       string        `mapstructure:"client_secret"`
	WebhookID          string        `mapstructure:"webhook_id"`
	Sandbox            bool          `mapstructure:"sandbox"`
	Timeout            time.Duration `mapstructure:"timeout"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout"`
}

// EmailConfig is the SMTP relay used for search alert notices
type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"`
	QueueSize int    `mapstructure:"queue_size"`
}

type RealtimeConfig struct {
	Channel           string        `mapstructure:"channel"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ClientBuffer      int           `mapstructure:"client_buffer"`
}

// ReceiptConfig drives headless Chrome for PDF payment receipts
type ReceiptConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ChromePath  string        `mapstructure:"chrome_path"`
	RemoteURL   string        `mapstructure:"remote_url"` // devtools websocket of a shared Chrome
	NoSandbox   bool          `mapstructure:"no_sandbox"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Locale      string        `mapstructure:"locale"` // BCP 47, used for money formatting
	CompanyName string        `mapstructure:"company_name"`
}

type SwaggerConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	RequireAuth bool     `mapstructure:"require_auth"`
	AllowedIPs  []string `mapstructure:"allowed_ips"`
}

type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`
	MetricsEnabled    bool    `mapstructure:"metrics_enabled"`
	LogsEnabled       bool    `mapstructure:"logs_enabled"`

	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`

	ProfilingEnabled  bool   `mapstructure:"profiling_enabled"`
	PyroscopeAddress  string `mapstructure:"pyroscope_address"`
	PyroscopeUser     string `mapstructure:"pyroscope_user"`
	PyroscopePassword string `mapstructure:"pyroscope_password"`
}

// Load reads, defaults and validates the configuration
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/rentnest")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// AutomaticEnv only sees keys viper already knows, so every key has a default
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.App.PublicURL == "" {
		cfg.App.PublicURL = "http://localhost:" + cfg.App.Port
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	for key, value := range map[string]any{
		"app.name":       "rentnest-api",
		"app.env":        "development",
		"app.port":       "8080",
		"app.public_url": "",

		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "",
		"database.dbname":             "rentnest",
		"database.sslmode":            "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  60,
		"database.conn_max_idle_time": 30,
		"database.auto_migrate":       false,

		"redis.enabled":  false,
		"redis.host":     "localhost",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		"jwt.secret":                   "",
		"jwt.refresh_secret":           "",
		"jwt.access_token_expiration":  15 * time.Minute,
		"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
		"jwt.issuer":                   "rentnest-api",

		"log.level":        "info",
		"log.format":       "console",
		"log.output":       "stdout",
		"log.max_size_mb":  100,
		"log.max_backups":  7,
		"log.max_age_days": 28,
		"log.compress":     false,

		"http.read_timeout":             15 * time.Second,
		"http.write_timeout":            15 * time.Second,
		"http.idle_timeout":             time.Minute,
		"http.max_header_bytes":         1 << 20,
		"http.max_body_size":            int64(10 << 20),
		"http.rate_limit_enabled":       false,
		"http.rate_limit_requests":      100,
		"http.rate_limit_window":        time.Minute,
		"http.auth_rate_limit_enabled":  false,
		"http.auth_rate_limit_requests": 5,
		"http.auth_rate_limit_window":   time.Minute,
		"http.cors_allow_origins":       []string{},
		"http.cors_allow_methods":       []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		"http.cors_allow_headers":       []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"},
		"http.trusted_proxies":          []string{},

		"storage.enabled":            false,
		"storage.endpoint":           "",
		"storage.region":             "us-east-1",
		"storage.bucket":             "",
		"storage.access_key":         "",
		"storage.secret_key":         "",
		"storage.use_ssl":            false,
		"storage.use_path_style":     false,
		"storage.presign_expiration": 15 * time.Minute,
		"storage.public_base_url":    "",

		"payment.idempotency_ttl":             24 * time.Hour,
		"payment.stripe.enabled":              false,
		"payment.stripe.secret_key":           "",
		"payment.stripe.webhook_secret":       "",
		"payment.paypal.enabled":              false,
		"payment.paypal.client_id":            "",
		"payment.paypal.client_secret":        "",
		"payment.paypal.webhook_id":           "",
		"payment.paypal.sandbox":              false,
		"payment.paypal.timeout":              10 * time.Second,
		"payment.paypal.breaker_max_failures": 5,
		"payment.paypal.breaker_open_timeout": 30 * time.Second,

		"email.enabled":    false,
		"email.host":       "",
		"email.port":       587,
		"email.username":   "",
		"email.password":   "",
		"email.from":       "RentNest <no-reply@rentnest.local>",
		"email.queue_size": 256,

		"realtime.channel":            "rentnest:messages",
		"realtime.heartbeat_interval": 30 * time.Second,
		"realtime.client_buffer":      100,

		"receipt.enabled":      false,
		"receipt.chrome_path":  "",
		"receipt.remote_url":   "",
		"receipt.no_sandbox":   false,
		"receipt.timeout":      30 * time.Second,
		"receipt.locale":       "en-US",
		"receipt.company_name": "RentNest",

		"swagger.enabled":      false,
		"swagger.require_auth": false,
		"swagger.allowed_ips":  []string{},

		"telemetry.enabled":                 false,
		"telemetry.collector_endpoint":      "localhost:4317",
		"telemetry.sampling_ratio":          1.0,
		"telemetry.service_name":            "rentnest-api",
		"telemetry.insecure":                false,
		"telemetry.metrics_enabled":         false,
		"telemetry.logs_enabled":            false,
		"telemetry.db_trace_enabled":        false,
		"telemetry.db_log_full_sql":         false,
		"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
		"telemetry.profiling_enabled":       false,
		"telemetry.pyroscope_address":       "http://localhost:4040",
		"telemetry.pyroscope_user":          "",
		"telemetry.pyroscope_password":      "",
	} {
		v.SetDefault(key, value)
	}
}

func (c *Config) validate() error {
	db := c.Database
	switch {
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			db.MaxIdleConns, db.MaxOpenConns)
	}

	if c.App.IsProduction() {
		if err := c.validateProduction(); err != nil {
			return err
		}
	}

	switch {
	case c.Payment.Stripe.Enabled && c.Payment.Stripe.SecretKey == "":
		return errors.New("payment.stripe.secret_key is required when stripe is enabled")
	case c.Payment.PayPal.Enabled && (c.Payment.PayPal.ClientID == "" || c.Payment.PayPal.ClientSecret == ""):
		return errors.New("payment.paypal.client_id and client_secret are required when paypal is enabled")
	case c.Email.Enabled && c.Email.Host == "":
		return errors.New("email.host is required when email is enabled")
	case c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1:
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", c.Telemetry.SamplingRatio)
	}
	return nil
}

// validateProduction refuses settings that are only safe on a laptop
func (c *Config) validateProduction() error {
	switch {
	case c.JWT.Secret == "":
		return errors.New("jwt.secret is required in production")
	case len(c.JWT.Secret) < 32:
		return errors.New("jwt.secret must be at least 32 characters in production")
	case c.Database.Password == "":
		return errors.New("database.password is required in production")
	case c.Database.SSLMode == "disable":
		return errors.New("database.sslmode cannot be 'disable' in production")
	case slices.Contains(c.HTTP.CORSAllowOrigins, "*"):
		return errors.New("http.cors_allow_origins cannot be '*' in production")
	case c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0:
		return errors.New("swagger endpoint must be disabled, require authentication, or have IP restriction in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}
	return nil
}
