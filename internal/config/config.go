// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Maintenance flag backends.
const (
	MaintenanceStoreMemory   = "memory"
	MaintenanceStoreRedis    = "redis"
	MaintenanceStorePostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the session lookup gRPC server listens on. Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DBAutoMigrate runs embedded migrations up at server start.
	DBAutoMigrate bool `mapstructure:"DB_AUTO_MIGRATE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// JWTSigningKey is the HS512 secret, inline or a path to a file containing it.
	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`
	// JWTIssuer is the iss claim stamped on every token.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAccessTTL is the access token lifetime (e.g. "1h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "720h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// JWTResetTTL is the reset-password token lifetime.
	JWTResetTTL string `mapstructure:"JWT_RESET_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// OTPTTLRaw is the lifetime of verification codes (e.g. "5m").
	OTPTTLRaw string `mapstructure:"OTP_TTL"`
	// OTPReturnToClient when true keeps issued codes in memory for GET /dev/otp instead of sending them.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`

	// MaintenanceMode is the flag value seeded at startup when the store holds none.
	MaintenanceMode bool `mapstructure:"MAINTENANCE_MODE"`
	// MaintenanceStore selects where the flag lives: memory, redis or postgres.
	MaintenanceStore string `mapstructure:"MAINTENANCE_STORE"`
	// GatePolicyFile optionally replaces the built-in rego admission policy.
	GatePolicyFile string `mapstructure:"GATE_POLICY_FILE"`

	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	// CORSAllowedOrigins is a comma-separated origin list; credentials are allowed for these.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// LoginRatePerMinute bounds login attempts per client IP. Zero disables the limiter.
	LoginRatePerMinute int `mapstructure:"LOGIN_RATE_PER_MINUTE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	// ResetPasswordURL is the front-end page the reset link points at; the token is appended as ?token=.
	ResetPasswordURL string `mapstructure:"RESET_PASSWORD_URL"`

	// SMSLocalAPIKey is the API key for SMS Local. Phone codes are only logged when empty.
	SMSLocalAPIKey  string `mapstructure:"SMS_LOCAL_API_KEY"`
	SMSLocalSender  string `mapstructure:"SMS_LOCAL_SENDER"`
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`

	OTelEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SIGNING_KEY", "")
	v.SetDefault("JWT_ISSUER", "NTL")
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("JWT_REFRESH_TTL", "720h") // 30d
	v.SetDefault("JWT_RESET_TTL", "5m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("MAINTENANCE_MODE", false)
	v.SetDefault("MAINTENANCE_STORE", MaintenanceStoreMemory)
	v.SetDefault("GATE_POLICY_FILE", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 30)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@library.local")
	v.SetDefault("RESET_PASSWORD_URL", "http://localhost:3000/reset-password")
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://app.smslocal.in/api/smsapi")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_SERVICE_NAME", "libmanage-auth")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.OTPReturnToClient && cfg.IsProduction() {
		return nil, errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	cfg.MaintenanceStore = strings.ToLower(strings.TrimSpace(cfg.MaintenanceStore))
	switch cfg.MaintenanceStore {
	case MaintenanceStoreMemory:
	case MaintenanceStoreRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("config: REDIS_ADDR must be set when MAINTENANCE_STORE=redis")
		}
	case MaintenanceStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when MAINTENANCE_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("config: MAINTENANCE_STORE %q is not one of memory, redis, postgres", cfg.MaintenanceStore)
	}

	if cfg.LoginRatePerMinute < 0 {
		return nil, errors.New("config: LOGIN_RATE_PER_MINUTE must not be negative")
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AccessTTL parses JWTAccessTTL. Returns 1h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseTTL(c.JWTAccessTTL, time.Hour)
}

// RefreshTTL parses JWTRefreshTTL. Returns 30 days if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseTTL(c.JWTRefreshTTL, 720*time.Hour)
}

// ResetTTL parses JWTResetTTL. Returns 5m if unset or invalid.
func (c *Config) ResetTTL() time.Duration {
	return parseTTL(c.JWTResetTTL, 5*time.Minute)
}

// OTPTTL parses OTPTTLRaw. Returns 5m if unset or invalid.
func (c *Config) OTPTTL() time.Duration {
	return parseTTL(c.OTPTTLRaw, 5*time.Minute)
}

// CORSOrigins returns the allowed origins from the comma-separated config.
func (c *Config) CORSOrigins() []string {
	if c == nil || c.CORSAllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseTTL(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
