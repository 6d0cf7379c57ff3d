// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Default TTL bounds for signed attachment URLs, in seconds.
const (
	SignedURLMinTTL     = 60
	SignedURLMaxTTL     = 86400
	SignedURLDefaultTTL = 900
)

// AuthConfig holds identity-service and caller-authentication configuration.
type AuthConfig struct {
	// Identity service (admin API) connection.
	IdentityURL    string // base URL of the identity service
	ServiceRoleKey string // privileged key for admin API calls
	AnonKey        string // public key forwarded on credential exchange

	// Credential exchange mode: "remote" exchanges the bearer with the
	// identity service; "local" verifies it in-process.
	Mode string

	// Local verification settings (Mode == "local").
	JWTSecret      string   // HS256 shared secret for dev/test tokens
	IssuerURL      string   // OIDC issuer for JWKS discovery
	JWKSURL        string   // explicit JWKS URL (no discovery)
	Audience       string   // required audience claim
	AllowedIssuers []string // accepted issuers (defaults to [IssuerURL])

	// Global authority sources.
	SuperAdminEmail string // configured super-admin email (case-insensitive)
	BridgeToken     string // pre-shared token for trusted internal callers
}

// LocalVerification reports whether bearer credentials are verified
// in-process instead of being exchanged with the identity service.
func (a *AuthConfig) LocalVerification() bool {
	return strings.EqualFold(a.Mode, "local")
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.LocalVerification() {
		if a.JWTSecret == "" && a.IssuerURL == "" && a.JWKSURL == "" {
			return fmt.Errorf("AUTH_MODE=local requires AUTH_JWT_SECRET, AUTH_ISSUER_URL, or AUTH_JWKS_URL")
		}
		return nil
	}
	if a.IdentityURL == "" {
		return fmt.Errorf("IDENTITY_URL is required")
	}
	if a.ServiceRoleKey == "" {
		return fmt.Errorf("SERVICE_ROLE_KEY is required")
	}
	return nil
}

// StorageConfig holds S3-compatible object store settings for attachment
// signing. All fields must be set for the signer to be enabled.
type StorageConfig struct {
	Endpoint string
	Region   string
	KeyID    string
	Secret   string

	AttachmentsBucket string // the single bucket signing is restricted to
	AllowAnyBucket    bool   // widen signing beyond AttachmentsBucket
}

// Enabled returns true when all required S3 fields are set.
func (s *StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Region != "" && s.KeyID != "" && s.Secret != ""
}

// Config holds the configuration for the admin HTTP API.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	MetaDBPath string // path to the SQLite metadata file
	LogLevel   string // debug, info, warn, error (default "info")
	Env        string // "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default: ["*"])

	Auth    AuthConfig
	Storage StorageConfig

	// Warnings collects non-fatal issues found during loading. They are
	// logged by the caller once the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables. Storage
// variables are optional; the server can start without attachment signing.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr: envDefault("LISTEN_ADDR", ":8080"),
		MetaDBPath: envDefault("META_DB_PATH", "clinic-admin.sqlite"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
		Auth: AuthConfig{
			IdentityURL:     strings.TrimRight(os.Getenv("IDENTITY_URL"), "/"),
			ServiceRoleKey:  os.Getenv("SERVICE_ROLE_KEY"),
			AnonKey:         os.Getenv("ANON_KEY"),
			Mode:            envDefault("AUTH_MODE", "remote"),
			JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
			IssuerURL:       os.Getenv("AUTH_ISSUER_URL"),
			JWKSURL:         os.Getenv("AUTH_JWKS_URL"),
			Audience:        os.Getenv("AUTH_AUDIENCE"),
			SuperAdminEmail: strings.ToLower(os.Getenv("SUPER_ADMIN_EMAIL")),
			BridgeToken:     os.Getenv("ADMIN_INTERNAL_TOKEN"),
		},
		Storage: StorageConfig{
			Endpoint:          os.Getenv("S3_ENDPOINT"),
			Region:            os.Getenv("S3_REGION"),
			KeyID:             os.Getenv("S3_KEY_ID"),
			Secret:            os.Getenv("S3_SECRET"),
			AttachmentsBucket: envDefault("ATTACHMENTS_BUCKET", "chat-attachments"),
			AllowAnyBucket:    parseBoolEnvDefault("ALLOW_ANY_BUCKET", false),
		},
		RateLimitRPS:       50,
		RateLimitBurst:     100,
		CORSAllowedOrigins: []string{"*"},
	}

	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		for _, iss := range strings.Split(v, ",") {
			if iss = strings.TrimSpace(iss); iss != "" {
				cfg.Auth.AllowedIssuers = append(cfg.Auth.AllowedIssuers, iss)
			}
		}
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid RATE_LIMIT_RPS %q", v))
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitBurst = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid RATE_LIMIT_BURST %q", v))
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}
	if cfg.Auth.SuperAdminEmail == "" {
		cfg.Warnings = append(cfg.Warnings, "SUPER_ADMIN_EMAIL is not set; the email allowlist authority is disabled")
	}
	if cfg.Auth.BridgeToken == "" {
		cfg.Warnings = append(cfg.Warnings, "ADMIN_INTERNAL_TOKEN is not set; internal bridge callers are disabled")
	}
	if !cfg.Storage.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "S3 storage is not configured; attachment signing is disabled")
	}

	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}


func parseBoolEnvDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
