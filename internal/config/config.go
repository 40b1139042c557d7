// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env selects a configuration profile.
type Env string

// Supported profiles. Development is the default when APP_ENV is unset.
const (
	Development Env = "development"
	Testing     Env = "testing"
	Production  Env = "production"
)

// Fallback signing values so a fresh checkout runs without a .env file.
// Load refuses to use them in production.
const (
	devSecretKey    = "shhhItsASecret123"
	devPasswordSalt = "dev-password-salt"
)

// Config holds all configuration values for the web server.
// Values are populated by Load from environment variables.
type Config struct {
	// Env is the active profile. Defaults to "development".
	Env Env

	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// BaseURL is the externally visible origin used to build absolute links
	// in confirmation emails. Defaults to "http://localhost:<Port>".
	BaseURL string

	// DatabaseURL is the Postgres connection string. The variable it is read
	// from depends on Env: DEV_DATABASE_URL (falling back to DATABASE_URL) in
	// development, TEST_DATABASE_URL in testing, DATABASE_URL in production.
	DatabaseURL string

	// MigrateOnStart applies pending goose migrations before serving. Defaults to true.
	MigrateOnStart bool

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// SecretKey signs session cookies and confirmation tokens. Required in production.
	SecretKey string

	// PasswordSalt separates confirmation tokens from other tokens signed
	// with SecretKey. Required in production.
	PasswordSalt string

	// SessionLifetime is how long a session cookie stays valid. Defaults to 7 days.
	SessionLifetime time.Duration

	// BcryptCost is the bcrypt work factor for password hashes. Defaults to 10.
	BcryptCost int

	// DiveSitesURL is the base URL of the dive-site directory API.
	DiveSitesURL string

	// GeocoderURL is the base URL of a Nominatim-compatible reverse geocoder.
	GeocoderURL string

	// UpstreamTimeout bounds each outbound HTTP call. Defaults to 10s.
	UpstreamTimeout time.Duration

	// CSRFEnabled requires a matching csrf_token on every form POST.
	// On by default except in the testing profile.
	CSRFEnabled bool

	// Debug mounts the chi profiler under /debug. On in development only.
	Debug bool

	// SecureCookies sets the Secure attribute on the session cookie.
	// On in production only.
	SecureCookies bool

	Mail Mail
}

// Mail configures the outbound SMTP transport used for confirmation emails.
type Mail struct {
	Server   string
	Port     int
	Username string
	Password string
	UseSSL   bool

	// Suppress logs messages instead of sending them. On in the testing
	// profile, and whenever Server is empty.
	Suppress bool
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or any
// variable that cannot be parsed.
func Load() (Config, error) {
	env := Env(getEnv("APP_ENV", string(Development)))
	switch env {
	case Development, Testing, Production:
	default:
		return Config{}, fmt.Errorf("APP_ENV must be one of development, testing, production; got %q", env)
	}

	port := getEnv("PORT", "8080")
	cfg := Config{
		Env:           env,
		Port:          port,
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+port), "/"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DiveSitesURL:  strings.TrimRight(getEnv("DIVESITES_API_URL", "http://api.divesites.com"), "/"),
		GeocoderURL:   strings.TrimRight(getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"), "/"),
		CSRFEnabled:   env != Testing,
		Debug:         env == Development,
		SecureCookies: env == Production,
		Mail: Mail{
			Server:   os.Getenv("MAIL_SERVER"),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
			Suppress: env == Testing,
		},
	}

	var (
		missing []string
		invalid []string
	)

	switch env {
	case Development:
		cfg.DatabaseURL = getEnv("DEV_DATABASE_URL", os.Getenv("DATABASE_URL"))
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DEV_DATABASE_URL")
		}
	case Testing:
		cfg.DatabaseURL = os.Getenv("TEST_DATABASE_URL")
		if cfg.DatabaseURL == "" {
			missing = append(missing, "TEST_DATABASE_URL")
		}
	case Production:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	}

	cfg.SecretKey = os.Getenv("SECRET_KEY")
	cfg.PasswordSalt = os.Getenv("SECURITY_PASSWORD_SALT")
	if env == Production {
		if cfg.SecretKey == "" {
			missing = append(missing, "SECRET_KEY")
		}
		if cfg.PasswordSalt == "" {
			missing = append(missing, "SECURITY_PASSWORD_SALT")
		}
	} else {
		if cfg.SecretKey == "" {
			cfg.SecretKey = devSecretKey
		}
		if cfg.PasswordSalt == "" {
			cfg.PasswordSalt = devPasswordSalt
		}
	}

	var err error
	if cfg.MigrateOnStart, err = getBool("MIGRATE_ON_START", true); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.SessionLifetime, err = getDuration("SESSION_LIFETIME", 7*24*time.Hour); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 10*time.Second); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.CSRFEnabled, err = getBool("CSRF_ENABLED", cfg.CSRFEnabled); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.Mail.Port, err = getInt("MAIL_PORT", 465); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.Mail.UseSSL, err = getBool("MAIL_USE_SSL", true); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.Mail.Suppress, err = getBool("MAIL_SUPPRESS_SEND", cfg.Mail.Suppress); err != nil {
		invalid = append(invalid, err.Error())
	}
	if cfg.Mail.Server == "" {
		cfg.Mail.Suppress = true
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
