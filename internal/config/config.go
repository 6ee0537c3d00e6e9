package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Vapi    VapiConfig
	Webhook WebhookConfig
	Credits CreditsConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// DBConfig is optional as a whole: when DB_HOST is unset the service runs on
// in-memory stores (single-process mode, state lost on restart).
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional: without it the dial lock and assistant config
// cache are skipped.
type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type VapiConfig struct {
	PrivateKey string
	BaseURL    string
	Timeout    time.Duration

	// AssistantID and PhoneNumberID are the defaults used when a dial
	// request does not name its own.
	AssistantID   string
	PhoneNumberID string
}

type WebhookConfig struct {
	// Secret is an optional shared bearer token. When set, webhook posts
	// without it are rejected.
	Secret string
}

type CreditsConfig struct {
	// DefaultAllotment is the starting balance granted on first access.
	DefaultAllotment int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
		c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
		c.DB.Password = os.Getenv("DB_PASSWORD")
		c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
		c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = optDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = optDuration("JWT_REFRESH_TTL")

	c.Vapi.PrivateKey = os.Getenv("VAPI_PRIVATE_KEY")
	c.Vapi.BaseURL = strings.TrimSpace(os.Getenv("VAPI_BASE_URL"))
	c.Vapi.Timeout = optDuration("VAPI_TIMEOUT")
	c.Vapi.AssistantID = strings.TrimSpace(os.Getenv("VAPI_ASSISTANT_ID"))
	c.Vapi.PhoneNumberID = strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER_ID"))

	c.Webhook.Secret = os.Getenv("WEBHOOK_SECRET")

	if v := strings.TrimSpace(os.Getenv("DEFAULT_CREDITS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("DEFAULT_CREDITS must be an integer, got %q", v))
		}
		c.Credits.DefaultAllotment = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DBConfigured() {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				// Local-friendly default; production must be explicit.
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	} else if c.IsProduction() {
		// Production must never run on the volatile in-memory stores.
		errs = append(errs, errors.New("DB_HOST is required in production"))
	}

	if c.RedisConfigured() && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Vapi.PrivateKey == "" && c.IsProduction() {
		errs = append(errs, errors.New("VAPI_PRIVATE_KEY is required in production"))
	}
	if c.Vapi.BaseURL == "" {
		c.Vapi.BaseURL = "https://api.vapi.ai"
	}
	if c.Vapi.Timeout <= 0 {
		c.Vapi.Timeout = 15 * time.Second
	}

	if c.Credits.DefaultAllotment <= 0 {
		c.Credits.DefaultAllotment = 2
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DBConfigured reports whether a durable store is configured. When false the
// service falls back to in-memory stores.
func (c Config) DBConfigured() bool {
	return c.DB.Host != ""
}

func (c Config) RedisConfigured() bool {
	return c.Redis.Host != ""
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
