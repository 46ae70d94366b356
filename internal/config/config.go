// Package config loads server configuration from DIETWITHDEE_* environment
// variables, reading a .env file first when one exists.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment key.
const Prefix = "DIETWITHDEE_"

// Config is the full server configuration.
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	Addr     string `env:"ADDR" envDefault:":8080"`
	DBPath   string `env:"DB_PATH" envDefault:"dietwithdee.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	SiteURL  string `env:"SITE_URL" envDefault:"https://dietwithdee.org"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	CSRFKey       string `env:"CSRF_KEY"`

	StoreBackend  string `env:"STORE_BACKEND" envDefault:"sqlite"`
	MongoURL      string `env:"MONGODB_URL"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"dietwithdee"`
	MarkerBackend string `env:"MARKER_BACKEND" envDefault:"sqlite"`
	RedisURL      string `env:"REDIS_URL"`

	S3 S3Config `envPrefix:"S3_"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	EmailJS EmailJSConfig `envPrefix:"EMAILJS_"`

	NewsletterProvider string `env:"NEWSLETTER_PROVIDER" envDefault:"noop"`
	ResendKey          string `env:"RESEND_KEY"`
	PostmarkServer     string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccount    string `env:"POSTMARK_ACCOUNT_TOKEN"`
	EmailFrom          string `env:"EMAIL_FROM" envDefault:"Diet With Dee <hello@dietwithdee.org>"`
	EmailFromName      string `env:"EMAIL_FROM_NAME" envDefault:"Diet With Dee"`
	ReplyTo            string `env:"REPLY_TO"`
	ConsultationEmail  string `env:"CONSULTATION_EMAIL" envDefault:"hello@dietwithdee.org"`
	ProxyAllowedOrigin string `env:"PROXY_ALLOWED_ORIGIN" envDefault:"https://dietwithdee.org"`

	SlowQueryMS   int `env:"SLOW_QUERY_MS" envDefault:"50"`
	SlowRequestMS int `env:"SLOW_REQUEST_MS" envDefault:"500"`
}

// S3Config configures the article image bucket. Empty Bucket means images
// are stored on local disk under UploadDir.
type S3Config struct {
	Bucket    string `env:"BUCKET"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Endpoint  string `env:"ENDPOINT"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	PublicURL string `env:"PUBLIC_URL"`
	PathStyle bool   `env:"PATH_STYLE"`
}

// EmailJSConfig holds the EmailJS identifiers.
type EmailJSConfig struct {
	ServiceID  string `env:"SERVICE_ID"`
	TemplateID string `env:"TEMPLATE_ID"`
	UserID     string `env:"USER_ID"`
	Endpoint   string `env:"ENDPOINT"`
}

// Load reads .env (if present) then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses cfg from the given map instead of the process
// environment. Keys include the prefix.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	var errs []error
	if c.IsProduction() && c.CSRFKey == "" {
		errs = append(errs, errors.New("CSRF_KEY is required in production"))
	}
	if c.CSRFKey != "" && len(c.CSRFKey) < 32 {
		errs = append(errs, errors.New("CSRF_KEY must be at least 32 bytes"))
	}
	switch c.StoreBackend {
	case "sqlite":
	case "mongo":
		if c.MongoURL == "" {
			errs = append(errs, errors.New("MONGODB_URL is required when STORE_BACKEND=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.MarkerBackend {
	case "sqlite", "memory":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when MARKER_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MARKER_BACKEND %q", c.MarkerBackend))
	}
	switch c.NewsletterProvider {
	case "noop":
	case "emailjs":
		if c.EmailJS.ServiceID == "" || c.EmailJS.TemplateID == "" || c.EmailJS.UserID == "" {
			errs = append(errs, errors.New("EMAILJS_SERVICE_ID, EMAILJS_TEMPLATE_ID and EMAILJS_USER_ID are required for emailjs"))
		}
	case "resend":
		if c.ResendKey == "" {
			errs = append(errs, errors.New("RESEND_KEY is required for resend"))
		}
	case "postmark":
		if c.PostmarkServer == "" {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN is required for postmark"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NEWSLETTER_PROVIDER %q", c.NewsletterProvider))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
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

// SlowQuery is the TimedDB warning threshold.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}

// SlowRequest is the Timing middleware warning threshold.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}
