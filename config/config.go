package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds every setting the API reads from the environment.
type Config struct {
	Port         string `env:"PORT,default=8000"`
	Environment  string `env:"APP_ENV,default=development"`
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS,default=*"`

	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWTSecret        string        `env:"JWT_SECRET,default=solid_secret_key"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL,default=24h"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL,default=168h"`
	PasswordResetTTL time.Duration `env:"PASSWORD_RESET_TTL,default=1h"`
	FrontendURL      string        `env:"FRONTEND_URL,default=http://localhost:3000"`

	GoogleClientID       string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI    string        `env:"GOOGLE_REDIRECT_URI"`
	GoogleAllowedDomains string        `env:"GOOGLE_ALLOWED_DOMAINS"`
	OAuthCodeTTL         time.Duration `env:"OAUTH_CODE_TTL,default=10m"`

	SMTPHost  string `env:"SMTP_HOST"`
	SMTPPort  int    `env:"SMTP_PORT,default=587"`
	EmailUser string `env:"EMAIL_USER"`
	EmailPass string `env:"EMAIL_PASS"`

	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey       string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret    string `env:"CLOUDINARY_API_SECRET"`
	CloudinaryUploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET"`
	MaxFileSize            int64  `env:"MAX_FILE_SIZE,default=10485760"`

	ServiceFeePercentage  float64 `env:"SERVICE_FEE_PERCENTAGE,default=10"`
	PlatformFeePercentage float64 `env:"PLATFORM_FEE_PERCENTAGE,default=5"`
	MinWalletBalance      float64 `env:"MIN_WALLET_BALANCE,default=0"`
	MaxWalletBalance      float64 `env:"MAX_WALLET_BALANCE,default=10000"`
	MinPayoutAmount       float64 `env:"MIN_PAYOUT_AMOUNT,default=20"`
	PayoutFeePercentage   float64 `env:"PAYOUT_FEE_PERCENTAGE,default=2.5"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE,default=60"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// App is the configuration loaded at startup.
var App = &Config{}

// Load reads .env (if present) and decodes the environment into App.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file. Using environment variables directly.")
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	App = cfg
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET must not be empty")
	case c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0:
		return errors.New("token lifetimes must be positive")
	case c.MinWalletBalance > c.MaxWalletBalance:
		return errors.New("MIN_WALLET_BALANCE exceeds MAX_WALLET_BALANCE")
	case c.RateLimitPerMinute < 0:
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// GoogleEnabled reports whether OAuth credentials are configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURI != ""
}

// AllowedDomains returns the lower-cased Google email domain allowlist.
// An empty result allows every domain.
func (c *Config) AllowedDomains() []string {
	var out []string
	for _, d := range strings.Split(c.GoogleAllowedDomains, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
