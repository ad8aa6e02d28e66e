package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	FirebaseProject         string `env:"FIREBASE_PROJECT_ID,required"`
	FirebaseAPIKey          string `env:"FIREBASE_API_KEY,required"`
	FirebaseCredentialsJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`
	FirebaseCredentialsPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	IdentityToolkitURL      string `env:"IDENTITY_TOOLKIT_URL" envDefault:"https://identitytoolkit.googleapis.com/v1"`
	SecureTokenURL          string `env:"SECURE_TOKEN_URL" envDefault:"https://securetoken.googleapis.com/v1"`

	StorageBucket       string `env:"STORAGE_BUCKET" envDefault:"product-images"`
	MaxImageBytes       int64  `env:"MAX_IMAGE_BYTES" envDefault:"5242880"`
	PlaceholderImageURL string `env:"PLACEHOLDER_IMAGE_URL" envDefault:"https://via.placeholder.com/300x200?text=No+Image"`
	CompensateUploads   bool   `env:"LISTING_COMPENSATE_UPLOADS" envDefault:"true"`

	PublicBaseURL     string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`
	PasswordResetPath string `env:"PASSWORD_RESET_PATH" envDefault:"/reset-password"`
	PhoneCountryCode  string `env:"PHONE_COUNTRY_CODE" envDefault:"91"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	ProductCacheTTL time.Duration `env:"PRODUCT_CACHE_TTL" envDefault:"5m"`

	AuthRatePerMinute int `env:"AUTH_RATE_PER_MINUTE" envDefault:"10"`
}

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// PasswordResetRedirect is the fixed target embedded in password reset links.
func (c *Config) PasswordResetRedirect() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/" + strings.TrimLeft(c.PasswordResetPath, "/")
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
