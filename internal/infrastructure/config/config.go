package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// BaseURL is the public web origin used to build links in emails.
	BaseURL string `env:"BASE_URL, default=http://localhost:3000"`

	JWT   JWTConfig
	Mongo MongoConfig
	Redis RedisConfig
	SMTP  SMTPConfig
	Mail  MailConfig
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER,      default=soporteya-auth"`
	Audience   string        `env:"JWT_AUDIENCE,    default=soporteya-api"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL,  default=1h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL, default=720h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=soporteya_auth"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM, default=no-reply@soporteya.io"`
}

type MailConfig struct {
	Workers int `env:"MAIL_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	return &cfg
}

// IsDevelopment reports whether the service runs in the development
// environment (pretty logs, insecure cookies, log-only mail sender).
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
