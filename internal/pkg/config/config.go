package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is constructed once at
// startup and passed explicitly to every component that needs it.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr   string `env:"REDIS_ADDR,required"`
	PostgresURL string `env:"POSTGRES_URL,required"`

	// Streams is the set of event streams this worker consumes.
	Streams []string `env:"NOTIFY_STREAMS" envDefault:"evaluations,evaluation-responses"`

	ReadBlock      time.Duration `env:"STREAM_READ_BLOCK" envDefault:"5s"`
	ReadBackoff    time.Duration `env:"STREAM_READ_BACKOFF" envDefault:"2s"`
	BatchSize      int64         `env:"STREAM_BATCH_SIZE" envDefault:"16"`
	RestartBackoff time.Duration `env:"CONSUMER_RESTART_BACKOFF" envDefault:"2s"`

	ReclaimInterval time.Duration `env:"RECLAIM_INTERVAL" envDefault:"1m"`
	ReclaimMinIdle  time.Duration `env:"RECLAIM_MIN_IDLE" envDefault:"5m"`
	ReclaimBatch    int64         `env:"RECLAIM_BATCH_SIZE" envDefault:"64"`

	AdminServerAddr string `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`

	JWTSecret string `env:"JWT_SECRET,required"`

	SMTPHost      string  `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort      int     `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string  `env:"SMTP_USERNAME"`
	SMTPPassword  string  `env:"SMTP_PASSWORD"`
	SMTPFrom      string  `env:"SMTP_FROM" envDefault:"no-reply@staffstream.local"`
	SMTPRateLimit float64 `env:"SMTP_RATE_LIMIT" envDefault:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
