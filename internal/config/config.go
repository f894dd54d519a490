package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	Log      Log
	HTTP     HTTP
	Probe    Probe
	Metrics  Metrics
	Registry Registry
	Colony   Colony
	Postgres Postgres
	Redis    Redis
	Queue    Queue
	Bot      Bot
}

type App struct {
	Name    string `env:"APP_NAME" envDefault:"item-requests"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

type Log struct {
	Level          string `env:"LOG_LEVEL" envDefault:"info"`
	NoColor        bool   `env:"LOG_NO_COLOR"`
	FieldMaxLength int    `env:"LOG_FIELD_MAX_LEN" envDefault:"2048"`
}

type HTTP struct {
	ListenAddress   string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
}

type Probe struct {
	ListenAddress string `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
}

type Metrics struct {
	ListenAddress string `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090"`
}

// Registry configures how long an untouched negotiation stays open. Zero
// keeps deals until they are settled or cancelled.
type Registry struct {
	IdleTTL         time.Duration `env:"DEAL_IDLE_TTL" envDefault:"0s"`
	CleanupInterval time.Duration `env:"DEAL_CLEANUP_INTERVAL" envDefault:"1m"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
