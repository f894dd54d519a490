package config

// Redis backs the standings and the trade queue. Without an address both are
// disabled and trades are booked inline.
type Redis struct {
	Address            string `env:"REDIS_ADDRESS"`
	Username           string `env:"REDIS_USERNAME"`
	Password           string `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber     int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize           int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConnections int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	MaxIdleConnections int    `env:"REDIS_MAX_IDLE_CONNS" envDefault:"5"`
}

func (r Redis) Enabled() bool {
	return r.Address != ""
}

type Queue struct {
	Name        string `env:"QUEUE_NAME" envDefault:"trades"`
	MaxRetry    int    `env:"QUEUE_MAX_RETRY" envDefault:"10"`
	Concurrency int    `env:"QUEUE_CONCURRENCY" envDefault:"4"`
}
