package config

import "github.com/shopspring/decimal"

// Colony seeds the map the service trades on: one player stockpile, the
// visiting traders and the visitors that only talk.
type Colony struct {
	Player  string          `env:"COLONY_PLAYER" envDefault:"new-arrivals"`
	Silver  decimal.Decimal `env:"COLONY_SILVER" envDefault:"500"`
	Traders []string        `env:"COLONY_TRADERS" envDefault:"outlander-caravan" envSeparator:","`
	Envoys  []string        `env:"COLONY_ENVOYS" envSeparator:","`
	Stock   map[string]int  `env:"COLONY_TRADER_STOCK" envSeparator:"," envKeyValSeparator:"="`
}
