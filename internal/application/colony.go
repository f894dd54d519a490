package application

import (
	"fmt"

	"item_requests/internal/config"
	"item_requests/internal/domain/value"
	"item_requests/internal/infrastructure/colony"
	"item_requests/pkg/lox"
)

// NewWorld seeds the map from config: the player's stockpile, the visiting
// caravans and the envoys.
func NewWorld(cfg config.Colony) (*colony.World, error) {
	if cfg.Player == "" {
		return nil, fmt.Errorf("colony player: empty")
	}

	if cfg.Silver.IsNegative() {
		return nil, fmt.Errorf("colony silver: negative %s", cfg.Silver)
	}

	traders, err := lox.MapErr(cfg.Traders, value.ParseCounterpartyID)
	if err != nil {
		return nil, fmt.Errorf("colony trader: %w", err)
	}

	envoys, err := lox.MapErr(cfg.Envoys, value.ParseCounterpartyID)
	if err != nil {
		return nil, fmt.Errorf("colony envoy: %w", err)
	}

	world := colony.NewWorld()
	stockpile := colony.NewStockpile(value.PlayerID(cfg.Player), cfg.Silver)
	world.AddStockpile(stockpile)

	for _, id := range traders {
		caravan := colony.NewCaravan(id, stockpile)
		for item, quantity := range cfg.Stock {
			caravan.WithStock(value.ItemKind(item), "", quantity)
		}

		world.Arrive(caravan)
	}

	for _, id := range envoys {
		world.Arrive(colony.NewEnvoy(id))
	}

	return world, nil
}
