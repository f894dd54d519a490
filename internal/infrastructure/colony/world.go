package colony

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"item_requests/internal/domain"
	"item_requests/internal/domain/service/request"
	"item_requests/internal/domain/value"
	"item_requests/pkg/errcodes"
)

// World holds the stockpiles of the players and the counterparties currently
// on the map. It serves as both the roster and the funds source.
type World struct {
	mu         sync.RWMutex
	stockpiles map[value.PlayerID]*Stockpile
	parties    map[value.CounterpartyID]request.Counterparty
}

func NewWorld() *World {
	return &World{
		stockpiles: make(map[value.PlayerID]*Stockpile),
		parties:    make(map[value.CounterpartyID]request.Counterparty),
	}
}

func (w *World) AddStockpile(stockpile *Stockpile) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stockpiles[stockpile.Owner()] = stockpile
}

func (w *World) Stockpile(player value.PlayerID) (*Stockpile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stockpile, ok := w.stockpiles[player]

	return stockpile, ok
}

func (w *World) Arrive(party request.Counterparty) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.parties[party.ID()] = party
}

func (w *World) Depart(id value.CounterpartyID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.parties, id)
}

func (w *World) Counterparty(_ context.Context, id value.CounterpartyID) (request.Counterparty, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	party, ok := w.parties[id]
	if !ok {
		return nil, domain.Errorf(errcodes.CounterpartyNotFound, "%s is not on the map", id)
	}

	return party, nil
}

func (w *World) Balance(_ context.Context, player value.PlayerID) (decimal.Decimal, error) {
	stockpile, ok := w.Stockpile(player)
	if !ok {
		return decimal.Zero, domain.Errorf(errcodes.NotFound, "%s has no stockpile", player)
	}

	return stockpile.Silver(), nil
}
