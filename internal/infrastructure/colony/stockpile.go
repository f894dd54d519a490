package colony

import (
	"sync"

	"github.com/shopspring/decimal"

	"item_requests/internal/domain"
	"item_requests/internal/domain/value"
	"item_requests/pkg/errcodes"
)

type goods struct {
	item     value.ItemKind
	material value.MaterialKind
}

// Stockpile is a player's storage: the silver they can spend and the goods
// traders have handed over.
type Stockpile struct {
	mu     sync.Mutex
	owner  value.PlayerID
	silver decimal.Decimal
	goods  map[goods]int
}

func NewStockpile(owner value.PlayerID, silver decimal.Decimal) *Stockpile {
	return &Stockpile{
		owner:  owner,
		silver: silver,
		goods:  make(map[goods]int),
	}
}

func (s *Stockpile) Owner() value.PlayerID {
	return s.owner
}

func (s *Stockpile) Silver() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.silver
}

// Count reports how many of the item are stored.
func (s *Stockpile) Count(item value.ItemKind, material value.MaterialKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.goods[goods{item: item, material: material}]
}

func (s *Stockpile) Receive(item value.ItemKind, material value.MaterialKind, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.goods[goods{item: item, material: material}] += quantity
}

func (s *Stockpile) Deposit(amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.silver = s.silver.Add(amount)
}

func (s *Stockpile) Debit(amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.silver.LessThan(amount) {
		return domain.Errorf(errcodes.InsufficientSilver, "%s has %s silver, needs %s",
			s.owner, s.silver.StringFixed(2), amount.StringFixed(2))
	}

	s.silver = s.silver.Sub(amount)

	return nil
}
