package colony

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"item_requests/internal/domain"
	"item_requests/internal/domain/value"
	"item_requests/pkg/contextx"
	"item_requests/pkg/errcodes"
	"item_requests/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Behavior string

const (
	BehaviorTrading   Behavior = "trading"
	BehaviorLeaving   Behavior = "leaving"
	BehaviorLingering Behavior = "lingering"
)

func (b Behavior) String() string {
	return string(b)
}

// Caravan is a visiting trader. It hands goods to the stockpile of the colony
// it visits and is paid from it. A caravan without a stock list carries
// anything.
type Caravan struct {
	mu       sync.Mutex
	id       value.CounterpartyID
	dest     *Stockpile
	stock    map[goods]int
	purse    decimal.Decimal
	behavior Behavior
}

func NewCaravan(id value.CounterpartyID, dest *Stockpile) *Caravan {
	return &Caravan{
		id:       id,
		dest:     dest,
		purse:    decimal.Zero,
		behavior: BehaviorTrading,
	}
}

// WithStock limits what the caravan can hand over.
func (c *Caravan) WithStock(item value.ItemKind, material value.MaterialKind, quantity int) *Caravan {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stock == nil {
		c.stock = make(map[goods]int)
	}
	c.stock[goods{item: item, material: material}] += quantity

	return c
}

func (c *Caravan) ID() value.CounterpartyID {
	return c.id
}

func (c *Caravan) Transfer(ctx context.Context, item value.ItemKind, material value.MaterialKind, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stock != nil {
		key := goods{item: item, material: material}
		if c.stock[key] < quantity {
			return domain.Errorf(errcodes.OutOfStock, "%s carries %d %s, asked for %d", c.id, c.stock[key], item, quantity)
		}
		c.stock[key] -= quantity
	}

	c.dest.Receive(item, material, quantity)

	logger(ctx).Debug("caravan handed over goods",
		slog.String(logx.FieldCounterpartyID, c.id.String()),
		slog.String(logx.FieldItem, item.String()),
		slog.String(logx.FieldMaterial, material.String()),
		slog.Int(logx.FieldQuantity, quantity),
	)

	return nil
}

// Collect takes payment from the visited colony's stockpile.
func (c *Caravan) Collect(_ context.Context, player value.PlayerID, amount decimal.Decimal) error {
	if player != c.dest.Owner() {
		return domain.Errorf(errcodes.Forbidden, "%s is not trading with %s", c.id, player)
	}

	if err := c.dest.Debit(amount); err != nil {
		return err
	}

	c.mu.Lock()
	c.purse = c.purse.Add(amount)
	c.mu.Unlock()

	return nil
}

// Receive switches the caravan's behavior after a settlement attempt.
func (c *Caravan) Receive(ctx context.Context, signal value.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch signal {
	case value.SignalFulfilled:
		c.behavior = BehaviorLeaving
	case value.SignalUnfulfilled:
		c.behavior = BehaviorLingering
	case value.SignalNone:
		return
	}

	logger(ctx).Info("caravan behavior changed",
		slog.String(logx.FieldCounterpartyID, c.id.String()),
		slog.String(logx.FieldOutcome, c.behavior.String()),
	)
}

func (c *Caravan) Behavior() Behavior {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.behavior
}

func (c *Caravan) Purse() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.purse
}

// Stock reports the remaining stock of an item, or -1 when the caravan
// carries anything.
func (c *Caravan) Stock(item value.ItemKind, material value.MaterialKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stock == nil {
		return -1
	}

	return c.stock[goods{item: item, material: material}]
}

// Envoy is a faction visitor that talks but does not trade.
type Envoy struct {
	id value.CounterpartyID
}

func NewEnvoy(id value.CounterpartyID) Envoy {
	return Envoy{id: id}
}

func (e Envoy) ID() value.CounterpartyID {
	return e.id
}
