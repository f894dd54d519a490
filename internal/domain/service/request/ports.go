package request

import (
	"context"

	"github.com/shopspring/decimal"

	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/service/fulfillment"
	"item_requests/internal/domain/value"
)

// Counterparty is anyone a player can open a negotiation with.
type Counterparty interface {
	ID() value.CounterpartyID
}

// Trader is a counterparty able to hand goods over and take payment through
// its own accounting.
type Trader interface {
	Counterparty
	fulfillment.DeliveryChannel
	Collect(ctx context.Context, player value.PlayerID, amount decimal.Decimal) error
}

// Coordinator picks the counterparty's next behavior after a settlement
// attempt. It must not block.
type Coordinator interface {
	Receive(ctx context.Context, signal value.Signal)
}

type Roster interface {
	Counterparty(ctx context.Context, id value.CounterpartyID) (Counterparty, error)
}

// FundsSource reports the currency stockpile available to a player.
type FundsSource interface {
	Balance(ctx context.Context, player value.PlayerID) (decimal.Decimal, error)
}

type TradePublisher interface {
	PublishTradeCompleted(ctx context.Context, event entity.TradeCompleted) error
}
