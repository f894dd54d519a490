package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"item_requests/internal/domain/value"
)

// TradeCompleted is published once per settled deal for relationship and
// history bookkeeping.
type TradeCompleted struct {
	DealID         value.DealID         `json:"deal_id"`
	CounterpartyID value.CounterpartyID `json:"counterparty_id"`
	PlayerID       value.PlayerID       `json:"player_id"`
	Total          decimal.Decimal      `json:"total"`
	Lines          []RequestItem        `json:"lines"`
	CompletedAt    time.Time            `json:"completed_at"`
}
