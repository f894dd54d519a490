package persistence

import (
	"time"

	"github.com/shopspring/decimal"

	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/value"
)

// tradeSchema maps a row of the trades table.
type tradeSchema struct {
	DealID         string          `db:"deal_id"`
	CounterpartyID string          `db:"counterparty_id"`
	PlayerID       string          `db:"player_id"`
	Total          decimal.Decimal `db:"total"`
	CompletedAt    time.Time       `db:"completed_at"`
}

type tradeLineSchema struct {
	DealID    string          `db:"deal_id"`
	Position  int             `db:"position"`
	Item      string          `db:"item"`
	Material  string          `db:"material"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

func fromTrade(e entity.TradeCompleted) (tradeSchema, []tradeLineSchema) {
	trade := tradeSchema{
		DealID:         e.DealID.String(),
		CounterpartyID: e.CounterpartyID.String(),
		PlayerID:       e.PlayerID.String(),
		Total:          e.Total,
		CompletedAt:    e.CompletedAt,
	}

	lines := make([]tradeLineSchema, 0, len(e.Lines))
	for i, line := range e.Lines {
		lines = append(lines, tradeLineSchema{
			DealID:    trade.DealID,
			Position:  i,
			Item:      line.Item.String(),
			Material:  line.Material.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	return trade, lines
}

func (s tradeSchema) toDomain(lines []tradeLineSchema) entity.TradeCompleted {
	items := make([]entity.RequestItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.toDomain())
	}

	return entity.TradeCompleted{
		DealID:         value.DealID(s.DealID),
		CounterpartyID: value.CounterpartyID(s.CounterpartyID),
		PlayerID:       value.PlayerID(s.PlayerID),
		Total:          s.Total,
		Lines:          items,
		CompletedAt:    s.CompletedAt,
	}
}

func (s tradeLineSchema) toDomain() entity.RequestItem {
	return entity.RequestItem{
		Item:      value.ItemKind(s.Item),
		Material:  value.MaterialKind(s.Material),
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
	}
}
