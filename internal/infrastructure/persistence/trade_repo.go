package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"item_requests/internal/domain"
	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/value"
	"item_requests/pkg/errcodes"
)

// TradeRepository is the ledger of completed trades.
type TradeRepository struct {
	db *sqlx.DB
}

func NewTradeRepository(db *sqlx.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

func (r *TradeRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// Record stores a completed trade with its lines. Recording the same deal
// twice is a no-op, so redelivered events are safe.
func (r *TradeRepository) Record(ctx context.Context, trade entity.TradeCompleted) error {
	schema, lines := fromTrade(trade)

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO trades (deal_id, counterparty_id, player_id, total, completed_at)
			VALUES (:deal_id, :counterparty_id, :player_id, :total, :completed_at)
			ON CONFLICT (deal_id) DO NOTHING`

		res, err := tx.NamedExecContext(ctx, query, schema)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to insert trade")
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
		}

		if rows == 0 || len(lines) == 0 {
			return nil
		}

		linesQuery := `
			INSERT INTO trade_lines (deal_id, position, item, material, quantity, unit_price)
			VALUES (:deal_id, :position, :item, :material, :quantity, :unit_price)`

		if _, err := tx.NamedExecContext(ctx, linesQuery, lines); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to insert trade lines")
		}

		return nil
	})
}

func (r *TradeRepository) Get(ctx context.Context, id value.DealID) (entity.TradeCompleted, error) {
	query := `
		SELECT deal_id, counterparty_id, player_id, total, completed_at
		FROM trades
		WHERE deal_id = $1`

	var schema tradeSchema
	if err := r.db.GetContext(ctx, &schema, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.TradeCompleted{}, domain.NewError(errcodes.NotFound, "trade not found")
		}
		return entity.TradeCompleted{}, domain.WrapError(err, errcodes.InternalServerError, "failed to get trade")
	}

	lines, err := r.lines(ctx, []string{schema.DealID})
	if err != nil {
		return entity.TradeCompleted{}, err
	}

	return schema.toDomain(lines[schema.DealID]), nil
}

// ListByCounterparty returns the latest trades with a counterparty, newest
// first.
func (r *TradeRepository) ListByCounterparty(
	ctx context.Context,
	id value.CounterpartyID,
	limit int,
) ([]entity.TradeCompleted, error) {
	query := `
		SELECT deal_id, counterparty_id, player_id, total, completed_at
		FROM trades
		WHERE counterparty_id = $1
		ORDER BY completed_at DESC
		LIMIT $2`

	var schemas []tradeSchema
	if err := r.db.SelectContext(ctx, &schemas, query, id.String(), limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list trades")
	}

	if len(schemas) == 0 {
		return nil, nil
	}

	lines, err := r.lines(ctx, lo.Map(schemas, func(s tradeSchema, _ int) string { return s.DealID }))
	if err != nil {
		return nil, err
	}

	trades := make([]entity.TradeCompleted, 0, len(schemas))
	for _, s := range schemas {
		trades = append(trades, s.toDomain(lines[s.DealID]))
	}

	return trades, nil
}

func (r *TradeRepository) lines(ctx context.Context, ids []string) (map[string][]tradeLineSchema, error) {
	query, args, err := sqlx.In(`
		SELECT deal_id, position, item, material, quantity, unit_price
		FROM trade_lines
		WHERE deal_id IN (?)
		ORDER BY deal_id, position`, ids)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to build query")
	}

	var schemas []tradeLineSchema
	if err := r.db.SelectContext(ctx, &schemas, r.db.Rebind(query), args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get trade lines")
	}

	return lo.GroupBy(schemas, func(s tradeLineSchema) string { return s.DealID }), nil
}
