package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"
	"github.com/samber/lo"

	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/value"
	"item_requests/internal/infrastructure/standing"
	"item_requests/pkg/errcodes"
	"item_requests/pkg/httpx/reply"
	"item_requests/pkg/rest"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type tradeLedger interface {
	ListByCounterparty(ctx context.Context, id value.CounterpartyID, limit int) ([]entity.TradeCompleted, error)
}

type standingStore interface {
	Top(ctx context.Context, id value.CounterpartyID, n int64) ([]standing.Standing, error)
}

// HistoryServer exposes completed trades and standings. Both sources are
// optional; a missing one answers 404.
type HistoryServer struct {
	ledger    tradeLedger
	standings standingStore
}

func NewHistoryServer() HistoryServer {
	return HistoryServer{}
}

func (s HistoryServer) WithLedger(ledger tradeLedger) HistoryServer {
	s.ledger = ledger
	return s
}

func (s HistoryServer) WithStandings(standings standingStore) HistoryServer {
	s.standings = standings
	return s
}

func (s HistoryServer) getV1Trades(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if s.ledger == nil {
		return errNotConfigured("trade ledger")
	}

	id, err := counterpartyID(r)
	if err != nil {
		return err
	}

	limit, err := historyLimit(r)
	if err != nil {
		return err
	}

	trades, err := s.ledger.ListByCounterparty(ctx, id, limit)
	if err != nil {
		return fmt.Errorf("ledger.ListByCounterparty: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lo.Map(trades, func(trade entity.TradeCompleted, _ int) rest.Trade {
		return newRESTTrade(trade)
	}))

	return nil
}

func (s HistoryServer) getV1Standings(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if s.standings == nil {
		return errNotConfigured("standings")
	}

	id, err := counterpartyID(r)
	if err != nil {
		return err
	}

	limit, err := historyLimit(r)
	if err != nil {
		return err
	}

	top, err := s.standings.Top(ctx, id, int64(limit))
	if err != nil {
		return fmt.Errorf("standings.Top: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lo.Map(top, func(st standing.Standing, _ int) rest.Standing {
		return rest.Standing{
			PlayerID: st.PlayerID.String(),
			Traded:   st.Traded.StringFixed(2),
		}
	}))

	return nil
}

func historyLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxHistoryLimit {
		return 0, failure.NewInvalidArgumentError(
			"invalid limit",
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)),
		)
	}

	return limit, nil
}

func newRESTTrade(trade entity.TradeCompleted) rest.Trade {
	return rest.Trade{
		DealID:         trade.DealID.String(),
		CounterpartyID: trade.CounterpartyID.String(),
		PlayerID:       trade.PlayerID.String(),
		Total:          trade.Total.StringFixed(2),
		Lines:          newRESTDealLines(trade.Lines),
		CompletedAt:    trade.CompletedAt,
	}
}
