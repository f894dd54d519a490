package request

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"item_requests/internal/domain"
	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/service/fulfillment"
	"item_requests/internal/domain/value"
	"item_requests/pkg/contextx"
	"item_requests/pkg/errcodes"
	"item_requests/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Receipt is what the player sees after confirming a deal.
type Receipt struct {
	fulfillment.Result
	CounterpartyID value.CounterpartyID
	PlayerID       value.PlayerID
	// Trade is set whenever delivered goods were paid for, including the
	// delivered part of a faulted deal.
	Trade *entity.TradeCompleted
}

// session keeps the handles resolved when the negotiation was opened, so
// settlement never has to re-check what the counterparty can do.
type session struct {
	player      value.PlayerID
	trader      Trader
	coordinator Coordinator
}

// Service drives negotiations: it owns the registry, runs the engine on
// confirmation and routes the outcome to the coordinator and publisher.
// Mutating calls are serialized.
type Service struct {
	mu        sync.Mutex
	registry  *Registry
	engine    fulfillment.Engine
	roster    Roster
	funds     FundsSource
	publisher TradePublisher
	metrics   *Metrics
	sessions  map[value.CounterpartyID]session
	now       func() time.Time
}

func NewService(registry *Registry, roster Roster, funds FundsSource) *Service {
	return &Service{
		registry: registry,
		engine:   fulfillment.NewEngine(),
		roster:   roster,
		funds:    funds,
		sessions: make(map[value.CounterpartyID]session),
		now:      time.Now,
	}
}

func (s *Service) WithPublisher(publisher TradePublisher) *Service {
	s.publisher = publisher
	return s
}

func (s *Service) WithMetrics(metrics *Metrics) *Service {
	s.metrics = metrics
	return s
}

// Open starts (or resumes) the negotiation with a counterparty.
func (s *Service) Open(ctx context.Context, id value.CounterpartyID, player value.PlayerID) (entity.DealView, error) {
	party, err := s.roster.Counterparty(ctx, id)
	if err != nil {
		return entity.DealView{}, fmt.Errorf("roster.Counterparty: %w", err)
	}

	trader, ok := party.(Trader)
	if !ok {
		return entity.DealView{}, domain.Errorf(errcodes.CounterpartyCannotTrade, "%s does not trade", id)
	}

	coordinator, _ := party.(Coordinator)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(ctx)

	if current, ok := s.sessions[id]; ok && current.player != player && s.registry.HasOpenDeal(id) {
		return entity.DealView{}, domain.Errorf(errcodes.Forbidden, "%s is negotiating with %s", id, current.player)
	}

	existed := s.registry.HasOpenDeal(id)

	deal, err := s.registry.OpenDeal(id)
	if err != nil {
		logger(ctx).Error("registry invariant broken", slog.String(logx.FieldCounterpartyID, id.String()), logx.Error(err))
		return entity.DealView{}, err
	}

	s.sessions[id] = session{
		player:      player,
		trader:      trader,
		coordinator: coordinator,
	}

	if !existed {
		s.metrics.dealOpened()
		logger(ctx).Info("negotiation opened",
			slog.String(logx.FieldCounterpartyID, id.String()),
			slog.String(logx.FieldPlayerID, player.String()),
			slog.String(logx.FieldDealID, deal.ID.String()),
		)
	}

	return deal.View(), nil
}

// AddLine appends a line to the open deal with the counterparty.
func (s *Service) AddLine(
	ctx context.Context,
	id value.CounterpartyID,
	player value.PlayerID,
	item entity.RequestItem,
) (entity.DealView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, deal, err := s.negotiation(id, player)
	if err != nil {
		return entity.DealView{}, err
	}

	if err := deal.AddLine(item); err != nil {
		return entity.DealView{}, fmt.Errorf("deal.AddLine: %w", err)
	}

	s.registry.Touch(deal)

	logger(ctx).Debug("line requested",
		slog.String(logx.FieldDealID, deal.ID.String()),
		slog.String(logx.FieldItem, item.Item.String()),
		slog.Int(logx.FieldQuantity, item.Quantity),
		logx.Money(logx.FieldTotal, deal.Total()),
	)

	return deal.View(), nil
}

// Deal returns a snapshot of the open deal for display.
func (s *Service) Deal(_ context.Context, id value.CounterpartyID) (entity.DealView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.registry.Deal(id)
	if !ok {
		return entity.DealView{}, domain.Errorf(errcodes.NegotiationNotOpen, "no open deal with %s", id)
	}

	return deal.View(), nil
}

// Confirm settles the open deal once. Rejected is returned without error;
// a delivery or payment fault is returned as an error together with the
// receipt describing what was handed over.
//
// Once anything has been handed over the negotiation is over: the delivered
// lines are charged, the deal is released and the partial trade published.
// Only a settlement that delivered nothing leaves the deal open for a retry.
func (s *Service) Confirm(ctx context.Context, id value.CounterpartyID, player value.PlayerID) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, deal, err := s.negotiation(id, player)
	if err != nil {
		return Receipt{}, err
	}

	funds, err := s.funds.Balance(ctx, sess.player)
	if err != nil {
		return Receipt{}, domain.WrapError(err, errcodes.FundsUnavailable, "read stockpile balance")
	}

	result, settleErr := s.engine.Settle(ctx, deal, funds, sess.trader)

	receipt := Receipt{
		CounterpartyID: id,
		PlayerID:       sess.player,
	}

	switch {
	case result.Outcome == value.OutcomePending:
		return receipt, settleErr
	case result.Outcome == value.OutcomeSettled, len(result.Delivered) > 0:
		if err := s.complete(ctx, sess, deal, &result, &receipt); err != nil {
			settleErr = err
		}
	default:
		s.signal(ctx, sess, id, result.Signal)
	}

	s.metrics.observe(result)
	receipt.Result = result

	return receipt, settleErr
}

// Cancel closes the negotiation without trading. Cancelling a negotiation
// that is not open is fine; cancelling another player's is not.
func (s *Service) Cancel(ctx context.Context, id value.CounterpartyID, player value.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(ctx)

	if sess, ok := s.sessions[id]; ok && sess.player != player && s.registry.HasOpenDeal(id) {
		return domain.Errorf(errcodes.Forbidden, "%s is negotiating with %s", id, sess.player)
	}

	if s.registry.HasOpenDeal(id) {
		logger(ctx).Info("negotiation cancelled",
			slog.String(logx.FieldCounterpartyID, id.String()),
			slog.String(logx.FieldPlayerID, player.String()),
		)
	}

	s.registry.CloseDeal(id)
	delete(s.sessions, id)

	return nil
}

// complete charges for what was delivered and ends the negotiation. Goods
// handed over stay handed over, so the deal is released even when the
// trader refuses the payment.
func (s *Service) complete(
	ctx context.Context,
	sess session,
	deal *entity.Deal,
	result *fulfillment.Result,
	receipt *Receipt,
) error {
	owed := result.DeliveredTotal()

	var payErr error

	if !owed.IsZero() {
		if err := sess.trader.Collect(ctx, sess.player, owed); err != nil {
			result.Outcome = value.OutcomeFaulted
			result.Signal = value.SignalFor(result.Outcome)
			payErr = domain.WrapError(err, errcodes.PaymentFailed, "trader refused payment")
		}
	}

	if err := s.registry.Release(deal); err != nil {
		logger(ctx).Error("registry invariant broken", slog.String(logx.FieldDealID, deal.ID.String()), logx.Error(err))
		return err
	}

	delete(s.sessions, deal.CounterpartyID)
	s.signal(ctx, sess, deal.CounterpartyID, result.Signal)

	if payErr != nil {
		logger(ctx).Error("delivered goods left unpaid",
			slog.String(logx.FieldDealID, deal.ID.String()),
			logx.Money(logx.FieldTotal, owed),
			logx.Error(payErr),
		)

		return payErr
	}

	s.metrics.settled(owed)

	event := entity.TradeCompleted{
		DealID:         deal.ID,
		CounterpartyID: deal.CounterpartyID,
		PlayerID:       sess.player,
		Total:          owed,
		Lines:          result.Delivered,
		CompletedAt:    s.now(),
	}
	receipt.Trade = &event

	if s.publisher == nil {
		return nil
	}

	// Bookkeeping must not undo a trade that already happened.
	if err := s.publisher.PublishTradeCompleted(ctx, event); err != nil {
		logger(ctx).Error("publish trade completed",
			slog.String(logx.FieldDealID, deal.ID.String()),
			logx.Error(err),
		)
	}

	return nil
}

// Sweep closes negotiations that sat idle past the registry TTL and returns
// how many there were.
func (s *Service) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sweep(ctx)
}

func (s *Service) sweep(ctx context.Context) int {
	expired := s.registry.Sweep()

	for _, deal := range expired {
		if !s.registry.HasOpenDeal(deal.CounterpartyID) {
			delete(s.sessions, deal.CounterpartyID)
		}

		logger(ctx).Info("negotiation expired",
			slog.String(logx.FieldCounterpartyID, deal.CounterpartyID.String()),
			slog.String(logx.FieldDealID, deal.ID.String()),
		)
	}

	return len(expired)
}

func (s *Service) signal(ctx context.Context, sess session, id value.CounterpartyID, signal value.Signal) {
	logger(ctx).Debug("signal coordinator",
		slog.String(logx.FieldCounterpartyID, id.String()),
		slog.String(logx.FieldOutcome, signal.String()),
	)

	if sess.coordinator != nil {
		sess.coordinator.Receive(ctx, signal)
	}
}

func (s *Service) negotiation(id value.CounterpartyID, player value.PlayerID) (session, *entity.Deal, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return session{}, nil, domain.Errorf(errcodes.NegotiationNotOpen, "no open negotiation with %s", id)
	}

	deal, ok := s.registry.Deal(id)
	if !ok {
		delete(s.sessions, id)
		return session{}, nil, domain.Errorf(errcodes.NegotiationNotOpen, "negotiation with %s expired", id)
	}

	if sess.player != player {
		return session{}, nil, domain.Errorf(errcodes.Forbidden, "%s is negotiating with %s", id, sess.player)
	}

	return sess, deal, nil
}
