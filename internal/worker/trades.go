package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"item_requests/internal/domain/entity"
	"item_requests/pkg/contextx"
	"item_requests/pkg/logx"
)

// TaskTradeCompleted is the asynq task type carrying an entity.TradeCompleted.
const TaskTradeCompleted = "trade:completed"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Ledger interface {
	Record(ctx context.Context, trade entity.TradeCompleted) error
}

type Standings interface {
	Record(ctx context.Context, trade entity.TradeCompleted) error
}

type Announcer interface {
	Announce(ctx context.Context, trade entity.TradeCompleted) error
}

// Bookkeeper records what happened after a trade: the ledger row, the
// standing with the trader and the chat announcement. Any of them may be
// left out.
type Bookkeeper struct {
	ledger    Ledger
	standings Standings
	announcer Announcer
}

func NewBookkeeper() *Bookkeeper {
	return &Bookkeeper{}
}

func (b *Bookkeeper) WithLedger(ledger Ledger) *Bookkeeper {
	b.ledger = ledger
	return b
}

func (b *Bookkeeper) WithStandings(standings Standings) *Bookkeeper {
	b.standings = standings
	return b
}

func (b *Bookkeeper) WithAnnouncer(announcer Announcer) *Bookkeeper {
	b.announcer = announcer
	return b
}

// Handle runs every configured step and reports all failures together.
// The ledger and standings are idempotent per deal, so a retry after a
// partial failure is safe.
func (b *Bookkeeper) Handle(ctx context.Context, trade entity.TradeCompleted) error {
	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldDealID, trade.DealID.String())))

	var errs []error

	if b.ledger != nil {
		if err := b.ledger.Record(ctx, trade); err != nil {
			errs = append(errs, fmt.Errorf("ledger.Record: %w", err))
		}
	}

	if b.standings != nil {
		if err := b.standings.Record(ctx, trade); err != nil {
			errs = append(errs, fmt.Errorf("standings.Record: %w", err))
		}
	}

	// Announcing twice is only noise, so it goes last and never fails the task.
	if b.announcer != nil && len(errs) == 0 {
		if err := b.announcer.Announce(ctx, trade); err != nil {
			logger(ctx).Error("announce trade", logx.Error(err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		logger(ctx).Error("bookkeeping failed", logx.Error(err))
		return err
	}

	logger(ctx).Info("trade booked",
		slog.String(logx.FieldCounterpartyID, trade.CounterpartyID.String()),
		slog.String(logx.FieldPlayerID, trade.PlayerID.String()),
		logx.Money(logx.FieldTotal, trade.Total),
	)

	return nil
}

// HandleTask is the asynq entry point for TaskTradeCompleted.
func (b *Bookkeeper) HandleTask(ctx context.Context, task *asynq.Task) error {
	var trade entity.TradeCompleted
	if err := jsoniter.Unmarshal(task.Payload(), &trade); err != nil {
		return fmt.Errorf("jsoniter.Unmarshal: %w: %w", err, asynq.SkipRetry)
	}

	return b.Handle(ctx, trade)
}

// QueuePublisher enqueues completed trades for the bookkeeping worker.
type QueuePublisher struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

func NewQueuePublisher(client *asynq.Client, queue string, maxRetry int) *QueuePublisher {
	return &QueuePublisher{
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
	}
}

func (p *QueuePublisher) PublishTradeCompleted(ctx context.Context, trade entity.TradeCompleted) error {
	payload, err := jsoniter.Marshal(trade)
	if err != nil {
		return fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	task := asynq.NewTask(TaskTradeCompleted, payload,
		asynq.Queue(p.queue),
		asynq.MaxRetry(p.maxRetry),
		asynq.TaskID(trade.DealID.String()),
	)

	info, err := p.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("asynq.Enqueue: %w", err)
	}

	logger(ctx).Debug("trade enqueued",
		slog.String(logx.FieldDealID, trade.DealID.String()),
		slog.String(logx.FieldTaskID, info.ID),
	)

	return nil
}

// InlinePublisher books trades synchronously when no queue is configured.
type InlinePublisher struct {
	bookkeeper *Bookkeeper
}

func NewInlinePublisher(bookkeeper *Bookkeeper) *InlinePublisher {
	return &InlinePublisher{bookkeeper: bookkeeper}
}

func (p *InlinePublisher) PublishTradeCompleted(ctx context.Context, trade entity.TradeCompleted) error {
	return p.bookkeeper.Handle(ctx, trade)
}
