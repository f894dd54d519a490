package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"item_requests/internal/domain"
	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/value"
	"item_requests/pkg/contextx"
	"item_requests/pkg/errcodes"
	"item_requests/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// DeliveryChannel materializes goods and hands them to the player. Each call
// either succeeds or reports a fault for that one line.
type DeliveryChannel interface {
	Transfer(ctx context.Context, item value.ItemKind, material value.MaterialKind, quantity int) error
}

// Result describes one settlement attempt. Delivered and Faults are only
// populated when funds covered the bill.
type Result struct {
	DealID    value.DealID
	Outcome   value.Outcome
	Signal    value.Signal
	Total     decimal.Decimal
	Funds     decimal.Decimal
	Delivered []entity.RequestItem
	Faults    []*DeliveryFault
}

// Engine settles deals. It touches nothing but the delivery channel: closing
// the deal, charging and notifying are left to the caller.
type Engine struct{}

func NewEngine() Engine {
	return Engine{}
}

// Settle compares funds with the deal total and, when they cover it, hands
// every line over in insertion order. Insufficient funds is an ordinary
// result, not an error. A returned error is either a closed deal or a
// DeliveryFault; in the latter case Result lists what was delivered before
// and after the failing lines. Nothing is rolled back.
func (Engine) Settle(
	ctx context.Context,
	deal *entity.Deal,
	funds decimal.Decimal,
	channel DeliveryChannel,
) (Result, error) {
	if deal.Closed() {
		return Result{}, domain.Errorf(errcodes.DealClosed, "deal %s is closed", deal.ID)
	}

	total := deal.Total()
	result := Result{
		DealID: deal.ID,
		Total:  total,
		Funds:  funds,
	}

	log := logger(ctx).With(
		slog.String(logx.FieldDealID, deal.ID.String()),
		slog.String(logx.FieldCounterpartyID, deal.CounterpartyID.String()),
	)

	if funds.LessThan(total) {
		log.Info("colony cannot afford requested items",
			logx.Money(logx.FieldFunds, funds),
			logx.Money(logx.FieldTotal, total),
		)

		return result.finish(value.OutcomeRejected), nil
	}

	lines := deal.Lines()

	if len(lines) > 0 && channel == nil {
		result.Faults = lo.Map(lines, func(line entity.RequestItem, i int) *DeliveryFault {
			return &DeliveryFault{Index: i, Line: line, Err: errNoChannel}
		})

		return result.finish(value.OutcomeFaulted), result.faultError(len(lines))
	}

	for i, line := range lines {
		if err := channel.Transfer(ctx, line.Item, line.Material, line.Quantity); err != nil {
			log.Error("trader failed to hand over line",
				slog.String(logx.FieldItem, line.Item.String()),
				slog.Int(logx.FieldQuantity, line.Quantity),
				logx.Error(err),
			)

			result.Faults = append(result.Faults, &DeliveryFault{Index: i, Line: line, Err: err})

			continue
		}

		log.Debug("handed over line",
			slog.String(logx.FieldItem, line.Item.String()),
			slog.String(logx.FieldMaterial, line.Material.String()),
			slog.Int(logx.FieldQuantity, line.Quantity),
		)

		result.Delivered = append(result.Delivered, line)
	}

	if len(result.Faults) > 0 {
		return result.finish(value.OutcomeFaulted), result.faultError(len(lines))
	}

	log.Info("trade successful", slog.Int(logx.FieldLines, len(lines)), logx.Money(logx.FieldTotal, total))

	return result.finish(value.OutcomeSettled), nil
}

// DeliveredTotal is what the lines actually handed over are worth. It equals
// Total only when every line was delivered.
func (r Result) DeliveredTotal() decimal.Decimal {
	return lo.Reduce(r.Delivered, func(total decimal.Decimal, line entity.RequestItem, _ int) decimal.Decimal {
		return total.Add(line.LineTotal())
	}, decimal.Zero)
}

func (r Result) finish(outcome value.Outcome) Result {
	r.Outcome = outcome
	r.Signal = value.SignalFor(outcome)
	return r
}

func (r Result) faultError(lines int) error {
	errs := lo.Map(r.Faults, func(f *DeliveryFault, _ int) error { return f })

	return domain.WrapError(
		errors.Join(errs...),
		errcodes.DeliveryFault,
		fmt.Sprintf("%d of %d lines not delivered", len(r.Faults), lines),
	)
}
