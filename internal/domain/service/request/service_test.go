package request_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"item_requests/internal/domain"
	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/service/fulfillment"
	"item_requests/internal/domain/service/request"
	"item_requests/internal/domain/value"
	"item_requests/pkg/errcodes"
)

const (
	player  value.PlayerID       = "colony-1"
	caravan value.CounterpartyID = "outlander-caravan"
)

type fakeTrader struct {
	id         value.CounterpartyID
	transfers  []value.ItemKind
	quantities []int
	failOn     value.ItemKind
	collected  decimal.Decimal
	collectErr error
	signals    []value.Signal
}

func (f *fakeTrader) ID() value.CounterpartyID { return f.id }

func (f *fakeTrader) Transfer(_ context.Context, item value.ItemKind, _ value.MaterialKind, quantity int) error {
	if item == f.failOn {
		return errors.New("dropped " + item.String())
	}

	f.transfers = append(f.transfers, item)
	f.quantities = append(f.quantities, quantity)

	return nil
}

func (f *fakeTrader) Collect(_ context.Context, _ value.PlayerID, amount decimal.Decimal) error {
	if f.collectErr != nil {
		return f.collectErr
	}

	f.collected = f.collected.Add(amount)

	return nil
}

func (f *fakeTrader) Receive(_ context.Context, signal value.Signal) {
	f.signals = append(f.signals, signal)
}

type envoy struct{ id value.CounterpartyID }

func (e envoy) ID() value.CounterpartyID { return e.id }

type fakeRoster map[value.CounterpartyID]request.Counterparty

func (r fakeRoster) Counterparty(_ context.Context, id value.CounterpartyID) (request.Counterparty, error) {
	party, ok := r[id]
	if !ok {
		return nil, domain.NewError(errcodes.CounterpartyNotFound, "unknown counterparty")
	}

	return party, nil
}

type fakeFunds struct {
	balance decimal.Decimal
	err     error
}

func (f *fakeFunds) Balance(context.Context, value.PlayerID) (decimal.Decimal, error) {
	return f.balance, f.err
}

type fakePublisher struct {
	events []entity.TradeCompleted
	err    error
}

func (p *fakePublisher) PublishTradeCompleted(_ context.Context, event entity.TradeCompleted) error {
	p.events = append(p.events, event)
	return p.err
}

type fixture struct {
	registry  *request.Registry
	service   *request.Service
	trader    *fakeTrader
	funds     *fakeFunds
	publisher *fakePublisher
	metrics   *prometheus.Registry
}

func newFixture(balance string) fixture {
	return newFixtureWithRegistry(balance, request.RegistryOptions{})
}

func newFixtureWithRegistry(balance string, opts request.RegistryOptions) fixture {
	registry := request.NewRegistry(opts)
	trader := &fakeTrader{id: caravan}
	funds := &fakeFunds{balance: decimal.RequireFromString(balance)}
	publisher := &fakePublisher{}
	reg := prometheus.NewRegistry()

	roster := fakeRoster{
		caravan:  trader,
		"envoys": envoy{id: "envoys"},
	}

	service := request.NewService(registry, roster, funds).
		WithPublisher(publisher).
		WithMetrics(request.NewMetrics(reg, registry))

	return fixture{
		registry:  registry,
		service:   service,
		trader:    trader,
		funds:     funds,
		publisher: publisher,
		metrics:   reg,
	}
}

func (f fixture) requestMetalBars(t *testing.T) *entity.Deal {
	t.Helper()

	ctx := context.Background()

	_, err := f.service.Open(ctx, caravan, player)
	require.NoError(t, err)

	_, err = f.service.AddLine(ctx, caravan, player, entity.RequestItem{
		Item:      "MetalBar",
		Quantity:  10,
		UnitPrice: decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)

	deal, ok := f.registry.Deal(caravan)
	require.True(t, ok)

	return deal
}

func TestConfirmScenarioASettles(t *testing.T) {
	rq := require.New(t)
	f := newFixture("25.00")
	deal := f.requestMetalBars(t)

	receipt, err := f.service.Confirm(context.Background(), caravan, player)
	rq.NoError(err)
	rq.Equal(value.OutcomeSettled, receipt.Outcome)
	rq.Equal([]value.ItemKind{"MetalBar"}, f.trader.transfers)
	rq.Equal([]int{10}, f.trader.quantities)
	rq.False(f.registry.HasOpenDeal(caravan))
	rq.True(deal.Closed())

	rq.True(decimal.RequireFromString("25").Equal(f.trader.collected))
	rq.Equal([]value.Signal{value.SignalFulfilled}, f.trader.signals)

	rq.Len(f.publisher.events, 1)
	event := f.publisher.events[0]
	rq.Equal(caravan, event.CounterpartyID)
	rq.Equal(player, event.PlayerID)
	rq.Equal(deal.ID, event.DealID)
	rq.True(decimal.RequireFromString("25").Equal(event.Total))
	rq.Equal(receipt.Trade, &event)

	requireSettlements(t, f, "settled")
	requireOpenDeals(t, f, 0)
}

func TestConfirmScenarioBRejects(t *testing.T) {
	rq := require.New(t)
	f := newFixture("24.99")
	deal := f.requestMetalBars(t)
	linesBefore := deal.Lines()

	receipt, err := f.service.Confirm(context.Background(), caravan, player)
	rq.NoError(err)
	rq.Equal(value.OutcomeRejected, receipt.Outcome)
	rq.Empty(f.trader.transfers)
	rq.True(f.trader.collected.IsZero())
	rq.Equal([]value.Signal{value.SignalUnfulfilled}, f.trader.signals)
	rq.Empty(f.publisher.events)
	rq.Nil(receipt.Trade)

	rq.True(f.registry.HasOpenDeal(caravan))
	open, err := f.service.Deal(context.Background(), caravan)
	rq.NoError(err)
	rq.Equal(deal.ID, open.ID)
	rq.Equal(linesBefore, open.Lines)
	rq.True(decimal.RequireFromString("25").Equal(open.Total))

	// More silver arrives: the player may try again with the same deal.
	f.funds.balance = decimal.RequireFromString("30")

	receipt, err = f.service.Confirm(context.Background(), caravan, player)
	rq.NoError(err)
	rq.Equal(value.OutcomeSettled, receipt.Outcome)
	rq.Equal([]value.Signal{value.SignalUnfulfilled, value.SignalFulfilled}, f.trader.signals)
}

func TestConfirmScenarioCEmptyDeal(t *testing.T) {
	rq := require.New(t)
	f := newFixture("0")

	_, err := f.service.Open(context.Background(), caravan, player)
	rq.NoError(err)

	receipt, err := f.service.Confirm(context.Background(), caravan, player)
	rq.NoError(err)
	rq.Equal(value.OutcomeSettled, receipt.Outcome)
	rq.Empty(f.trader.transfers)
	rq.True(f.trader.collected.IsZero())
	rq.False(f.registry.HasOpenDeal(caravan))
	rq.Len(f.publisher.events, 1)
}

func TestConfirmScenarioDDeliveryFault(t *testing.T) {
	rq := require.New(t)
	f := newFixture("100")
	f.trader.failOn = "Steel"

	deal := f.requestMetalBars(t)
	_, err := f.service.AddLine(context.Background(), caravan, player, entity.RequestItem{
		Item:      "Steel",
		Quantity:  5,
		UnitPrice: decimal.RequireFromString("1.90"),
	})
	rq.NoError(err)

	receipt, err := f.service.Confirm(context.Background(), caravan, player)
	rq.True(domain.HasCode(err, errcodes.DeliveryFault))

	faults := fulfillment.Faults(err)
	rq.Len(faults, 1)
	rq.Equal(1, faults[0].Index)

	rq.Equal(value.OutcomeFaulted, receipt.Outcome)
	rq.Equal([]value.ItemKind{"MetalBar"}, f.trader.transfers)
	rq.Len(receipt.Delivered, 1)
	rq.True(decimal.RequireFromString("34.50").Equal(receipt.Total))
	rq.True(decimal.RequireFromString("25").Equal(f.trader.collected))
	rq.Equal([]value.Signal{value.SignalUnfulfilled}, f.trader.signals)
	rq.False(f.registry.HasOpenDeal(caravan))
	rq.True(deal.Closed())

	rq.Len(f.publisher.events, 1)
	event := f.publisher.events[0]
	rq.Equal(deal.ID, event.DealID)
	rq.True(decimal.RequireFromString("25").Equal(event.Total))
	rq.Len(event.Lines, 1)
	rq.Equal(value.ItemKind("MetalBar"), event.Lines[0].Item)
	rq.Equal(receipt.Trade, &event)

	requireSettlements(t, f, "faulted")
	requireOpenDeals(t, f, 0)
}

func TestConfirmFaultedDealTwice(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture("100")
	f.trader.failOn = "Steel"

	f.requestMetalBars(t)
	_, err := f.service.AddLine(ctx, caravan, player, entity.RequestItem{
		Item:      "Steel",
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("1.90"),
	})
	rq.NoError(err)

	_, err = f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.DeliveryFault))

	_, err = f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))

	rq.Equal([]value.ItemKind{"MetalBar"}, f.trader.transfers)
	rq.True(decimal.RequireFromString("25").Equal(f.trader.collected))
	rq.Len(f.publisher.events, 1)

	// The undelivered line can be asked for again in a fresh negotiation.
	fresh, err := f.service.Open(ctx, caravan, player)
	rq.NoError(err)
	rq.Empty(fresh.Lines)
}

func TestConfirmNothingDeliveredKeepsDealOpen(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture("25")
	f.trader.failOn = "MetalBar"
	deal := f.requestMetalBars(t)

	receipt, err := f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.DeliveryFault))
	rq.Equal(value.OutcomeFaulted, receipt.Outcome)
	rq.Empty(receipt.Delivered)
	rq.Nil(receipt.Trade)
	rq.True(f.trader.collected.IsZero())
	rq.Empty(f.publisher.events)
	rq.True(f.registry.HasOpenDeal(caravan))
	rq.False(deal.Closed())

	f.trader.failOn = ""

	receipt, err = f.service.Confirm(ctx, caravan, player)
	rq.NoError(err)
	rq.Equal(value.OutcomeSettled, receipt.Outcome)
	rq.Equal([]value.ItemKind{"MetalBar"}, f.trader.transfers)
	rq.True(decimal.RequireFromString("25").Equal(f.trader.collected))
	rq.Equal([]value.Signal{value.SignalUnfulfilled, value.SignalFulfilled}, f.trader.signals)
}

func TestConfirmPaymentFailure(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture("25")
	f.trader.collectErr = errors.New("purse is locked")
	deal := f.requestMetalBars(t)

	receipt, err := f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.PaymentFailed))
	rq.Equal(value.OutcomeFaulted, receipt.Outcome)
	rq.Nil(receipt.Trade)
	rq.Equal([]value.Signal{value.SignalUnfulfilled}, f.trader.signals)
	rq.Empty(f.publisher.events)

	// The bars were handed over; a second confirmation must not repeat that.
	rq.False(f.registry.HasOpenDeal(caravan))
	rq.True(deal.Closed())

	_, err = f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))
	rq.Equal([]value.ItemKind{"MetalBar"}, f.trader.transfers)
}

func TestConfirmFundsUnavailable(t *testing.T) {
	rq := require.New(t)
	f := newFixture("25")
	f.funds.err = errors.New("map not loaded")
	f.requestMetalBars(t)

	_, err := f.service.Confirm(context.Background(), caravan, player)
	rq.True(domain.HasCode(err, errcodes.FundsUnavailable))
	rq.Empty(f.trader.transfers)
	rq.Empty(f.trader.signals)
	rq.True(f.registry.HasOpenDeal(caravan))
}

func TestConfirmPublishFailureKeepsTrade(t *testing.T) {
	rq := require.New(t)
	f := newFixture("25")
	f.publisher.err = errors.New("queue down")
	f.requestMetalBars(t)

	receipt, err := f.service.Confirm(context.Background(), caravan, player)
	rq.NoError(err)
	rq.Equal(value.OutcomeSettled, receipt.Outcome)
	rq.False(f.registry.HasOpenDeal(caravan))
}

func TestOpenChecksCounterparty(t *testing.T) {
	rq := require.New(t)
	f := newFixture("25")
	ctx := context.Background()

	_, err := f.service.Open(ctx, "envoys", player)
	rq.True(domain.HasCode(err, errcodes.CounterpartyCannotTrade))
	rq.False(f.registry.HasOpenDeal("envoys"))

	_, err = f.service.Open(ctx, "ghosts", player)
	rq.True(domain.HasCode(err, errcodes.CounterpartyNotFound))

	first, err := f.service.Open(ctx, caravan, player)
	rq.NoError(err)

	second, err := f.service.Open(ctx, caravan, player)
	rq.NoError(err)
	rq.Equal(first.ID, second.ID)

	_, err = f.service.Open(ctx, caravan, "colony-2")
	rq.True(domain.HasCode(err, errcodes.Forbidden))

	_, err = f.service.Confirm(ctx, caravan, "colony-2")
	rq.True(domain.HasCode(err, errcodes.Forbidden))

	requireOpenDeals(t, f, 1)
}

func TestAddLineRequiresOpenNegotiation(t *testing.T) {
	rq := require.New(t)
	f := newFixture("25")
	ctx := context.Background()

	line := entity.RequestItem{Item: "MetalBar", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}

	_, err := f.service.AddLine(ctx, caravan, player, line)
	rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))

	_, err = f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))

	_, err = f.service.Deal(ctx, caravan)
	rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))

	_, err = f.service.Open(ctx, caravan, player)
	rq.NoError(err)

	_, err = f.service.AddLine(ctx, caravan, player, entity.RequestItem{Item: "MetalBar", Quantity: -1})
	rq.True(domain.HasCode(err, errcodes.InvalidRequestLine))

	deal, err := f.service.Deal(ctx, caravan)
	rq.NoError(err)
	rq.Empty(deal.Lines)
	rq.True(deal.Total.IsZero())
}

func TestDealSnapshotsDuringConcurrentAddLine(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture("25")

	_, err := f.service.Open(ctx, caravan, player)
	rq.NoError(err)

	const lines = 200

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for range lines {
			if _, err := f.service.AddLine(gctx, caravan, player, entity.RequestItem{
				Item:      "MetalBar",
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("0.10"),
			}); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		for range lines {
			view, err := f.service.Deal(gctx, caravan)
			if err != nil {
				return err
			}

			want := decimal.New(int64(len(view.Lines)), -1)
			if !want.Equal(view.Total) {
				return fmt.Errorf("snapshot total %s for %d lines", view.Total, len(view.Lines))
			}
		}
		return nil
	})

	rq.NoError(g.Wait())

	view, err := f.service.Deal(ctx, caravan)
	rq.NoError(err)
	rq.Len(view.Lines, lines)
	rq.True(decimal.NewFromInt(20).Equal(view.Total))
}

func TestSweepExpiresIdleNegotiation(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixtureWithRegistry("25", request.RegistryOptions{IdleTTL: 50 * time.Millisecond})
	deal := f.requestMetalBars(t)

	rq.Zero(f.service.Sweep(ctx))

	time.Sleep(80 * time.Millisecond)

	rq.Equal(1, f.service.Sweep(ctx))
	rq.True(deal.Closed())
	rq.Zero(f.service.Sweep(ctx))

	_, err := f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))
	rq.Empty(f.trader.transfers)

	// The expired negotiation no longer binds the counterparty to its player.
	reopened, err := f.service.Open(ctx, caravan, "colony-2")
	rq.NoError(err)
	rq.NotEqual(deal.ID, reopened.ID)
	requireOpenDeals(t, f, 1)
}

func TestCancel(t *testing.T) {
	rq := require.New(t)
	f := newFixture("25")
	ctx := context.Background()
	deal := f.requestMetalBars(t)

	err := f.service.Cancel(ctx, caravan, "colony-2")
	rq.True(domain.HasCode(err, errcodes.Forbidden))
	rq.False(deal.Closed())

	rq.NoError(f.service.Cancel(ctx, caravan, player))
	rq.NoError(f.service.Cancel(ctx, caravan, player))

	rq.True(deal.Closed())
	rq.False(f.registry.HasOpenDeal(caravan))
	rq.Empty(f.trader.signals)

	_, err = f.service.Confirm(ctx, caravan, player)
	rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))

	reopened, err := f.service.Open(ctx, caravan, "colony-2")
	rq.NoError(err)
	rq.NotEqual(deal.ID, reopened.ID)
}

func requireSettlements(t *testing.T, f fixture, outcome string) {
	t.Helper()

	expected := fmt.Sprintf(`
# HELP item_requests_settlements_total Settlement attempts by outcome.
# TYPE item_requests_settlements_total counter
item_requests_settlements_total{outcome=%q} 1
`, outcome)

	require.NoError(t, testutil.GatherAndCompare(f.metrics, strings.NewReader(expected), "item_requests_settlements_total"))
}

func requireOpenDeals(t *testing.T, f fixture, open int) {
	t.Helper()

	expected := fmt.Sprintf(`
# HELP item_requests_open_deals Negotiations currently open.
# TYPE item_requests_open_deals gauge
item_requests_open_deals %d
`, open)

	require.NoError(t, testutil.GatherAndCompare(f.metrics, strings.NewReader(expected), "item_requests_open_deals"))
}
