package colony_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"item_requests/internal/domain"
	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/service/fulfillment"
	"item_requests/internal/domain/service/request"
	"item_requests/internal/domain/value"
	"item_requests/internal/infrastructure/colony"
	"item_requests/pkg/errcodes"
)

const player value.PlayerID = "new-arrivals"

func silver(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStockpileDebit(t *testing.T) {
	rq := require.New(t)

	stockpile := colony.NewStockpile(player, silver("25.00"))

	err := stockpile.Debit(silver("25.01"))
	rq.True(domain.HasCode(err, errcodes.InsufficientSilver))
	rq.True(silver("25").Equal(stockpile.Silver()))

	rq.NoError(stockpile.Debit(silver("25")))
	rq.True(stockpile.Silver().IsZero())

	stockpile.Deposit(silver("3.5"))
	rq.True(silver("3.5").Equal(stockpile.Silver()))
}

func TestCaravanTransfer(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	stockpile := colony.NewStockpile(player, silver("100"))

	unlimited := colony.NewCaravan("bulk-goods", stockpile)
	rq.NoError(unlimited.Transfer(ctx, "MetalBar", "", 10))
	rq.Equal(-1, unlimited.Stock("MetalBar", ""))
	rq.Equal(10, stockpile.Count("MetalBar", ""))

	limited := colony.NewCaravan("combat-supplier", stockpile).WithStock("Steel", "Refined", 5)
	err := limited.Transfer(ctx, "Steel", "Refined", 6)
	rq.True(domain.HasCode(err, errcodes.OutOfStock))
	rq.Equal(5, limited.Stock("Steel", "Refined"))

	rq.NoError(limited.Transfer(ctx, "Steel", "Refined", 5))
	rq.Zero(limited.Stock("Steel", "Refined"))
	rq.Equal(5, stockpile.Count("Steel", "Refined"))
	rq.Zero(stockpile.Count("Steel", ""))
}

func TestCaravanCollect(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	stockpile := colony.NewStockpile(player, silver("10"))
	caravan := colony.NewCaravan("bulk-goods", stockpile)

	err := caravan.Collect(ctx, "someone-else", silver("1"))
	rq.True(domain.HasCode(err, errcodes.Forbidden))

	err = caravan.Collect(ctx, player, silver("11"))
	rq.True(domain.HasCode(err, errcodes.InsufficientSilver))
	rq.True(caravan.Purse().IsZero())

	rq.NoError(caravan.Collect(ctx, player, silver("7.25")))
	rq.True(silver("7.25").Equal(caravan.Purse()))
	rq.True(silver("2.75").Equal(stockpile.Silver()))
}

func TestCaravanBehavior(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	caravan := colony.NewCaravan("bulk-goods", colony.NewStockpile(player, decimal.Zero))
	rq.Equal(colony.BehaviorTrading, caravan.Behavior())

	caravan.Receive(ctx, value.SignalNone)
	rq.Equal(colony.BehaviorTrading, caravan.Behavior())

	caravan.Receive(ctx, value.SignalUnfulfilled)
	rq.Equal(colony.BehaviorLingering, caravan.Behavior())

	caravan.Receive(ctx, value.SignalFulfilled)
	rq.Equal(colony.BehaviorLeaving, caravan.Behavior())
}

func TestWorld(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	world := colony.NewWorld()
	stockpile := colony.NewStockpile(player, silver("12"))
	world.AddStockpile(stockpile)
	world.Arrive(colony.NewCaravan("bulk-goods", stockpile))
	world.Arrive(colony.NewEnvoy("empire-envoy"))

	balance, err := world.Balance(ctx, player)
	rq.NoError(err)
	rq.True(silver("12").Equal(balance))

	_, err = world.Balance(ctx, "nobody")
	rq.True(domain.HasCode(err, errcodes.NotFound))

	party, err := world.Counterparty(ctx, "bulk-goods")
	rq.NoError(err)
	rq.Implements((*request.Trader)(nil), party)
	rq.Implements((*request.Coordinator)(nil), party)

	party, err = world.Counterparty(ctx, "empire-envoy")
	rq.NoError(err)
	_, isTrader := party.(request.Trader)
	rq.False(isTrader)

	world.Depart("bulk-goods")
	_, err = world.Counterparty(ctx, "bulk-goods")
	rq.True(domain.HasCode(err, errcodes.CounterpartyNotFound))
}

type colonyFixture struct {
	stockpile *colony.Stockpile
	caravan   *colony.Caravan
	service   *request.Service
	registry  *request.Registry
}

func newColonyFixture(funds string) colonyFixture {
	stockpile := colony.NewStockpile(player, silver(funds))
	caravan := colony.NewCaravan("outlander-caravan", stockpile).
		WithStock("MetalBar", "", 10).
		WithStock("Steel", "", 2)

	world := colony.NewWorld()
	world.AddStockpile(stockpile)
	world.Arrive(caravan)

	registry := request.NewRegistry(request.RegistryOptions{})

	return colonyFixture{
		stockpile: stockpile,
		caravan:   caravan,
		service:   request.NewService(registry, world, world),
		registry:  registry,
	}
}

func TestNegotiationWithCaravan(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	testCases := []struct {
		name      string
		funds     string
		outcome   value.Outcome
		behavior  colony.Behavior
		silver    string
		metalBars int
		open      bool
	}{
		{
			name:      "Enough silver",
			funds:     "25.00",
			outcome:   value.OutcomeSettled,
			behavior:  colony.BehaviorLeaving,
			silver:    "0",
			metalBars: 10,
		},
		{
			name:     "One cent short",
			funds:    "24.99",
			outcome:  value.OutcomeRejected,
			behavior: colony.BehaviorLingering,
			silver:   "24.99",
			open:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			f := newColonyFixture(tc.funds)

			_, err := f.service.Open(ctx, "outlander-caravan", player)
			rq.NoError(err)

			_, err = f.service.AddLine(ctx, "outlander-caravan", player, entity.RequestItem{
				Item:      "MetalBar",
				Quantity:  10,
				UnitPrice: silver("2.50"),
			})
			rq.NoError(err)

			receipt, err := f.service.Confirm(ctx, "outlander-caravan", player)
			rq.NoError(err)
			rq.Equal(tc.outcome, receipt.Outcome)
			rq.Equal(tc.behavior, f.caravan.Behavior())
			rq.True(silver(tc.silver).Equal(f.stockpile.Silver()))
			rq.Equal(tc.metalBars, f.stockpile.Count("MetalBar", ""))
			rq.Equal(tc.open, f.registry.HasOpenDeal("outlander-caravan"))
		})
	}
}

func TestNegotiationWithCaravanOutOfStock(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	f := newColonyFixture("100")

	_, err := f.service.Open(ctx, "outlander-caravan", player)
	rq.NoError(err)

	for _, line := range []entity.RequestItem{
		{Item: "MetalBar", Quantity: 4, UnitPrice: silver("2.50")},
		{Item: "Steel", Quantity: 3, UnitPrice: silver("1.90")},
	} {
		_, err = f.service.AddLine(ctx, "outlander-caravan", player, line)
		rq.NoError(err)
	}

	receipt, err := f.service.Confirm(ctx, "outlander-caravan", player)
	rq.True(domain.HasCode(err, errcodes.DeliveryFault))

	faults := fulfillment.Faults(err)
	rq.Len(faults, 1)
	rq.True(domain.HasCode(faults[0].Err, errcodes.OutOfStock))

	rq.Equal(value.OutcomeFaulted, receipt.Outcome)
	rq.Equal(4, f.stockpile.Count("MetalBar", ""))
	rq.Zero(f.stockpile.Count("Steel", ""))
	rq.True(silver("90").Equal(f.stockpile.Silver()))
	rq.True(silver("10").Equal(f.caravan.Purse()))
	rq.Equal(colony.BehaviorLingering, f.caravan.Behavior())
	rq.False(f.registry.HasOpenDeal("outlander-caravan"))

	for range 2 {
		_, err = f.service.Confirm(ctx, "outlander-caravan", player)
		rq.True(domain.HasCode(err, errcodes.NegotiationNotOpen))
	}

	rq.Equal(4, f.stockpile.Count("MetalBar", ""))
	rq.Equal(6, f.caravan.Stock("MetalBar", ""))
	rq.True(silver("90").Equal(f.stockpile.Silver()))
}
