package standing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/value"
)

const (
	keyPrefix = "standing:"
	seenTTL   = 24 * time.Hour
)

// Standing is the relationship between a player and a counterparty built up
// by trading.
type Standing struct {
	PlayerID value.PlayerID
	Traded   decimal.Decimal
	Trades   int64
}

// record credits a trade once. The seen key is written last, so a script
// that fails before it leaves nothing behind and a retry counts the trade.
//
// KEYS: seen, cents, count, rank. ARGV: player, cents, seen ttl seconds.
var record = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HINCRBY', KEYS[2], ARGV[1], ARGV[2])
redis.call('HINCRBY', KEYS[3], ARGV[1], 1)
redis.call('ZINCRBY', KEYS[4], ARGV[2], ARGV[1])
redis.call('SET', KEYS[1], 1, 'EX', ARGV[3])
return 1
`) //nolint:gochecknoglobals

// Store keeps standings in redis: a hash of traded silver in cents and a hash
// of trade counts per counterparty, plus a sorted set for ranking.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func centsKey(id value.CounterpartyID) string {
	return keyPrefix + "cents:" + id.String()
}

func countKey(id value.CounterpartyID) string {
	return keyPrefix + "count:" + id.String()
}

func rankKey(id value.CounterpartyID) string {
	return keyPrefix + "rank:" + id.String()
}

func seenKey(id value.DealID) string {
	return keyPrefix + "seen:" + id.String()
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(entity.PriceScale).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -entity.PriceScale)
}

// Record credits a completed trade to the player's standing. Each deal is
// credited once.
func (s *Store) Record(ctx context.Context, trade entity.TradeCompleted) error {
	keys := []string{
		seenKey(trade.DealID),
		centsKey(trade.CounterpartyID),
		countKey(trade.CounterpartyID),
		rankKey(trade.CounterpartyID),
	}

	err := record.Run(ctx, s.client, keys,
		trade.PlayerID.String(),
		toCents(trade.Total),
		int64(seenTTL/time.Second),
	).Err()
	if err != nil {
		return fmt.Errorf("redis record script: %w", err)
	}

	return nil
}

// Get returns a zero standing when the player never traded.
func (s *Store) Get(ctx context.Context, id value.CounterpartyID, player value.PlayerID) (Standing, error) {
	standing := Standing{PlayerID: player, Traded: decimal.Zero}

	cents, err := s.client.HGet(ctx, centsKey(id), player.String()).Int64()
	if errors.Is(err, redis.Nil) {
		return standing, nil
	}

	if err != nil {
		return Standing{}, fmt.Errorf("redis hget: %w", err)
	}

	standing.Traded = fromCents(cents)

	standing.Trades, err = s.client.HGet(ctx, countKey(id), player.String()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Standing{}, fmt.Errorf("redis hget: %w", err)
	}

	return standing, nil
}

// Top lists the players who traded the most with a counterparty.
func (s *Store) Top(ctx context.Context, id value.CounterpartyID, n int64) ([]Standing, error) {
	ranked, err := s.client.ZRevRangeWithScores(ctx, rankKey(id), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange: %w", err)
	}

	return lo.Map(ranked, func(z redis.Z, _ int) Standing {
		member, _ := z.Member.(string)

		return Standing{
			PlayerID: value.PlayerID(member),
			Traded:   fromCents(int64(z.Score)),
		}
	}), nil
}
