package contextx

import (
	"context"
	"fmt"

	"item_requests/internal/domain/value"
)

type contextKeyPlayerID struct{}

func WithPlayerID(ctx context.Context, playerID value.PlayerID) context.Context {
	return context.WithValue(ctx, contextKeyPlayerID{}, playerID)
}

func PlayerIDFromContext(ctx context.Context) (value.PlayerID, error) {
	playerID, ok := ctx.Value(contextKeyPlayerID{}).(value.PlayerID)
	if !ok || playerID == "" {
		return "", fmt.Errorf("player id: %w", ErrNoValue)
	}

	return playerID, nil
}
