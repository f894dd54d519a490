package middlewarex

import (
	"net/http"
	"strings"

	"item_requests/internal/domain/value"
	"item_requests/pkg/contextx"
)

const headerNamePlayerID = "X-Player-Id"

// PlayerID puts the calling player into the context. Requests without the
// header pass through; handlers that need a player reject them.
func PlayerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		playerID := strings.TrimSpace(r.Header.Get(headerNamePlayerID))
		if playerID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := contextx.WithPlayerID(r.Context(), value.PlayerID(playerID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
