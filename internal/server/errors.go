package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"

	"item_requests/internal/domain"
	"item_requests/internal/domain/value"
	"item_requests/pkg/contextx"
	"item_requests/pkg/errcodes"
	"item_requests/pkg/httpx/reply"
)

//nolint:gochecknoglobals
var statusByCode = map[failure.ErrorCode]int{
	errcodes.ValidationError:         http.StatusBadRequest,
	errcodes.InvalidRequestLine:      http.StatusBadRequest,
	errcodes.InvalidPlayerID:         http.StatusBadRequest,
	errcodes.Forbidden:               http.StatusForbidden,
	errcodes.NotFound:                http.StatusNotFound,
	errcodes.CounterpartyNotFound:    http.StatusNotFound,
	errcodes.NegotiationNotOpen:      http.StatusNotFound,
	errcodes.DealClosed:              http.StatusConflict,
	errcodes.CounterpartyCannotTrade: http.StatusUnprocessableEntity,
	errcodes.FundsUnavailable:        http.StatusServiceUnavailable,
	errcodes.DeliveryFault:           http.StatusBadGateway,
	errcodes.PaymentFailed:           http.StatusBadGateway,
}

// replyError answers domain errors by their code and leaves everything else
// to the failure classification.
func replyError(ctx context.Context, w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		reply.Error(ctx, w, err)
		return
	}

	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	reply.Coded(ctx, w, status, appErr.Code, appErr)
}

func errNotConfigured(what string) error {
	return domain.Errorf(errcodes.NotFound, "%s is not configured", what)
}

func playerID(ctx context.Context) (value.PlayerID, error) {
	player, err := contextx.PlayerIDFromContext(ctx)
	if err != nil {
		return "", failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("contextx.PlayerIDFromContext: %w", err),
			failure.WithCode(errcodes.InvalidPlayerID),
			failure.WithDescription("X-Player-Id header is required"),
		)
	}

	return player, nil
}

func counterpartyID(r *http.Request) (value.CounterpartyID, error) {
	id, err := value.ParseCounterpartyID(r.PathValue("counterpartyId"))
	if err != nil {
		return "", failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("value.ParseCounterpartyID: %w", err),
			failure.WithCode(errcodes.ValidationError),
		)
	}

	return id, nil
}
