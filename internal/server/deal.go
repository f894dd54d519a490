package server

import (
	"context"
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"

	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/service/request"
	"item_requests/internal/domain/value"
	"item_requests/pkg/errcodes"
	"item_requests/pkg/httpx/reply"
	"item_requests/pkg/httpx/req"
	"item_requests/pkg/rest"
)

type dealService interface {
	Open(context.Context, value.CounterpartyID, value.PlayerID) (entity.DealView, error)
	AddLine(context.Context, value.CounterpartyID, value.PlayerID, entity.RequestItem) (entity.DealView, error)
	Deal(context.Context, value.CounterpartyID) (entity.DealView, error)
	Confirm(context.Context, value.CounterpartyID, value.PlayerID) (request.Receipt, error)
	Cancel(context.Context, value.CounterpartyID, value.PlayerID) error
}

type DealServer struct {
	dealService dealService
}

func NewDealServer(dealService dealService) DealServer {
	return DealServer{
		dealService: dealService,
	}
}

func (s DealServer) postV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	player, err := playerID(ctx)
	if err != nil {
		return err
	}

	id, err := counterpartyID(r)
	if err != nil {
		return err
	}

	deal, err := s.dealService.Open(ctx, id, player)
	if err != nil {
		return fmt.Errorf("dealService.Open: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTDeal(deal))

	return nil
}

func (s DealServer) getV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := counterpartyID(r)
	if err != nil {
		return err
	}

	deal, err := s.dealService.Deal(ctx, id)
	if err != nil {
		return fmt.Errorf("dealService.Deal: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(deal))

	return nil
}

func (s DealServer) postV1DealLine(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	player, err := playerID(ctx)
	if err != nil {
		return err
	}

	id, err := counterpartyID(r)
	if err != nil {
		return err
	}

	var body rest.RequestLine

	if err = req.Read(r, &body); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	line, err := newDomainRequestItem(body)
	if err != nil {
		return failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("newDomainRequestItem: %w", err),
			failure.WithCode(errcodes.InvalidRequestLine),
		)
	}

	deal, err := s.dealService.AddLine(ctx, id, player, line)
	if err != nil {
		return fmt.Errorf("dealService.AddLine: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(deal))

	return nil
}

// postV1DealConfirm answers 200 whenever settlement ran, including rejected
// and faulted attempts: the receipt carries the outcome.
func (s DealServer) postV1DealConfirm(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	player, err := playerID(ctx)
	if err != nil {
		return err
	}

	id, err := counterpartyID(r)
	if err != nil {
		return err
	}

	receipt, err := s.dealService.Confirm(ctx, id, player)
	if err != nil && receipt.Outcome == value.OutcomePending {
		return fmt.Errorf("dealService.Confirm: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTReceipt(receipt, err))

	return nil
}

func (s DealServer) deleteV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	player, err := playerID(ctx)
	if err != nil {
		return err
	}

	id, err := counterpartyID(r)
	if err != nil {
		return err
	}

	if err = s.dealService.Cancel(ctx, id, player); err != nil {
		return fmt.Errorf("dealService.Cancel: %w", err)
	}

	reply.OK(w)

	return nil
}
