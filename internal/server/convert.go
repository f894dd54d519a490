package server

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"item_requests/internal/domain"
	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/service/fulfillment"
	"item_requests/internal/domain/service/request"
	"item_requests/internal/domain/value"
	"item_requests/pkg/rest"
)

func newRESTDealLine(line entity.RequestItem) rest.DealLine {
	return rest.DealLine{
		Item:      line.Item.String(),
		Material:  line.Material.String(),
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice.StringFixed(2),
		LineTotal: line.LineTotal().StringFixed(2),
	}
}

func newRESTDealLines(lines []entity.RequestItem) []rest.DealLine {
	return lo.Map(lines, func(line entity.RequestItem, _ int) rest.DealLine {
		return newRESTDealLine(line)
	})
}

func newRESTDeal(deal entity.DealView) rest.Deal {
	return rest.Deal{
		ID:             deal.ID.String(),
		CounterpartyID: deal.CounterpartyID.String(),
		OpenedAt:       deal.OpenedAt,
		Lines:          newRESTDealLines(deal.Lines),
		Total:          deal.Total.StringFixed(2),
	}
}

func newRESTReceipt(receipt request.Receipt, err error) rest.Receipt {
	out := rest.Receipt{
		DealID:         receipt.DealID.String(),
		CounterpartyID: receipt.CounterpartyID.String(),
		Outcome:        receipt.Outcome.String(),
		Signal:         receipt.Signal.String(),
		Total:          receipt.Total.StringFixed(2),
		Funds:          receipt.Funds.StringFixed(2),
		Delivered:      newRESTDealLines(receipt.Delivered),
		Faults: lo.Map(receipt.Faults, func(fault *fulfillment.DeliveryFault, _ int) rest.Fault {
			return rest.Fault{
				Index:    fault.Index,
				Item:     fault.Line.Item.String(),
				Quantity: fault.Line.Quantity,
				Reason:   fault.Err.Error(),
			}
		}),
	}

	if receipt.Trade != nil {
		trade := newRESTTrade(*receipt.Trade)
		out.Trade = &trade
	}

	if err != nil {
		code, _ := domain.GetCode(err)
		out.Error = &rest.Error{
			Code:    rest.ErrorCode(code.String()),
			Message: err.Error(),
		}
	}

	return out
}

func newDomainRequestItem(line rest.RequestLine) (entity.RequestItem, error) {
	price, err := decimal.NewFromString(line.UnitPrice)
	if err != nil {
		return entity.RequestItem{}, fmt.Errorf("decimal.NewFromString: %w", err)
	}

	return entity.RequestItem{
		Item:      value.ItemKind(line.Item),
		Material:  value.MaterialKind(line.Material),
		Quantity:  line.Quantity,
		UnitPrice: price,
	}, nil
}
