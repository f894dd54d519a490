package entity

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"item_requests/internal/domain"
	"item_requests/internal/domain/value"
	"item_requests/pkg/errcodes"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// PriceScale is the number of decimal places silver is counted in.
const PriceScale = 2

// RequestItem is one line of a wish-list: what, in which material, how many
// and at what price per unit.
type RequestItem struct {
	Item      value.ItemKind     `json:"item" validate:"required"`
	Material  value.MaterialKind `json:"material,omitempty"`
	Quantity  int                `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal    `json:"unit_price" validate:"-"`
}

func (r RequestItem) LineTotal() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

func (r RequestItem) Validate() error {
	if err := validate.Struct(r); err != nil {
		return domain.WrapError(err, errcodes.InvalidRequestLine, "invalid request line")
	}

	if r.UnitPrice.IsNegative() {
		return domain.Errorf(errcodes.InvalidRequestLine, "invalid request line: negative unit price %s", r.UnitPrice)
	}

	if !r.UnitPrice.Equal(r.UnitPrice.Truncate(PriceScale)) {
		return domain.Errorf(errcodes.InvalidRequestLine, "invalid request line: unit price %s is finer than a cent", r.UnitPrice)
	}

	return nil
}

// Deal is the open negotiation with one counterparty. Lines are append-only
// while the deal is open; the total is derived from them on every read.
type Deal struct {
	ID             value.DealID
	CounterpartyID value.CounterpartyID
	OpenedAt       time.Time

	lines  []RequestItem
	closed bool
}

func NewDeal(counterpartyID value.CounterpartyID) *Deal {
	return &Deal{
		ID:             value.NewDealID(),
		CounterpartyID: counterpartyID,
		OpenedAt:       time.Now(),
	}
}

func (d *Deal) AddLine(item RequestItem) error {
	if d.closed {
		return domain.Errorf(errcodes.DealClosed, "deal %s is closed", d.ID)
	}

	if err := item.Validate(); err != nil {
		return err
	}

	d.lines = append(d.lines, item)

	return nil
}

// Lines returns a copy in insertion order.
func (d *Deal) Lines() []RequestItem {
	return slices.Clone(d.lines)
}

func (d *Deal) Len() int {
	return len(d.lines)
}

func (d *Deal) Total() decimal.Decimal {
	return lo.Reduce(d.lines, func(total decimal.Decimal, line RequestItem, _ int) decimal.Decimal {
		return total.Add(line.LineTotal())
	}, decimal.Zero)
}

// Close marks the deal closed. It reports false when the deal was already
// closed.
func (d *Deal) Close() bool {
	if d.closed {
		return false
	}
	d.closed = true
	return true
}

func (d *Deal) Closed() bool {
	return d.closed
}

// DealView is a copy of a deal taken at one moment. It shares nothing with
// the deal, so it can be read after the deal has moved on.
type DealView struct {
	ID             value.DealID
	CounterpartyID value.CounterpartyID
	OpenedAt       time.Time
	Lines          []RequestItem
	Total          decimal.Decimal
	Closed         bool
}

func (d *Deal) View() DealView {
	return DealView{
		ID:             d.ID,
		CounterpartyID: d.CounterpartyID,
		OpenedAt:       d.OpenedAt,
		Lines:          d.Lines(),
		Total:          d.Total(),
		Closed:         d.closed,
	}
}
