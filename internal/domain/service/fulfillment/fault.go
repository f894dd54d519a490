package fulfillment

import (
	"errors"
	"fmt"

	"item_requests/internal/domain/entity"
)

var errNoChannel = errors.New("no delivery channel")

// DeliveryFault is the failure of a single line. Index is the line position
// in the deal.
type DeliveryFault struct {
	Index int
	Line  entity.RequestItem
	Err   error
}

func (f *DeliveryFault) Error() string {
	return fmt.Sprintf("line %d (%s x%d): %v", f.Index, f.Line.Item, f.Line.Quantity, f.Err)
}

func (f *DeliveryFault) Unwrap() error {
	return f.Err
}

// Faults extracts every DeliveryFault joined into err.
func Faults(err error) []*DeliveryFault {
	var out []*DeliveryFault

	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}

		if fault, ok := e.(*DeliveryFault); ok { //nolint:errorlint // walking the tree by hand
			out = append(out, fault)
			return
		}

		switch u := e.(type) { //nolint:errorlint // walking the tree by hand
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}

	walk(err)

	return out
}
