package value

import (
	"fmt"
	"strings"

	"github.com/rs/xid"
)

// CounterpartyID identifies the faction or trader a deal is negotiated with.
type CounterpartyID string

func (c CounterpartyID) String() string {
	return string(c)
}

func ParseCounterpartyID(s string) (CounterpartyID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("counterparty id: empty")
	}
	return CounterpartyID(s), nil
}

type PlayerID string

func (p PlayerID) String() string {
	return string(p)
}

// ItemKind is the definition name of a requested thing, e.g. "MetalBar".
type ItemKind string

func (k ItemKind) String() string {
	return string(k)
}

// MaterialKind is the optional material variant of an item. Empty means the
// item's default material.
type MaterialKind string

func (m MaterialKind) String() string {
	return string(m)
}

func (m MaterialKind) IsDefault() bool {
	return m == ""
}

type DealID string

func NewDealID() DealID {
	return DealID(xid.New().String())
}

func (d DealID) String() string {
	return string(d)
}
