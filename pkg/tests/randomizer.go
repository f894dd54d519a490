package tests

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

type Randomizer struct {
	Intn func(n int) int
}

func NewRandomizer() Randomizer {
	random := rand.New(rand.NewSource(time.Now().Unix())) //nolint:gosec // for tests

	return Randomizer{
		Intn: random.Intn,
	}
}

// Price returns a non-negative price with two decimal places below max.
func (r Randomizer) Price(maxUnits int) decimal.Decimal {
	return decimal.New(int64(r.Intn(maxUnits*100)), -2) //nolint:mnd // cents
}
