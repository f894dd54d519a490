package logx

import (
	"fmt"
	"log/slog"

	"github.com/lmittmann/tint"
	"github.com/shopspring/decimal"
)

var Error = tint.Err //nolint:gochecknoglobals

func Stringer(name string, value fmt.Stringer) slog.Attr {
	return slog.String(name, value.String())
}

// Money renders a decimal amount with two fraction digits.
func Money(name string, amount decimal.Decimal) slog.Attr {
	return slog.String(name, amount.StringFixed(2)) //nolint:mnd // cents
}

// ParseLevel maps a config string to a slog level; unknown values mean info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}

	return level
}
