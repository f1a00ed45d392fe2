// Package builderdata fetches and parses the daily builder-fill feed (C5):
// an LZ4-compressed CSV published once per day per builder address. The
// schema has no trade id, which is why matching it to a UserFill requires
// the composite-key enricher in internal/enricher.
package builderdata

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/types"
)

// BuilderFillSide mirrors types.Side but over the CSV feed's own
// vocabulary (Bid/Ask rather than Buy/Sell).
type BuilderFillSide int

const (
	Bid BuilderFillSide = iota
	Ask
)

// IsBuy reports whether the side represents a buy (Bid).
func (s BuilderFillSide) IsBuy() bool {
	return s == Bid
}

// ParseBuilderFillSide accepts "Bid"/"Ask" case-insensitively.
func ParseBuilderFillSide(raw string) (BuilderFillSide, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bid":
		return Bid, nil
	case "ask":
		return Ask, nil
	default:
		return Bid, &InvalidFieldError{Field: "side", Value: raw}
	}
}

// BuilderFill is the normalized record for one row of the daily feed.
type BuilderFill struct {
	Time             time.Time
	User             string // lowercased hex address
	Asset            types.Asset
	Side             BuilderFillSide
	Price            decimal.Decimal
	Size             decimal.Decimal
	Crossed          bool
	SpecialTradeType string
	TimeInForce      string
	IsTrigger        bool
	Counterparty     string
	ClosedPnl        decimal.Decimal
	TwapID           uint64
	BuilderFee       decimal.Decimal
}

// NotionalValue is Price * Size.
func (f BuilderFill) NotionalValue() decimal.Decimal {
	return f.Price.Mul(f.Size)
}

// TimestampMs converts Time to epoch milliseconds.
func (f BuilderFill) TimestampMs() uint64 {
	return uint64(f.Time.UnixMilli())
}

// InvalidFieldError reports a CSV field that failed strict parsing.
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return "invalid " + e.Field + " value: " + e.Value
}
