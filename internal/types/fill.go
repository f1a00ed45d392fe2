package types

import "github.com/shopspring/decimal"

// UserFill is the normalized record for a single trade execution, sourced
// either from the paginated history endpoint (C3) or the real-time stream
// (C4). TradeID is the exchange-assigned unique identifier used for
// deduplication; it has no counterpart in the builder-fill feed (C5), which
// is why the two schemas need a composite-key join (see enricher).
type UserFill struct {
	Asset       Asset
	TimestampMs uint64
	Price       decimal.Decimal
	Size        decimal.Decimal
	Side        Side
	Fee         decimal.Decimal
	ClosedPnl   decimal.Decimal
	TradeID     uint64
	OrderID     uint64
	Crossed     bool
	Direction   string
}

// NotionalValue is price * size.
func (f UserFill) NotionalValue() decimal.Decimal {
	return f.Price.Mul(f.Size)
}

// SignedSize is size with the sign of Side applied: positive for Buy,
// negative for Sell.
func (f UserFill) SignedSize() decimal.Decimal {
	return f.Size.Mul(f.Side.Sign())
}

// NetPnl is ClosedPnl minus Fee.
func (f UserFill) NetPnl() decimal.Decimal {
	return f.ClosedPnl.Sub(f.Fee)
}
