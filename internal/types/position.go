package types

import "github.com/shopspring/decimal"

// Position is a per-user, per-asset snapshot used only for taint tracking
// (spec.md explicitly excludes fleet-wide mark-to-market pricing — this is
// not a pricing engine, just enough state to know whether a user is "in a
// position").
type Position struct {
	User            string
	Asset           Asset
	Size            decimal.Decimal
	EntryPrice      *decimal.Decimal
	MarkPrice       *decimal.Decimal
	UnrealizedPnl   *decimal.Decimal
	RealizedPnl     decimal.Decimal
	TotalFees       decimal.Decimal
	Leverage        *uint32
	LiquidationPx   *decimal.Decimal
	LastUpdatedMs   uint64
}

// NewPosition returns a flat (zero-size) position for a user/asset pair.
func NewPosition(user string, asset Asset) Position {
	return Position{User: user, Asset: asset}
}

// IsOpen reports whether the position carries nonzero size.
func (p Position) IsOpen() bool {
	return !p.Size.IsZero()
}

// IsLong reports whether the position size is strictly positive.
func (p Position) IsLong() bool {
	return p.Size.IsPositive()
}

// IsShort reports whether the position size is strictly negative.
func (p Position) IsShort() bool {
	return p.Size.IsNegative()
}

// AbsSize returns the absolute value of Size.
func (p Position) AbsSize() decimal.Decimal {
	return p.Size.Abs()
}

// NotionalValue returns EntryPrice * |Size| when an entry price is set.
func (p Position) NotionalValue() *decimal.Decimal {
	if p.EntryPrice == nil {
		return nil
	}
	v := p.EntryPrice.Mul(p.AbsSize())
	return &v
}

// CalculateUnrealizedPnl computes (markPrice - entryPrice) * size given a
// mark price, without mutating the position.
func (p Position) CalculateUnrealizedPnl(markPrice decimal.Decimal) *decimal.Decimal {
	if p.EntryPrice == nil {
		return nil
	}
	v := markPrice.Sub(*p.EntryPrice).Mul(p.Size)
	return &v
}

// TotalPnl is RealizedPnl plus UnrealizedPnl (zero if unset).
func (p Position) TotalPnl() decimal.Decimal {
	total := p.RealizedPnl
	if p.UnrealizedPnl != nil {
		total = total.Add(*p.UnrealizedPnl)
	}
	return total
}

// NetPnl is TotalPnl minus TotalFees.
func (p Position) NetPnl() decimal.Decimal {
	return p.TotalPnl().Sub(p.TotalFees)
}

// UpdateMarkPrice sets MarkPrice and recomputes UnrealizedPnl in place.
func (p *Position) UpdateMarkPrice(markPrice decimal.Decimal) {
	p.MarkPrice = &markPrice
	p.UnrealizedPnl = p.CalculateUnrealizedPnl(markPrice)
}
