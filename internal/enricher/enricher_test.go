package enricher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/builderdata"
	"hl-ledger/internal/types"
)

// S7 — enricher composite match.
func TestCompositeMatch(t *testing.T) {
	builderFill := builderdata.BuilderFill{
		Time:       time.Unix(5000, 0).UTC(),
		User:       "0xabc",
		Asset:      types.NewAsset("SOL"),
		Side:       builderdata.Bid,
		Price:      decimal.RequireFromString("135.88"),
		Size:       decimal.RequireFromString("0.23"),
		BuilderFee: decimal.RequireFromString("0.003125"),
	}
	e := New([]builderdata.BuilderFill{builderFill})

	userFill := types.UserFill{
		Asset:       types.NewAsset("SOL"),
		TimestampMs: 5_000_000,
		Price:       decimal.RequireFromString("135.88"),
		Size:        decimal.RequireFromString("0.23"),
		Side:        types.Buy,
	}

	if !e.IsBuilderFill(userFill, "0xABC") {
		t.Fatalf("expected match (case-insensitive user)")
	}
	fee, ok := e.GetBuilderFee(userFill, "0xABC")
	if !ok || !fee.Equal(decimal.RequireFromString("0.003125")) {
		t.Fatalf("builder fee = %v, ok=%v", fee, ok)
	}

	mismatched := userFill
	mismatched.Price = decimal.RequireFromString("135.89")
	if e.IsBuilderFill(mismatched, "0xABC") {
		t.Fatalf("expected no match for differing price")
	}
}

func TestNoneCheckerAlwaysFalse(t *testing.T) {
	var c Checker = NoneChecker{}
	if c.IsBuilderFill(types.UserFill{}, "0xabc") {
		t.Fatalf("NoneChecker must always return false")
	}
}
