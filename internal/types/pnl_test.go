package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func fill(t *testing.T, asset Asset, closedPnl, fee string, ts uint64) UserFill {
	return UserFill{
		Asset:       asset,
		TimestampMs: ts,
		Price:       decimal.NewFromInt(100),
		Size:        decimal.NewFromInt(1),
		Side:        Buy,
		Fee:         mustDec(t, fee),
		ClosedPnl:   mustDec(t, closedPnl),
		TradeID:     ts,
	}
}

// S1 — PnL across two assets.
func TestCalculatePnLAcrossAssets(t *testing.T) {
	u := NewUserPnL("0xabc")
	u.AddFill(fill(t, AssetBTC, "100", "1", 1000))
	u.AddFill(fill(t, AssetBTC, "50", "1", 2000))
	u.AddFill(fill(t, AssetETH, "-25", "0.5", 1500))

	summary := u.CalculatePnL(nil)

	if !summary.RealizedPnl.Equal(mustDec(t, "125")) {
		t.Fatalf("realized_pnl = %s, want 125", summary.RealizedPnl)
	}
	if !summary.TotalFees.Equal(mustDec(t, "2.5")) {
		t.Fatalf("total_fees = %s, want 2.5", summary.TotalFees)
	}
	if !summary.NetPnl.Equal(mustDec(t, "122.5")) {
		t.Fatalf("net_pnl = %s, want 122.5", summary.NetPnl)
	}
	if len(summary.ByAsset) != 2 {
		t.Fatalf("by_asset size = %d, want 2", len(summary.ByAsset))
	}
	if summary.FillCount != 3 {
		t.Fatalf("fill_count = %d, want 3", summary.FillCount)
	}
}

// S2 — range-restricted PnL.
func TestCalculatePnLInRange(t *testing.T) {
	u := NewUserPnL("0xabc")
	u.AddFill(fill(t, AssetBTC, "100", "0", 1000))
	u.AddFill(fill(t, AssetBTC, "50", "0", 2000))
	u.AddFill(fill(t, AssetBTC, "25", "0", 3000))

	summary := u.CalculatePnLInRange(1500, 2500, nil)

	if summary.FillCount != 1 {
		t.Fatalf("fill_count = %d, want 1", summary.FillCount)
	}
	if !summary.RealizedPnl.Equal(mustDec(t, "50")) {
		t.Fatalf("realized_pnl = %s, want 50", summary.RealizedPnl)
	}
}

// Invariant 4: PnL linearity across disjoint asset sets.
func TestCalculatePnLLinearity(t *testing.T) {
	u := NewUserPnL("0xabc")
	u.AddFill(fill(t, AssetBTC, "100", "1", 1000))
	u.AddFill(fill(t, AssetETH, "40", "1", 1500))
	u.AddFill(fill(t, AssetSOL, "10", "1", 1700))

	combined := u.CalculatePnL([]Asset{AssetBTC, AssetETH, AssetSOL})
	a := u.CalculatePnL([]Asset{AssetBTC})
	b := u.CalculatePnL([]Asset{AssetETH, AssetSOL})

	want := a.RealizedPnl.Add(b.RealizedPnl)
	if !combined.RealizedPnl.Equal(want) {
		t.Fatalf("linearity violated: combined=%s a+b=%s", combined.RealizedPnl, want)
	}
}

// Invariant 5: net-pnl identity holds in every summary.
func TestNetPnlIdentity(t *testing.T) {
	u := NewUserPnL("0xabc")
	u.AddFill(fill(t, AssetBTC, "73", "3.25", 1000))
	summary := u.CalculatePnL(nil)

	if !summary.NetPnl.Equal(summary.RealizedPnl.Sub(summary.TotalFees)) {
		t.Fatalf("net_pnl identity violated")
	}
}

func TestAssetRoundTrip(t *testing.T) {
	cases := []string{"btc", "BTC", "Eth", "kpepe", "KPEPE", "notasymbol"}
	for _, c := range cases {
		a := NewAsset(c)
		a2 := NewAsset(a.Symbol())
		if a2.Symbol() != a.Symbol() {
			t.Fatalf("round trip failed for %q: %s != %s", c, a2.Symbol(), a.Symbol())
		}
	}
}

func TestKiloAssetPreservesLowercaseK(t *testing.T) {
	a := NewAsset("kpepe")
	if a.Symbol() != "kPEPE" {
		t.Fatalf("symbol = %s, want kPEPE", a.Symbol())
	}
	if !a.IsKiloAsset() {
		t.Fatalf("expected kilo asset")
	}
}
