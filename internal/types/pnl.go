package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AssetPnL is the per-asset reduction of a fill list: summed realized pnl,
// fees, volume, and the fill-count/time-range bookkeeping needed to answer
// "when did this user first/last trade this asset".
type AssetPnL struct {
	Asset       Asset
	RealizedPnl decimal.Decimal
	Fees        decimal.Decimal
	NetPnl      decimal.Decimal
	FillCount   int
	Volume      decimal.Decimal
	FirstFillMs *uint64
	LastFillMs  *uint64
}

// NewAssetPnL returns a zeroed accumulator for the given asset.
func NewAssetPnL(asset Asset) AssetPnL {
	return AssetPnL{Asset: asset}
}

// PnLSummary is the total-plus-breakdown result of UserPnL.CalculatePnL.
type PnLSummary struct {
	RealizedPnl decimal.Decimal
	TotalFees   decimal.Decimal
	NetPnl      decimal.Decimal
	FillCount   int
	TotalVolume decimal.Decimal
	ByAsset     map[Asset]AssetPnL
}

func newPnLSummary() PnLSummary {
	return PnLSummary{ByAsset: make(map[Asset]AssetPnL)}
}

// UserPnL is the per-user fill store partitioned by asset (spec.md §3
// "UserPnL store"). Callers observe its fill lists through AllFills (a
// sorted copy), FillsForAsset (the stored slice itself, not a copy) or a
// calculated summary.
type UserPnL struct {
	user          string
	fillsByAsset  map[Asset][]UserFill
	totalFillCnt  int
}

// NewUserPnL creates an empty store for the given user address.
func NewUserPnL(user string) *UserPnL {
	return &UserPnL{user: user, fillsByAsset: make(map[Asset][]UserFill)}
}

// User returns the owning user address.
func (u *UserPnL) User() string {
	return u.user
}

// AddFill appends a single fill to its asset's list.
func (u *UserPnL) AddFill(fill UserFill) {
	u.fillsByAsset[fill.Asset] = append(u.fillsByAsset[fill.Asset], fill)
	u.totalFillCnt++
}

// AddFills appends a batch of fills.
func (u *UserPnL) AddFills(fills []UserFill) {
	for _, f := range fills {
		u.AddFill(f)
	}
}

// FillsForAsset returns the fills recorded for a single asset, in insertion
// order (not guaranteed sorted by time unless the caller added them that
// way).
func (u *UserPnL) FillsForAsset(asset Asset) []UserFill {
	return u.fillsByAsset[asset]
}

// AllFills returns every fill across all assets, sorted by TimestampMs
// ascending.
func (u *UserPnL) AllFills() []UserFill {
	all := make([]UserFill, 0, u.totalFillCnt)
	for _, fills := range u.fillsByAsset {
		all = append(all, fills...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TimestampMs < all[j].TimestampMs })
	return all
}

// Assets returns the set of assets with at least one recorded fill.
func (u *UserPnL) Assets() []Asset {
	assets := make([]Asset, 0, len(u.fillsByAsset))
	for a := range u.fillsByAsset {
		assets = append(assets, a)
	}
	return assets
}

// FillCount returns the total number of fills recorded across all assets.
func (u *UserPnL) FillCount() int {
	return u.totalFillCnt
}

// IsEmpty reports whether no fills have been recorded.
func (u *UserPnL) IsEmpty() bool {
	return u.totalFillCnt == 0
}

// Clear wipes all recorded fills.
func (u *UserPnL) Clear() {
	u.fillsByAsset = make(map[Asset][]UserFill)
	u.totalFillCnt = 0
}

// TimeRange returns the earliest and latest TimestampMs across all
// recorded fills, or ok=false if there are none.
func (u *UserPnL) TimeRange() (from, to uint64, ok bool) {
	first := true
	for _, fills := range u.fillsByAsset {
		for _, f := range fills {
			if first {
				from, to = f.TimestampMs, f.TimestampMs
				first = false
				continue
			}
			if f.TimestampMs < from {
				from = f.TimestampMs
			}
			if f.TimestampMs > to {
				to = f.TimestampMs
			}
		}
	}
	return from, to, !first
}

// CalculatePnL reduces the recorded fills into a PnLSummary. When assets is
// non-nil, only those assets are included; otherwise every asset with
// recorded fills contributes.
func (u *UserPnL) CalculatePnL(assets []Asset) PnLSummary {
	summary := newPnLSummary()

	targets := assets
	if targets == nil {
		targets = u.Assets()
	}

	for _, asset := range targets {
		fills, ok := u.fillsByAsset[asset]
		if !ok || len(fills) == 0 {
			continue
		}
		assetPnl := calculateAssetPnL(asset, fills)

		summary.ByAsset[asset] = assetPnl
		summary.RealizedPnl = summary.RealizedPnl.Add(assetPnl.RealizedPnl)
		summary.TotalFees = summary.TotalFees.Add(assetPnl.Fees)
		summary.TotalVolume = summary.TotalVolume.Add(assetPnl.Volume)
		summary.FillCount += assetPnl.FillCount
	}

	summary.NetPnl = summary.RealizedPnl.Sub(summary.TotalFees)
	return summary
}

// CalculatePnLInRange is CalculatePnL restricted to fills whose
// TimestampMs falls in [fromMs, toMs] inclusive on both ends.
func (u *UserPnL) CalculatePnLInRange(fromMs, toMs uint64, assets []Asset) PnLSummary {
	filtered := NewUserPnL(u.user)

	targets := assets
	if targets == nil {
		targets = u.Assets()
	}

	for _, asset := range targets {
		for _, f := range u.fillsByAsset[asset] {
			if f.TimestampMs >= fromMs && f.TimestampMs <= toMs {
				filtered.AddFill(f)
			}
		}
	}

	return filtered.CalculatePnL(nil)
}

func calculateAssetPnL(asset Asset, fills []UserFill) AssetPnL {
	result := NewAssetPnL(asset)
	result.FillCount = len(fills)

	for _, f := range fills {
		result.RealizedPnl = result.RealizedPnl.Add(f.ClosedPnl)
		result.Fees = result.Fees.Add(f.Fee)
		result.Volume = result.Volume.Add(f.NotionalValue())

		ts := f.TimestampMs
		if result.FirstFillMs == nil || ts < *result.FirstFillMs {
			v := ts
			result.FirstFillMs = &v
		}
		if result.LastFillMs == nil || ts > *result.LastFillMs {
			v := ts
			result.LastFillMs = &v
		}
	}

	result.NetPnl = result.RealizedPnl.Sub(result.Fees)
	return result
}
