// Package taint tracks per-asset position lifecycle to detect when a user
// traded through a channel other than the designated builder while holding
// a position — the condition that disqualifies them under builder-only
// competition rules (C8).
package taint

import (
	"sort"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/types"
)

// AnalysisResult is the outcome of analyzing one user's fills for taint.
type AnalysisResult struct {
	Tainted               bool
	TaintedAssets         []types.Asset
	TotalFills            int
	BuilderFills          int
	TaintedFills          int
	FirstTaintTimestampMs *uint64
}

// Tracker is a per-asset position-lifecycle state machine. Construct it with
// New; the zero value has nil maps and is not usable.
type Tracker struct {
	positions     map[types.Asset]decimal.Decimal
	taintedAssets map[types.Asset]bool
	firstTaintMs  *uint64
	totalFills    int
	builderFills  int
	taintedFills  int
}

// New returns a ready-to-use Tracker.
func New() *Tracker {
	return &Tracker{
		positions:     make(map[types.Asset]decimal.Decimal),
		taintedAssets: make(map[types.Asset]bool),
	}
}

// ProcessFill updates position state for one fill and reports whether it
// caused taint. Callers must feed fills in chronological order (ascending
// TimestampMs) — see Analyze, which sorts for you.
func (t *Tracker) ProcessFill(fill types.UserFill, isBuilderFill bool) bool {
	t.totalFills++

	prev := t.positions[fill.Asset]
	next := prev.Add(fill.SignedSize())
	t.positions[fill.Asset] = next

	if isBuilderFill {
		t.builderFills++
		return false
	}

	wasInPosition := !prev.IsZero()
	isInPosition := !next.IsZero()

	if wasInPosition || isInPosition {
		t.taintedFills++
		t.taintedAssets[fill.Asset] = true
		if t.firstTaintMs == nil {
			ts := fill.TimestampMs
			t.firstTaintMs = &ts
		}
		return true
	}

	return false
}

// IsTainted reports whether any asset has been tainted so far.
func (t *Tracker) IsTainted() bool {
	return len(t.taintedAssets) > 0
}

// Result snapshots the current analysis.
func (t *Tracker) Result() AnalysisResult {
	assets := make([]types.Asset, 0, len(t.taintedAssets))
	for a := range t.taintedAssets {
		assets = append(assets, a)
	}
	return AnalysisResult{
		Tainted:               t.IsTainted(),
		TaintedAssets:         assets,
		TotalFills:            t.totalFills,
		BuilderFills:          t.builderFills,
		TaintedFills:          t.taintedFills,
		FirstTaintTimestampMs: t.firstTaintMs,
	}
}

// GetPosition returns the current signed position size for an asset.
func (t *Tracker) GetPosition(asset types.Asset) decimal.Decimal {
	return t.positions[asset]
}

// BuilderFillChecker classifies a single fill as builder-routed or not.
type BuilderFillChecker func(fill types.UserFill) bool

// Analyze sorts fills by TimestampMs ascending and runs them through a
// fresh Tracker. Sorting is mandatory: processing fills out of order would
// reverse signs and mislabel closes as opens.
func Analyze(fills []types.UserFill, isBuilderFill BuilderFillChecker) AnalysisResult {
	sorted := make([]types.UserFill, len(fills))
	copy(sorted, fills)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TimestampMs < sorted[j].TimestampMs })

	tracker := New()
	for _, f := range sorted {
		tracker.ProcessFill(f, isBuilderFill(f))
	}
	return tracker.Result()
}

// AnalyzeWithTradeIDs is Analyze with a builder-fill set expressed as trade
// ids rather than a predicate function.
func AnalyzeWithTradeIDs(fills []types.UserFill, builderTradeIDs map[uint64]struct{}) AnalysisResult {
	return Analyze(fills, func(f types.UserFill) bool {
		_, ok := builderTradeIDs[f.TradeID]
		return ok
	})
}
