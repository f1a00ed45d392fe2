// Package leaderboard ranks competition participants by trading volume,
// realized PnL, or return percentage, fanning fill fetches out across
// users in parallel with per-user failure isolation (C9).
package leaderboard

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/enricher"
	"hl-ledger/internal/taint"
	"hl-ledger/internal/types"
)

// Metric selects which value the leaderboard is ranked by.
type Metric int

const (
	MetricVolume Metric = iota
	MetricPnl
	MetricReturnPct
)

// ParseMetric accepts the same aliases as the original ranking engine.
func ParseMetric(raw string) (Metric, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "volume":
		return MetricVolume, true
	case "pnl":
		return MetricPnl, true
	case "returnpct", "return_pct", "return":
		return MetricReturnPct, true
	default:
		return 0, false
	}
}

func (m Metric) String() string {
	switch m {
	case MetricVolume:
		return "volume"
	case MetricPnl:
		return "pnl"
	case MetricReturnPct:
		return "returnPct"
	default:
		return "unknown"
	}
}

// UserStats holds one user's computed trading statistics ahead of ranking.
type UserStats struct {
	User             string
	Volume           decimal.Decimal
	RealizedPnl      decimal.Decimal
	ReturnPct        *decimal.Decimal
	TradeCount       int
	BuilderFillCount int
	TaintResult      taint.AnalysisResult
}

// MetricValue returns the value ranking should sort on for this metric.
func (s UserStats) MetricValue(metric Metric) decimal.Decimal {
	switch metric {
	case MetricVolume:
		return s.Volume
	case MetricPnl:
		return s.RealizedPnl
	case MetricReturnPct:
		if s.ReturnPct != nil {
			return *s.ReturnPct
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// Entry is a ranked leaderboard row, 1-indexed.
type Entry struct {
	Rank             int
	User             string
	MetricValue      decimal.Decimal
	Volume           decimal.Decimal
	RealizedPnl      decimal.Decimal
	ReturnPct        *decimal.Decimal
	TradeCount       int
	BuilderFillCount int
	Tainted          bool
}

// Config controls one leaderboard computation.
type Config struct {
	TargetBuilder   string // informational only; filtering goes through Checker
	BuilderOnly     bool
	MaxStartCapital *decimal.Decimal
	// PerUserMaxStartCapital is an operator-supplied roster of starting
	// capital keyed by user address (spec.md's CompetitionConfig
	// supplement), consulted only when MaxStartCapital is not given
	// explicitly for the request.
	PerUserMaxStartCapital map[string]decimal.Decimal
	Coin                   *types.Asset
	FromMs                 *int64
	ToMs                   *int64
	Metric                 Metric
}

// FillsFetcher is the narrow capability CalculateLeaderboard needs from an
// indexer: fetch one user's fills over an optional time range.
type FillsFetcher interface {
	GetUserFills(ctx context.Context, user string, fromMs, toMs *int64) ([]types.UserFill, error)
}

// CalculateUserStats computes volume, PnL, return percentage, and taint for
// one user's fills. When builderOnly is true, only fills the checker marks
// as builder-routed count toward volume/PnL/trade_count; taint analysis
// always runs over every fill regardless of builderOnly.
func CalculateUserStats(
	user string,
	fills []types.UserFill,
	checker enricher.Checker,
	maxStartCapital *decimal.Decimal,
	coinFilter *types.Asset,
	builderOnly bool,
) UserStats {
	filtered := fills
	if coinFilter != nil {
		filtered = make([]types.UserFill, 0, len(fills))
		for _, f := range fills {
			if f.Asset == *coinFilter {
				filtered = append(filtered, f)
			}
		}
	}

	volume := decimal.Zero
	realizedPnl := decimal.Zero
	builderFillCount := 0
	tradeCount := 0

	for _, f := range filtered {
		isBuilder := checker.IsBuilderFill(f, user)
		if isBuilder {
			builderFillCount++
		}
		if !builderOnly || isBuilder {
			volume = volume.Add(f.NotionalValue())
			realizedPnl = realizedPnl.Add(f.NetPnl())
			tradeCount++
		}
	}

	taintResult := taint.Analyze(filtered, func(f types.UserFill) bool {
		return checker.IsBuilderFill(f, user)
	})

	var returnPct *decimal.Decimal
	if maxStartCapital != nil {
		pct := decimal.Zero
		if maxStartCapital.IsPositive() {
			pct = realizedPnl.Div(*maxStartCapital).Mul(decimal.NewFromInt(100))
		}
		returnPct = &pct
	}

	return UserStats{
		User:             user,
		Volume:           volume,
		RealizedPnl:      realizedPnl,
		ReturnPct:        returnPct,
		TradeCount:       tradeCount,
		BuilderFillCount: builderFillCount,
		TaintResult:      taintResult,
	}
}

// CalculateLeaderboard fetches fills for every user in parallel and reduces
// each to a UserStats. A user whose fetch fails is still included, with
// zero stats, rather than failing the whole computation (spec.md's
// per-user failure isolation requirement).
func CalculateLeaderboard(
	ctx context.Context,
	fetcher FillsFetcher,
	users []string,
	config Config,
	checker enricher.Checker,
) []UserStats {
	stats := make([]UserStats, len(users))

	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()

			maxStartCapital := config.MaxStartCapital
			if maxStartCapital == nil && config.PerUserMaxStartCapital != nil {
				if v, ok := config.PerUserMaxStartCapital[user]; ok {
					vv := v
					maxStartCapital = &vv
				}
			}

			fills, err := fetcher.GetUserFills(ctx, user, config.FromMs, config.ToMs)
			if err != nil {
				log.Printf("leaderboard: failed to fetch fills for user %s: %v", user, err)
				var zeroReturnPct *decimal.Decimal
				if maxStartCapital != nil {
					z := decimal.Zero
					zeroReturnPct = &z
				}
				stats[i] = UserStats{User: user, ReturnPct: zeroReturnPct}
				return
			}
			stats[i] = CalculateUserStats(user, fills, checker, maxStartCapital, config.Coin, config.BuilderOnly)
		}(i, user)
	}
	wg.Wait()

	return stats
}

// RankLeaderboard sorts stats by metric descending and assigns 1-indexed
// ranks. builder_only filtering has already happened at calculation time:
// every user passed in is included here, even those with zero metrics.
func RankLeaderboard(stats []UserStats, metric Metric) []Entry {
	sorted := make([]UserStats, len(stats))
	copy(sorted, stats)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MetricValue(metric).GreaterThan(sorted[j].MetricValue(metric))
	})

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = Entry{
			Rank:             i + 1,
			User:             s.User,
			MetricValue:      s.MetricValue(metric),
			Volume:           s.Volume,
			RealizedPnl:      s.RealizedPnl,
			ReturnPct:        s.ReturnPct,
			TradeCount:       s.TradeCount,
			BuilderFillCount: s.BuilderFillCount,
			Tainted:          s.TaintResult.Tainted,
		}
	}
	return entries
}
