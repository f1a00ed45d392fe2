package indexer

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/builderdata"
	"hl-ledger/internal/config"
	"hl-ledger/internal/enricher"
	"hl-ledger/internal/ingestion"
	"hl-ledger/internal/leaderboard"
	"hl-ledger/internal/taint"
	"hl-ledger/internal/types"
)

// EnrichedFillsResult pairs a user's fills with per-fill builder attribution
// (supplementing the base contract: the original fill/PnL/taint operations
// never expose per-fill builder status directly to a caller, only via the
// aggregate taint result).
type EnrichedFillsResult struct {
	Fills        []types.UserFill
	BuilderFlags []bool // parallel to Fills
	TaintResult  taint.AnalysisResult
}

// Indexer is the single per-deployment entrypoint wiring C3 through C9.
type Indexer struct {
	cfg           *config.Config
	apiClient     *ingestion.Client
	collector     *ingestion.Collector
	builderClient *builderdata.Client

	// checkerMu guards checker: leaderboard and per-fill-enrichment
	// requests each rebuild it for their own [from_ms, to_ms] window
	// (§4.9), and concurrent HTTP requests may overlap.
	checkerMu sync.RWMutex
	checker   enricher.Checker
}

// New constructs an Indexer from loaded configuration. When TargetBuilder is
// unset, builder attribution is a no-op (enricher.NoneChecker).
func New(cfg *config.Config) *Indexer {
	idx := &Indexer{
		cfg:       cfg,
		apiClient: ingestion.NewClient(cfg.Network.String()),
		collector: ingestion.NewCollector(cfg.Network.String()),
		checker:   enricher.NoneChecker{},
	}
	if cfg.Competition.TargetBuilder != "" {
		client, err := builderdata.NewClient(cfg.Competition.TargetBuilder)
		if err != nil {
			log.Printf("indexer: invalid target builder %q, builder attribution disabled: %v", cfg.Competition.TargetBuilder, err)
		} else {
			idx.builderClient = client
		}
	}
	return idx
}

// RefreshBuilderEnrichment rebuilds the enricher index from the builder feed
// over [fromMs, toMs] (C5 §4.9's loader): from_date defaults to today-7d,
// to_date defaults to today, when the corresponding bound is nil. Called
// once at startup to warm the cache, and again per-request by
// CalculateLeaderboard and GetUserFillsWithBuilderInfo so the enricher
// always reflects the window actually being queried rather than whatever
// window happened to be loaded first.
func (idx *Indexer) RefreshBuilderEnrichment(fromMs, toMs *int64) error {
	if idx.builderClient == nil {
		idx.setChecker(enricher.NoneChecker{})
		return nil
	}

	fromDate := time.Now().UTC().AddDate(0, 0, -7)
	if fromMs != nil {
		fromDate = time.UnixMilli(*fromMs).UTC()
	}
	toDate := time.Now().UTC()
	if toMs != nil {
		toDate = time.UnixMilli(*toMs).UTC()
	}

	fills, err := idx.builderClient.FetchRange(fromDate, toDate)
	if err != nil {
		return wrapIngestionErr(err)
	}
	idx.setChecker(enricher.New(fills))
	return nil
}

func (idx *Indexer) getChecker() enricher.Checker {
	idx.checkerMu.RLock()
	defer idx.checkerMu.RUnlock()
	return idx.checker
}

func (idx *Indexer) setChecker(c enricher.Checker) {
	idx.checkerMu.Lock()
	idx.checker = c
	idx.checkerMu.Unlock()
}

func msPtrToUint64Ptr(ms *int64) *uint64 {
	if ms == nil {
		return nil
	}
	v := *ms
	if v < 0 {
		v = 0
	}
	u := uint64(v)
	return &u
}

// GetUserFillsFromAPI always forces the paginated fetcher (C3), regardless
// of the configured fill source — used for backfill while streaming.
func (idx *Indexer) GetUserFillsFromAPI(ctx context.Context, user string, fromMs, toMs *int64) ([]types.UserFill, error) {
	if user == "" || !hasHexPrefix(user) {
		return nil, invalidAddress(user)
	}
	fills, err := idx.apiClient.FetchFills(ctx, user, msPtrToUint64Ptr(fromMs), msPtrToUint64Ptr(toMs))
	if err != nil {
		return nil, wrapIngestionErr(err)
	}
	return fills, nil
}

// GetUserFills dispatches to C3 or C4 depending on the configured fill
// source. In streaming mode, it returns whatever the collector currently
// holds, filtered to [fromMs, toMs] (either bound may be nil); the collector
// serves a single subscription, so user is not used to filter in that mode.
func (idx *Indexer) GetUserFills(ctx context.Context, user string, fromMs, toMs *int64) ([]types.UserFill, error) {
	if idx.cfg.FillSource == config.FillSourceWebSocket {
		if fromMs == nil && toMs == nil {
			return idx.collector.GetAll(), nil
		}
		from, to := uint64(0), uint64(math.MaxUint64)
		if p := msPtrToUint64Ptr(fromMs); p != nil {
			from = *p
		}
		if p := msPtrToUint64Ptr(toMs); p != nil {
			to = *p
		}
		return idx.collector.GetInRange(from, to), nil
	}
	return idx.GetUserFillsFromAPI(ctx, user, fromMs, toMs)
}

// StartCollecting begins real-time collection for a user (C4).
func (idx *Indexer) StartCollecting(user string) error {
	if err := idx.collector.Start(user); err != nil {
		return wrapIngestionErr(err)
	}
	return nil
}

// StopCollecting stops real-time collection.
func (idx *Indexer) StopCollecting() {
	idx.collector.Stop()
}

// IsCollecting reports whether the streaming collector is active.
func (idx *Indexer) IsCollecting() bool {
	return idx.collector.IsRunning()
}

// GetUserPnL fetches a user's fills and reduces them to a PnL summary (C7),
// optionally restricted to a time range and/or asset filter.
func (idx *Indexer) GetUserPnL(ctx context.Context, user string, fromMs, toMs *int64, assets []types.Asset) (types.PnLSummary, error) {
	tracker, err := idx.GetUserPnLTracker(ctx, user, fromMs, toMs)
	if err != nil {
		return types.PnLSummary{}, err
	}
	return tracker.CalculatePnL(assets), nil
}

// GetUserPnLTracker is a supplemented operation: it returns the underlying
// UserPnL store rather than just a calculated summary, so a caller that
// needs repeated slicing can run further CalculatePnL calls without
// refetching.
func (idx *Indexer) GetUserPnLTracker(ctx context.Context, user string, fromMs, toMs *int64) (*types.UserPnL, error) {
	fills, err := idx.GetUserFills(ctx, user, fromMs, toMs)
	if err != nil {
		return nil, err
	}
	tracker := types.NewUserPnL(user)
	tracker.AddFills(fills)
	return tracker, nil
}

// GetUserFillsWithBuilderInfo is a supplemented operation exposing per-fill
// builder attribution alongside the aggregate taint result, so a caller can
// render "this specific fill was/wasn't routed through the builder"
// without re-deriving it from the enricher directly.
func (idx *Indexer) GetUserFillsWithBuilderInfo(ctx context.Context, user string, fromMs, toMs *int64) (EnrichedFillsResult, error) {
	if idx.builderClient != nil {
		if err := idx.RefreshBuilderEnrichment(fromMs, toMs); err != nil {
			log.Printf("indexer: builder enrichment refresh failed for requested window, using last known feed: %v", err)
		}
	}

	fills, err := idx.GetUserFills(ctx, user, fromMs, toMs)
	if err != nil {
		return EnrichedFillsResult{}, err
	}

	checker := idx.getChecker()
	flags := make([]bool, len(fills))
	for i, f := range fills {
		flags[i] = checker.IsBuilderFill(f, user)
	}
	taintResult := taint.Analyze(fills, func(f types.UserFill) bool {
		return checker.IsBuilderFill(f, user)
	})

	return EnrichedFillsResult{Fills: fills, BuilderFlags: flags, TaintResult: taintResult}, nil
}

// CalculateLeaderboard fans fill fetches out across users (C9) and ranks
// the result by the configured metric. Per §4.9, the builder-fills enricher
// is rebuilt from the requested [from_ms, to_ms] window before stats are
// computed, rather than relying on whatever window was last loaded.
func (idx *Indexer) CalculateLeaderboard(ctx context.Context, users []string, cfg leaderboard.Config) ([]leaderboard.Entry, error) {
	if cfg.Metric == leaderboard.MetricReturnPct && (cfg.FromMs == nil || cfg.MaxStartCapital == nil) {
		return nil, badRequest("returnPct metric requires both from_ms and max_start_capital")
	}

	if idx.builderClient != nil {
		if err := idx.RefreshBuilderEnrichment(cfg.FromMs, cfg.ToMs); err != nil {
			log.Printf("indexer: builder enrichment refresh failed for requested window, using last known feed: %v", err)
		}
	}

	if cfg.PerUserMaxStartCapital == nil && len(idx.cfg.Competition.MaxStartCapital) > 0 {
		cfg.PerUserMaxStartCapital = make(map[string]decimal.Decimal, len(idx.cfg.Competition.MaxStartCapital))
		for user, capital := range idx.cfg.Competition.MaxStartCapital {
			cfg.PerUserMaxStartCapital[user] = decimal.NewFromFloat(capital)
		}
	}

	stats := leaderboard.CalculateLeaderboard(ctx, fetcherAdapter{idx}, users, cfg, idx.getChecker())
	return leaderboard.RankLeaderboard(stats, cfg.Metric), nil
}

// fetcherAdapter satisfies leaderboard.FillsFetcher by delegating to
// Indexer.GetUserFills.
type fetcherAdapter struct {
	idx *Indexer
}

func (a fetcherAdapter) GetUserFills(ctx context.Context, user string, fromMs, toMs *int64) ([]types.UserFill, error) {
	return a.idx.GetUserFills(ctx, user, fromMs, toMs)
}

func hasHexPrefix(addr string) bool {
	return len(addr) >= 2 && addr[0] == '0' && (addr[1] == 'x' || addr[1] == 'X')
}
