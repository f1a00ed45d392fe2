package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/indexer"
	"hl-ledger/internal/leaderboard"
	"hl-ledger/internal/types"
)

const (
	serviceVersion     = "0.1.0"
	defaultTradesLimit = 100
	maxTradesLimit     = 1000
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: serviceVersion})
}

type tradeResponse struct {
	Asset       string          `json:"asset"`
	TimestampMs uint64          `json:"timestamp_ms"`
	Price       decimal.Decimal `json:"price"`
	Size        decimal.Decimal `json:"size"`
	Side        types.Side      `json:"side"`
	Fee         decimal.Decimal `json:"fee"`
	ClosedPnl   decimal.Decimal `json:"closed_pnl"`
	TradeID     uint64          `json:"trade_id"`
	OrderID     uint64          `json:"order_id"`
	Crossed     bool            `json:"crossed"`
	Direction   string          `json:"direction"`
}

func toTradeResponse(f types.UserFill) tradeResponse {
	return tradeResponse{
		Asset:       f.Asset.Symbol(),
		TimestampMs: f.TimestampMs,
		Price:       f.Price,
		Size:        f.Size,
		Side:        f.Side,
		Fee:         f.Fee,
		ClosedPnl:   f.ClosedPnl,
		TradeID:     f.TradeID,
		OrderID:     f.OrderID,
		Crossed:     f.Crossed,
		Direction:   f.Direction,
	}
}

type tradesResponse struct {
	Trades  []tradeResponse `json:"trades"`
	Count   int             `json:"count"`
	HasMore bool            `json:"has_more"`
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := q.Get("user")
	if user == "" {
		writeBadRequest(w, "user address is required")
		return
	}
	if !strings.HasPrefix(user, "0x") {
		writeBadRequest(w, "user address must start with 0x")
		return
	}

	fromMs, err := parseInt64Param(q, "from_ms")
	if err != nil {
		writeBadRequest(w, "invalid from_ms")
		return
	}
	toMs, err := parseInt64Param(q, "to_ms")
	if err != nil {
		writeBadRequest(w, "invalid to_ms")
		return
	}

	fills, idxErr := s.indexer.GetUserFills(r.Context(), user, fromMs, toMs)
	if idxErr != nil {
		writeError(w, idxErr)
		return
	}

	if assetRaw := q.Get("asset"); assetRaw != "" {
		target := types.NewAsset(assetRaw)
		filtered := fills[:0:0]
		for _, f := range fills {
			if f.Asset == target {
				filtered = append(filtered, f)
			}
		}
		fills = filtered
	}

	limit := defaultTradesLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeBadRequest(w, "invalid limit")
			return
		}
		limit = n
	}
	if limit > maxTradesLimit {
		limit = maxTradesLimit
	}

	totalCount := len(fills)
	hasMore := totalCount > limit
	if len(fills) > limit {
		fills = fills[:limit]
	}

	trades := make([]tradeResponse, len(fills))
	for i, f := range fills {
		trades[i] = toTradeResponse(f)
	}

	writeJSON(w, http.StatusOK, tradesResponse{
		Trades:  trades,
		Count:   len(trades),
		HasMore: hasMore,
	})
}

type assetPnLResponse struct {
	Asset       string          `json:"asset"`
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	Fees        decimal.Decimal `json:"fees"`
	NetPnl      decimal.Decimal `json:"net_pnl"`
	FillCount   int             `json:"fill_count"`
	Volume      decimal.Decimal `json:"volume"`
}

type pnlResponse struct {
	User        string             `json:"user"`
	RealizedPnl decimal.Decimal    `json:"realized_pnl"`
	TotalFees   decimal.Decimal    `json:"total_fees"`
	NetPnl      decimal.Decimal    `json:"net_pnl"`
	FillCount   int                `json:"fill_count"`
	ByAsset     []assetPnLResponse `json:"by_asset"`
	FromMs      *int64             `json:"from_ms,omitempty"`
	ToMs        *int64             `json:"to_ms,omitempty"`
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := q.Get("user")
	if user == "" {
		writeBadRequest(w, "user address is required")
		return
	}
	if !strings.HasPrefix(user, "0x") {
		writeBadRequest(w, "user address must start with 0x")
		return
	}

	fromMs, err := parseInt64Param(q, "from_ms")
	if err != nil {
		writeBadRequest(w, "invalid from_ms")
		return
	}
	toMs, err := parseInt64Param(q, "to_ms")
	if err != nil {
		writeBadRequest(w, "invalid to_ms")
		return
	}

	var assets []types.Asset
	if raw := q.Get("assets"); raw != "" {
		for _, sym := range strings.Split(raw, ",") {
			assets = append(assets, types.NewAsset(strings.TrimSpace(sym)))
		}
	}

	summary, idxErr := s.indexer.GetUserPnL(r.Context(), user, fromMs, toMs, assets)
	if idxErr != nil {
		writeError(w, idxErr)
		return
	}

	byAsset := make([]assetPnLResponse, 0, len(summary.ByAsset))
	for _, a := range summary.ByAsset {
		byAsset = append(byAsset, assetPnLResponse{
			Asset:       a.Asset.Symbol(),
			RealizedPnl: a.RealizedPnl,
			Fees:        a.Fees,
			NetPnl:      a.NetPnl,
			FillCount:   a.FillCount,
			Volume:      a.Volume,
		})
	}

	writeJSON(w, http.StatusOK, pnlResponse{
		User:        user,
		RealizedPnl: summary.RealizedPnl,
		TotalFees:   summary.TotalFees,
		NetPnl:      summary.NetPnl,
		FillCount:   summary.FillCount,
		ByAsset:     byAsset,
		FromMs:      fromMs,
		ToMs:        toMs,
	})
}

type leaderboardEntryResponse struct {
	Rank             int              `json:"rank"`
	User             string           `json:"user"`
	MetricValue      decimal.Decimal  `json:"metric_value"`
	Volume           decimal.Decimal  `json:"volume"`
	RealizedPnl      decimal.Decimal  `json:"realized_pnl"`
	ReturnPct        *decimal.Decimal `json:"return_pct,omitempty"`
	TradeCount       int              `json:"trade_count"`
	BuilderFillCount int              `json:"builder_fill_count"`
	Tainted          bool             `json:"tainted"`
}

type leaderboardResponse struct {
	Entries       []leaderboardEntryResponse `json:"entries"`
	Metric        string                     `json:"metric"`
	FromMs        *int64                     `json:"from_ms,omitempty"`
	ToMs          *int64                     `json:"to_ms,omitempty"`
	Coin          string                     `json:"coin,omitempty"`
	BuilderOnly   bool                       `json:"builder_only"`
	TotalUsers    int                        `json:"total_users"`
	FilteredUsers int                        `json:"filtered_users"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric := leaderboard.MetricVolume
	if raw := q.Get("metric"); raw != "" {
		parsed, ok := leaderboard.ParseMetric(raw)
		if !ok {
			writeBadRequest(w, "unknown metric "+raw)
			return
		}
		metric = parsed
	}

	fromMs, err := parseInt64Param(q, "from_ms")
	if err != nil {
		writeBadRequest(w, "invalid from_ms")
		return
	}
	toMs, err := parseInt64Param(q, "to_ms")
	if err != nil {
		writeBadRequest(w, "invalid to_ms")
		return
	}

	var coin *types.Asset
	if raw := q.Get("coin"); raw != "" {
		a := types.NewAsset(raw)
		coin = &a
	}

	builderOnly := s.cfg.Competition.BuilderOnly
	if raw := q.Get("builderOnly"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "invalid builderOnly")
			return
		}
		builderOnly = parsed
	}

	var maxStartCapital *decimal.Decimal
	if raw := q.Get("maxStartCapital"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeBadRequest(w, "invalid maxStartCapital")
			return
		}
		maxStartCapital = &parsed
	}

	users := s.cfg.Competition.CompetitionUsers
	if len(users) == 0 {
		writeError(w, &indexer.Error{Kind: indexer.KindBadRequest, Msg: "competition not configured"})
		return
	}

	entries, idxErr := s.indexer.CalculateLeaderboard(r.Context(), users, leaderboard.Config{
		BuilderOnly:     builderOnly,
		MaxStartCapital: maxStartCapital,
		Coin:            coin,
		FromMs:          fromMs,
		ToMs:            toMs,
		Metric:          metric,
	})
	if idxErr != nil {
		writeError(w, idxErr)
		return
	}

	filtered := 0
	responses := make([]leaderboardEntryResponse, len(entries))
	for i, e := range entries {
		if e.TradeCount > 0 {
			filtered++
		}
		responses[i] = leaderboardEntryResponse{
			Rank:             e.Rank,
			User:             e.User,
			MetricValue:      e.MetricValue,
			Volume:           e.Volume,
			RealizedPnl:      e.RealizedPnl,
			ReturnPct:        e.ReturnPct,
			TradeCount:       e.TradeCount,
			BuilderFillCount: e.BuilderFillCount,
			Tainted:          e.Tainted,
		}
	}

	coinSymbol := ""
	if coin != nil {
		coinSymbol = coin.Symbol()
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Entries:       responses,
		Metric:        metric.String(),
		FromMs:        fromMs,
		ToMs:          toMs,
		Coin:          coinSymbol,
		BuilderOnly:   builderOnly,
		TotalUsers:    len(users),
		FilteredUsers: filtered,
	})
}

func parseInt64Param(q map[string][]string, key string) (*int64, error) {
	raw := ""
	if vals, ok := q[key]; ok && len(vals) > 0 {
		raw = vals[0]
	}
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
