package indexer

import (
	"testing"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/config"
	"hl-ledger/internal/ingestion"
	"hl-ledger/internal/leaderboard"
)

func newTestIndexer(fillSource config.FillSource) *Indexer {
	return &Indexer{
		cfg:       &config.Config{FillSource: fillSource},
		apiClient: ingestion.NewClient("mainnet"),
		collector: ingestion.NewCollector("mainnet"),
	}
}

func TestGetUserFillsFromAPIRejectsInvalidAddress(t *testing.T) {
	idx := newTestIndexer(config.FillSourceAPI)
	_, err := idx.GetUserFillsFromAPI(t.Context(), "not-an-address", nil, nil)
	if err == nil {
		t.Fatalf("expected error for invalid address")
	}
	idxErr, ok := err.(*Error)
	if !ok || idxErr.Kind != KindInvalidAddress {
		t.Fatalf("expected InvalidAddress kind, got %v", err)
	}
}

// TestGetUserFillsDispatchesByConfiguredSource confirms that in streaming
// mode GetUserFills never touches the API client (and so never validates
// the address the way GetUserFillsFromAPI does), proving the two code
// paths are genuinely distinct.
func TestGetUserFillsDispatchesByConfiguredSource(t *testing.T) {
	idx := newTestIndexer(config.FillSourceWebSocket)
	fills, err := idx.GetUserFills(t.Context(), "not-an-address", nil, nil)
	if err != nil {
		t.Fatalf("websocket-mode GetUserFills returned error: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("expected empty collector, got %d fills", len(fills))
	}

	apiIdx := newTestIndexer(config.FillSourceAPI)
	_, err = apiIdx.GetUserFills(t.Context(), "not-an-address", nil, nil)
	if err == nil {
		t.Fatalf("expected API-mode GetUserFills to validate the address and fail")
	}
}

func TestCalculateLeaderboardRequiresReturnPctInputs(t *testing.T) {
	idx := newTestIndexer(config.FillSourceAPI)
	_, err := idx.CalculateLeaderboard(t.Context(), []string{"0xabc"}, leaderboard.Config{
		Metric: leaderboard.MetricReturnPct,
	})
	if err == nil {
		t.Fatalf("expected error when from_ms and max_start_capital are missing")
	}
	idxErr, ok := err.(*Error)
	if !ok || idxErr.Kind != KindBadRequest {
		t.Fatalf("expected BadRequest kind, got %v", err)
	}

	from := int64(1000)
	cap := decimal.RequireFromString("1000")
	_, err = idx.CalculateLeaderboard(t.Context(), nil, leaderboard.Config{
		Metric:          leaderboard.MetricReturnPct,
		FromMs:          &from,
		MaxStartCapital: &cap,
	})
	if err != nil {
		t.Fatalf("expected no validation error once from_ms and max_start_capital are set, got %v", err)
	}
}

func TestWrapIngestionErrMapsKinds(t *testing.T) {
	cases := []struct {
		in   ingestion.Kind
		want Kind
	}{
		{ingestion.KindInvalidAddress, KindInvalidAddress},
		{ingestion.KindInvalidInput, KindInvalidInput},
		{ingestion.KindWebSocket, KindWebSocket},
		{ingestion.KindNoData, KindNoData},
		{ingestion.KindNetwork, KindNetwork},
	}
	for _, tc := range cases {
		wrapped := wrapIngestionErr(&ingestion.Error{Kind: tc.in, Msg: "boom"})
		if wrapped.Kind != tc.want {
			t.Fatalf("wrapIngestionErr(%v) kind = %v, want %v", tc.in, wrapped.Kind, tc.want)
		}
		if wrapped.Unwrap() == nil {
			t.Fatalf("expected wrapped error to preserve the original cause")
		}
	}
}

func TestMsPtrToUint64PtrClampsNegative(t *testing.T) {
	neg := int64(-5)
	got := msPtrToUint64Ptr(&neg)
	if got == nil || *got != 0 {
		t.Fatalf("expected negative ms clamped to 0, got %v", got)
	}
	if msPtrToUint64Ptr(nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}
