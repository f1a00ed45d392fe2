package ingestion

import (
	"context"

	"hl-ledger/internal/types"
)

// mockSource is a deterministic, in-memory fill source used only by this
// package's own tests (original_source/crates/hl-ingestion/src/mock.rs's
// MockSource). Unlike Client, it never dials out: fills are supplied by the
// test and filtered to the requested window in memory. A mockSource with no
// fills configured reports KindNoData, mirroring mock.rs's
// get_clearinghouse_state behavior for an unconfigured mock (spec.md §7: "no
// data for user/window — mock-only path, not surfaced in production").
type mockSource struct {
	fills []types.UserFill
}

func (m *mockSource) FetchFills(_ context.Context, _ string, startMs, endMs *uint64) ([]types.UserFill, error) {
	if len(m.fills) == 0 {
		return nil, newError(KindNoData, "mock source has no fills configured")
	}

	out := make([]types.UserFill, 0, len(m.fills))
	for _, f := range m.fills {
		if startMs != nil && f.TimestampMs < *startMs {
			continue
		}
		if endMs != nil && f.TimestampMs > *endMs {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
