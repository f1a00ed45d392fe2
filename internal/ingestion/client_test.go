package ingestion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func wireFillJSON(tid uint64, timeMs uint64) string {
	return fmt.Sprintf(`{"coin":"BTC","px":"100","sz":"1","side":"B","time":%d,"startPosition":"0","dir":"Open Long","closedPnl":"0","hash":"0xabc","oid":%d,"crossed":true,"fee":"0.1","tid":%d,"feeToken":"USDC"}`, timeMs, tid, tid)
}

// TestFetchFillsDedupAndDescending covers invariants 1 and 2: distinct trade
// ids, descending timestamp order, across a paginated response.
func TestFetchFillsDedupAndDescending(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req infoRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		switch calls {
		case 1:
			// First page: exactly maxFillsPerRequest fills, all with timestamps
			// above start_ms, forcing another page.
			fmt.Fprint(w, "[")
			for i := 0; i < maxFillsPerRequest; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				ts := uint64(2049 - i)
				fmt.Fprint(w, wireFillJSON(ts, ts))
			}
			fmt.Fprint(w, "]")
		case 2:
			// Second page: overlapping trade id (dedup boundary) plus one new,
			// fewer than the cap so pagination stops.
			fmt.Fprintf(w, "[%s,%s]", wireFillJSON(50, 50), wireFillJSON(10, 10))
		default:
			fmt.Fprint(w, "[]")
		}
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client(), baseURL: server.URL}
	start := uint64(49)
	fills, err := client.FetchFills(t.Context(), "0xabc", &start, nil)
	if err != nil {
		t.Fatalf("FetchFills: %v", err)
	}

	seen := make(map[uint64]bool)
	for _, f := range fills {
		if seen[f.TradeID] {
			t.Fatalf("duplicate trade id %d in output", f.TradeID)
		}
		seen[f.TradeID] = true
	}

	for i := 1; i < len(fills); i++ {
		if fills[i-1].TimestampMs < fills[i].TimestampMs {
			t.Fatalf("fills not descending at index %d: %d < %d", i, fills[i-1].TimestampMs, fills[i].TimestampMs)
		}
	}
}

// TestFetchFillsCeiling covers invariant 3: output never exceeds 10,000 fills.
func TestFetchFillsCeiling(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[")
		for i := 0; i < maxFillsPerRequest; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			// Strictly decreasing, non-overlapping trade ids across pages so
			// pagination never terminates via dedup and must hit the ceiling.
			base := uint64(calls-1) * maxFillsPerRequest
			tid := uint64(10_000_000) - base - uint64(i)
			fmt.Fprint(w, wireFillJSON(tid, tid))
		}
		fmt.Fprint(w, "]")
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client(), baseURL: server.URL}
	start := uint64(0)
	fills, err := client.FetchFills(t.Context(), "0xabc", &start, nil)
	if err != nil {
		t.Fatalf("FetchFills: %v", err)
	}
	if len(fills) > maxTotalFills {
		t.Fatalf("len(fills) = %d, exceeds ceiling %d", len(fills), maxTotalFills)
	}
}

func TestFetchFillsEmptyResponseStopsImmediately(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client(), baseURL: server.URL}
	start := uint64(0)
	fills, err := client.FetchFills(t.Context(), "0xabc", &start, nil)
	if err != nil {
		t.Fatalf("FetchFills: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("expected no fills, got %d", len(fills))
	}
}
