// Package ingestion fetches a user's fill history from Hyperliquid, either
// via the paginated "info" endpoint (C3) or the real-time WebSocket stream
// (C4).
package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/types"
)

const (
	mainnetURL = "https://api.hyperliquid.xyz"
	testnetURL = "https://api.hyperliquid-testnet.xyz"

	maxFillsPerRequest = 2000
	maxTotalFills      = 10000
)

// wireFill is the "info" endpoint's camelCase JSON fill shape.
type wireFill struct {
	Coin        string          `json:"coin"`
	Px          decimal.Decimal `json:"px"`
	Sz          decimal.Decimal `json:"sz"`
	Side        string          `json:"side"`
	Time        uint64          `json:"time"`
	StartPos    string          `json:"startPosition"`
	Dir         string          `json:"dir"`
	ClosedPnl   decimal.Decimal `json:"closedPnl"`
	Hash        string          `json:"hash"`
	Oid         uint64          `json:"oid"`
	Crossed     bool            `json:"crossed"`
	Fee         decimal.Decimal `json:"fee"`
	Tid         uint64          `json:"tid"`
	Cloid       *string         `json:"cloid,omitempty"`
	FeeToken    string          `json:"feeToken"`
	Liquidation *struct {
		LiquidatedUser string          `json:"liquidatedUser"`
		MarkPx         decimal.Decimal `json:"markPx"`
		Method         string          `json:"method"`
	} `json:"liquidation,omitempty"`
}

func (w wireFill) toUserFill() (types.UserFill, error) {
	side, err := types.ParseSide(w.Side)
	if err != nil {
		return types.UserFill{}, fmt.Errorf("fill tid %d: %w", w.Tid, err)
	}
	return types.UserFill{
		Asset:       types.NewAsset(w.Coin),
		TimestampMs: w.Time,
		Price:       w.Px,
		Size:        w.Sz,
		Side:        side,
		Fee:         w.Fee,
		ClosedPnl:   w.ClosedPnl,
		TradeID:     w.Tid,
		OrderID:     w.Oid,
		Crossed:     w.Crossed,
		Direction:   w.Dir,
	}, nil
}

type infoRequest struct {
	Type            string `json:"type"`
	User            string `json:"user"`
	StartTime       uint64 `json:"startTime"`
	EndTime         *uint64 `json:"endTime,omitempty"`
	AggregateByTime *bool  `json:"aggregateByTime,omitempty"`
}

// Client is the direct "info" endpoint client used for paginated fill
// retrieval (C3). It is a thin wrapper that only issues userFillsByTime
// requests; the streaming collector (Collector) dials the exchange's
// WebSocket endpoint on its own.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient constructs a Client for the given network ("testnet" selects
// testnet; anything else selects mainnet).
func NewClient(network string) *Client {
	base := mainnetURL
	if strings.EqualFold(network, "testnet") {
		base = testnetURL
	}
	return &Client{httpClient: &http.Client{}, baseURL: base}
}

// FetchFills retrieves a user's fills in [startMs, endMs) via backward-in-time
// pagination on userFillsByTime, deduplicating by trade id and stopping at
// the 10,000-fill ceiling. Returned fills are sorted by timestamp descending.
//
// When startMs is nil, a single unbounded call is issued instead (the
// exchange caps this at 500 fills server-side).
func (c *Client) FetchFills(ctx context.Context, user string, startMs, endMs *uint64) ([]types.UserFill, error) {
	if startMs == nil {
		return c.fetchUnbounded(ctx, user, endMs)
	}

	seen := make(map[uint64]struct{})
	var all []types.UserFill
	currentEnd := endMs

	for {
		page, err := c.userFillsByTime(ctx, user, *startMs, currentEnd)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		pageLen := len(page)
		for _, f := range page {
			if _, dup := seen[f.TradeID]; dup {
				continue
			}
			seen[f.TradeID] = struct{}{}
			all = append(all, f)
		}

		if pageLen < maxFillsPerRequest {
			break
		}
		if len(all) >= maxTotalFills {
			log.Printf("ingestion: hit %d fill limit for user %s", maxTotalFills, user)
			break
		}

		earliest := earliestTimestamp(all)
		if earliest <= *startMs {
			break
		}
		next := earliest - 1
		currentEnd = &next
	}

	sort.Slice(all, func(i, j int) bool { return all[i].TimestampMs > all[j].TimestampMs })
	return all, nil
}

func (c *Client) fetchUnbounded(ctx context.Context, user string, endMs *uint64) ([]types.UserFill, error) {
	fills, err := c.userFillsByTime(ctx, user, 0, endMs)
	if err != nil {
		return nil, err
	}
	sort.Slice(fills, func(i, j int) bool { return fills[i].TimestampMs > fills[j].TimestampMs })
	return fills, nil
}

func earliestTimestamp(fills []types.UserFill) uint64 {
	earliest := fills[0].TimestampMs
	for _, f := range fills[1:] {
		if f.TimestampMs < earliest {
			earliest = f.TimestampMs
		}
	}
	return earliest
}

func (c *Client) userFillsByTime(ctx context.Context, user string, startMs uint64, endMs *uint64) ([]types.UserFill, error) {
	reqBody := infoRequest{
		Type:      "userFillsByTime",
		User:      user,
		StartTime: startMs,
		EndTime:   endMs,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, newError(KindNetwork, "encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindNetwork, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindNetwork, "unexpected status %d from /info", resp.StatusCode)
	}

	var wire []wireFill
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, newError(KindNetwork, "decode response: %v", err)
	}

	fills := make([]types.UserFill, 0, len(wire))
	for _, w := range wire {
		f, err := w.toUserFill()
		if err != nil {
			return nil, newError(KindNetwork, "parse fill: %v", err)
		}
		fills = append(fills, f)
	}
	return fills, nil
}
