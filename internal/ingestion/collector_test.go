package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/types"
)

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCollectorStartTwiceFails(t *testing.T) {
	c := NewCollector("mainnet")
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	err := c.Start("0xabc")
	if err == nil {
		t.Fatalf("expected error starting an already-running collector")
	}
	ingErr, ok := err.(*Error)
	if !ok || ingErr.Kind != KindWebSocket {
		t.Fatalf("expected WebSocket kind error, got %v", err)
	}
}

func TestCollectorStartRejectsInvalidAddress(t *testing.T) {
	c := NewCollector("mainnet")
	err := c.Start("not-an-address")
	if err == nil {
		t.Fatalf("expected error for invalid address")
	}
	ingErr, ok := err.(*Error)
	if !ok || ingErr.Kind != KindInvalidInput {
		t.Fatalf("expected InvalidInput kind error, got %v", err)
	}
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

func TestCollectorHandleMessageDedupsByTradeID(t *testing.T) {
	c := NewCollector("mainnet")

	frame := userFillsData{
		User: "0xabc",
		Fills: []wireFill{
			mustWireFill(1, 1000),
			mustWireFill(2, 2000),
		},
	}
	data, _ := json.Marshal(frame)
	msg, _ := json.Marshal(incomingFrame{Channel: "userFills", Data: data})
	c.handleMessage(msg)

	// Re-deliver trade id 1 at a later timestamp; the store keys by trade id
	// so this must overwrite, not duplicate.
	frame2 := userFillsData{
		User:  "0xabc",
		Fills: []wireFill{mustWireFill(1, 9000)},
	}
	data2, _ := json.Marshal(frame2)
	msg2, _ := json.Marshal(incomingFrame{Channel: "userFills", Data: data2})
	c.handleMessage(msg2)

	if c.FillCount() != 2 {
		t.Fatalf("FillCount() = %d, want 2", c.FillCount())
	}

	all := c.GetAll()
	if len(all) != 2 || all[0].TimestampMs >= all[1].TimestampMs {
		t.Fatalf("GetAll not ascending: %+v", all)
	}
}

func TestCollectorIgnoresOtherChannels(t *testing.T) {
	c := NewCollector("mainnet")
	msg, _ := json.Marshal(incomingFrame{Channel: "subscriptionResponse", Data: json.RawMessage(`{}`)})
	c.handleMessage(msg)
	if c.FillCount() != 0 {
		t.Fatalf("expected no fills stored for non-userFills channel")
	}
}

func TestCollectorGetInRangeAndForAsset(t *testing.T) {
	c := NewCollector("mainnet")
	c.mu.Lock()
	c.fills = map[uint64]types.UserFill{
		1: {Asset: types.AssetBTC, TimestampMs: 1000, TradeID: 1},
		2: {Asset: types.AssetETH, TimestampMs: 2000, TradeID: 2},
		3: {Asset: types.AssetBTC, TimestampMs: 3000, TradeID: 3},
	}
	c.mu.Unlock()

	inRange := c.GetInRange(1500, 3000)
	if len(inRange) != 2 {
		t.Fatalf("GetInRange len = %d, want 2", len(inRange))
	}

	btc := c.GetForAsset(types.AssetBTC)
	if len(btc) != 2 {
		t.Fatalf("GetForAsset(BTC) len = %d, want 2", len(btc))
	}
}

func TestCollectorClear(t *testing.T) {
	c := NewCollector("mainnet")
	c.mu.Lock()
	c.fills[1] = types.UserFill{TradeID: 1}
	c.mu.Unlock()

	c.Clear()
	if c.FillCount() != 0 {
		t.Fatalf("expected empty store after Clear")
	}
}

func mustWireFill(tid, ts uint64) wireFill {
	return wireFill{
		Coin:    "BTC",
		Px:      mustDecimal("100"),
		Sz:      mustDecimal("1"),
		Side:    "B",
		Time:    ts,
		Dir:     "Open Long",
		Crossed: true,
		Fee:     mustDecimal("0.1"),
		Tid:     tid,
		Oid:     tid,
	}
}
