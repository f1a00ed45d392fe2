package builderdata

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleCSV = `time,user,coin,side,px,sz,crossed,special_trade_type,tif,is_trigger,counterparty,closed_pnl,twap_id,builder_fee
2026-01-10T00:00:04Z,0x5be08c15441c7fd10ea8dcc9af14ed9a3af11ebd,BLAST,Bid,0.000869,335303,false,Na,Alo,false,0x31ca8395cf837de08b24da3f660e77761dfb974b,-8.047272,0,0.029137
2026-01-10T00:00:07Z,0x7b73dfae34492a35715ca037b19e006befdbe4cc,SOL,Bid,135.88,0.23,false,Na,Alo,false,0xc029043cd00b80363130fa058818459a521842a1,0,0,0.003125
2026-01-10T00:00:56Z,0x7b73dfae34492a35715ca037b19e006befdbe4cc,SOL,Bid,135.84,0.08,false,Na,Alo,false,0xf967239debef10dbc78e9bbbb2d8a16b72a614eb,0,0,0.001086
`

func TestParseSampleCSV(t *testing.T) {
	fills, err := ParseBuilderFills(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(fills) != 3 {
		t.Fatalf("len(fills) = %d, want 3", len(fills))
	}

	first := fills[0]
	if first.User != "0x5be08c15441c7fd10ea8dcc9af14ed9a3af11ebd" {
		t.Fatalf("user = %s", first.User)
	}
	if first.Asset.Symbol() != "BLAST" {
		t.Fatalf("asset = %s, want BLAST", first.Asset.Symbol())
	}
	if !first.Side.IsBuy() {
		t.Fatalf("expected Bid to be buy")
	}
	if !first.Price.Equal(decimal.RequireFromString("0.000869")) {
		t.Fatalf("price = %s", first.Price)
	}
	if first.Crossed {
		t.Fatalf("expected crossed=false")
	}
	if first.IsTrigger {
		t.Fatalf("expected is_trigger=false")
	}
	if !first.ClosedPnl.Equal(decimal.RequireFromString("-8.047272")) {
		t.Fatalf("closed_pnl = %s", first.ClosedPnl)
	}
	if !first.BuilderFee.Equal(decimal.RequireFromString("0.029137")) {
		t.Fatalf("builder_fee = %s", first.BuilderFee)
	}

	second := fills[1]
	if second.Asset.Symbol() != "SOL" {
		t.Fatalf("asset = %s, want SOL", second.Asset.Symbol())
	}
	if !second.NotionalValue().Equal(decimal.RequireFromString("31.2524")) {
		t.Fatalf("notional = %s, want 31.2524", second.NotionalValue())
	}
}

func TestParseEmptyCSV(t *testing.T) {
	header := "time,user,coin,side,px,sz,crossed,special_trade_type,tif,is_trigger,counterparty,closed_pnl,twap_id,builder_fee\n"
	fills, err := ParseBuilderFills(strings.NewReader(header))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("expected no fills, got %d", len(fills))
	}
}

func TestParseStrictBooleanRejectsNonLiteral(t *testing.T) {
	bad := strings.Replace(sampleCSV, ",false,Na,Alo,false,", ",yes,Na,Alo,false,", 1)
	if _, err := ParseBuilderFills(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected error for non-literal boolean")
	}
}
