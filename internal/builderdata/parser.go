package builderdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hl-ledger/internal/types"
)

// expectedHeader is the fixed 14-column schema the feed publishes.
var expectedHeader = []string{
	"time", "user", "coin", "side", "px", "sz", "crossed",
	"special_trade_type", "tif", "is_trigger", "counterparty",
	"closed_pnl", "twap_id", "builder_fee",
}

// ParseBuilderFills decodes a day's decompressed CSV body into BuilderFill
// records. Parsing is strict: RFC3339 timestamps, literal "true"/"false"
// booleans, and decimals parsed via string round-trip so CSV values and
// API-parsed values render identically when re-stringified by the
// enricher's composite key.
func ParseBuilderFills(r io.Reader) ([]BuilderFill, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(expectedHeader)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("builder fill csv: reading header: %w", err)
	}
	if !headerMatches(header) {
		return nil, fmt.Errorf("builder fill csv: unexpected header %v", header)
	}

	var fills []BuilderFill
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("builder fill csv: %w", err)
		}
		fill, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("builder fill csv: row %v: %w", record, err)
		}
		fills = append(fills, fill)
	}
	return fills, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(expectedHeader) {
		return false
	}
	for i, h := range expectedHeader {
		if strings.TrimSpace(header[i]) != h {
			return false
		}
	}
	return true
}

func parseRecord(row []string) (BuilderFill, error) {
	t, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return BuilderFill{}, fmt.Errorf("time: %w", err)
	}

	side, err := ParseBuilderFillSide(row[3])
	if err != nil {
		return BuilderFill{}, err
	}

	px, err := parseDecimal("px", row[4])
	if err != nil {
		return BuilderFill{}, err
	}
	sz, err := parseDecimal("sz", row[5])
	if err != nil {
		return BuilderFill{}, err
	}
	crossed, err := parseStrictBool("crossed", row[6])
	if err != nil {
		return BuilderFill{}, err
	}
	isTrigger, err := parseStrictBool("is_trigger", row[9])
	if err != nil {
		return BuilderFill{}, err
	}
	closedPnl, err := parseDecimal("closed_pnl", row[11])
	if err != nil {
		return BuilderFill{}, err
	}
	twapID, err := strconv.ParseUint(row[12], 10, 64)
	if err != nil {
		return BuilderFill{}, fmt.Errorf("twap_id: %w", err)
	}
	builderFee, err := parseDecimal("builder_fee", row[13])
	if err != nil {
		return BuilderFill{}, err
	}

	return BuilderFill{
		Time:             t,
		User:             strings.ToLower(strings.TrimSpace(row[1])),
		Asset:            types.NewAsset(row[2]),
		Side:             side,
		Price:            px,
		Size:             sz,
		Crossed:          crossed,
		SpecialTradeType: row[7],
		TimeInForce:      row[8],
		IsTrigger:        isTrigger,
		Counterparty:     row[10],
		ClosedPnl:        closedPnl,
		TwapID:           twapID,
		BuilderFee:       builderFee,
	}, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func parseStrictBool(field, value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &InvalidFieldError{Field: field, Value: value}
	}
}
