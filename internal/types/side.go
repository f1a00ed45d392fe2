package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of a fill. The exchange's info endpoint and the
// builder-fill CSV feed use different alias vocabularies for the same two
// values, so Side accepts both on decode.
type Side int

const (
	Buy Side = iota
	Sell
)

// Sign returns +1 for Buy and -1 for Sell, used to compute signed size.
func (s Side) Sign() decimal.Decimal {
	if s == Buy {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// IsBuy reports whether the side is Buy.
func (s Side) IsBuy() bool {
	return s == Buy
}

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// ParseSide accepts the exchange's "B"/"buy"/"Bid" aliases for Buy and
// "A"/"S"/"sell"/"Ask" for Sell, case-insensitively.
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "b", "buy", "bid":
		return Buy, nil
	case "a", "s", "sell", "ask":
		return Sell, nil
	default:
		return Buy, fmt.Errorf("unrecognized side %q", raw)
	}
}

// MarshalJSON renders Side as its lowercase name.
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts any of the alias spellings.
func (s *Side) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSide(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
