package ingestion

import "fmt"

// Kind tags an ingestion-layer error for HTTP translation (internal/api)
// and for the leaderboard's per-user failure isolation.
type Kind int

const (
	KindNetwork Kind = iota
	KindInvalidAddress
	KindInvalidInput
	KindWebSocket
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindInvalidAddress:
		return "invalid_address"
	case KindInvalidInput:
		return "invalid_input"
	case KindWebSocket:
		return "websocket"
	case KindNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// Error is the ingestion layer's error type: each variant owns its message
// directly rather than wrapping an opaque external error, so callers can
// switch on Kind without inspecting strings.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
