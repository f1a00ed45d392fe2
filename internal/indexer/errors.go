// Package indexer wires the paginated fetcher (C3), streaming collector
// (C4), builder feed (C5), enricher (C6), PnL aggregator (C7), and taint
// tracker (C8) together behind a single per-deployment entrypoint, and
// dispatches leaderboard computation (C9).
package indexer

import (
	"errors"
	"fmt"

	"hl-ledger/internal/ingestion"
)

// Kind is the error taxonomy the HTTP layer translates into status codes.
type Kind int

const (
	KindBadRequest Kind = iota
	KindNotFound
	KindNetwork
	KindInvalidAddress
	KindInvalidInput
	KindWebSocket
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
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

// Error is the indexer layer's error type. Ingestion-layer errors are
// wrapped rather than flattened to a string, so callers can still unwrap to
// the original *ingestion.Error if needed.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func invalidAddress(addr string) *Error {
	return &Error{Kind: KindInvalidAddress, Msg: fmt.Sprintf("invalid address %q", addr)}
}

// wrapIngestionErr maps an *ingestion.Error to the indexer's own taxonomy,
// preserving the original as the wrapped cause.
func wrapIngestionErr(err error) *Error {
	var ingErr *ingestion.Error
	if errors.As(err, &ingErr) {
		kind := KindNetwork
		switch ingErr.Kind {
		case ingestion.KindInvalidAddress:
			kind = KindInvalidAddress
		case ingestion.KindInvalidInput:
			kind = KindInvalidInput
		case ingestion.KindWebSocket:
			kind = KindWebSocket
		case ingestion.KindNoData:
			kind = KindNoData
		}
		return &Error{Kind: kind, Msg: ingErr.Msg, Err: err}
	}
	return &Error{Kind: KindNetwork, Msg: err.Error(), Err: err}
}
