package api

import (
	"encoding/json"
	"log"
	"net/http"

	"hl-ledger/internal/indexer"
)

// errorResponse is the error body shape: {error: kind, details?: message}.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Details: message})
}

// writeError translates an *indexer.Error into the status/kind/details the
// original server's ApiError variants produce; any other error is treated
// as internal and its details are withheld from the client.
func writeError(w http.ResponseWriter, err error) {
	idxErr, ok := err.(*indexer.Error)
	if !ok {
		log.Printf("api: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}

	switch idxErr.Kind {
	case indexer.KindBadRequest:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Details: idxErr.Msg})
	case indexer.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Details: idxErr.Msg})
	case indexer.KindInvalidAddress, indexer.KindInvalidInput, indexer.KindWebSocket:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Details: idxErr.Msg})
	default:
		log.Printf("api: indexer error: %v", idxErr)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "indexer_error", Details: idxErr.Error()})
	}
}
