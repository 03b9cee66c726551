package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/grocerly/go-checkout/internal/checkout"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if de, ok := checkout.AsDomainError(err); ok {
		writeJSON(w, de.Status, ErrorResponse{Error: de.Code, Message: de.Message, Details: de.Details})
		return
	}
	slog.Error("unhandled error", "err", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   checkout.CodeInternal,
		Message: "internal server error",
	})
}

func writeDomain(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
