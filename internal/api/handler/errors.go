package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/tictactoe-rooms/internal/api/apierr"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// decodeBody parses a JSON request body, writing a 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, apierr.NewInvalidRequestError("Invalid request body"))
		return false
	}
	return true
}
