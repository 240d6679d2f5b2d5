package middleware

import (
	"net/http"

	"github.com/mcoot/tictactoe-rooms/internal/middleware"
)

// RequestID creates middleware that tags each API request with an id
func RequestID() func(http.Handler) http.Handler {
	return middleware.RequestID()
}
