package server

import (
	"net/http"

	"github.com/hardhat-labs/scenecontract/internal/routing"
	"github.com/hardhat-labs/scenecontract/pkg/uuidv7"
)

// traceIDFor prefers the inbound traceparent; callers without one get a
// server-minted UUIDv7 so every audit entry still correlates.
func traceIDFor(r *http.Request) string {
	if id := routing.TraceIDFromRequest(r); id != "" {
		return id
	}
	id, err := uuidv7.NewString()
	if err != nil {
		return "untraced"
	}
	return id
}
