package server

import (
	"context"
	"net/http"
	"strings"
)

const actorHeader = "X-Actor-Id"

type requestKey struct{}
type bodyBytesKey struct{}

// actorIDFromContext resolves the acting user from the X-Actor-Id header.
// Authentication proper lives with an upstream gateway; the header is
// taken at face value here.
func actorIDFromContext(ctx context.Context) string {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok {
		return "api-user"
	}
	actor := strings.TrimSpace(r.Header.Get(actorHeader))
	if actor == "" {
		return "api-user"
	}
	return actor
}

func bodyBytes(ctx context.Context) []byte {
	if b, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return b
	}
	return nil
}
