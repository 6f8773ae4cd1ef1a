// Package requestinfo attaches derived, request-scoped diagnostic
// information (currently: parsed User-Agent) to a context.Context, so
// handlers and access logging can read it without re-parsing headers.
//
// The teacher's equivalent package also resolved client IP to a country/city
// via a MaxMind database. This system ships no geo database and no spec'd
// feature consumes location data, so that half of the teacher's struct is
// dropped; see DESIGN.md.
package requestinfo

import (
	"context"
	"net/http"
	"time"

	"github.com/yanizio/gitconf/internal/ua"
)

// RequestInfo is the per-request diagnostic bundle carried in context.
type RequestInfo struct {
	UA        ua.Info
	Method    string
	Path      string
	Timestamp time.Time
}

type ctxKey struct{}

// FromRequest builds a RequestInfo from an inbound *http.Request.
func FromRequest(r *http.Request) RequestInfo {
	return RequestInfo{
		UA:        ua.Parse(r.UserAgent()),
		Method:    r.Method,
		Path:      r.URL.Path,
		Timestamp: time.Now(),
	}
}

// WithContext returns a copy of ctx carrying info.
func WithContext(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext retrieves the RequestInfo stashed by WithContext, if any.
func FromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(ctxKey{}).(RequestInfo)
	return info, ok
}
