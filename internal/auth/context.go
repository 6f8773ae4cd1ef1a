// internal/auth/context.go
//
// Request identity helper. Actual authentication is out of scope for this
// system (spec.md §1, "out of scope... user authentication" — callers are
// trusted to supply a caller-asserted email on every mutating request, the
// same email that becomes the Git commit author). This package only carries
// that already-validated email through a request's context so downstream
// code (access logging, handlers) doesn't need it threaded through every
// call signature.
//
// Usage
// -----
//     ctx = auth.WithRequesterEmail(ctx, "alice@example.com")
//     email, ok := auth.RequesterEmail(ctx)
package auth

import "context"

// requesterKey is unexported to avoid context-key collisions.
type requesterKey struct{}

// WithRequesterEmail returns a new context carrying the caller-asserted
// email for this request.
func WithRequesterEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, requesterKey{}, email)
}

// RequesterEmail extracts the email stashed by WithRequesterEmail.
func RequesterEmail(ctx context.Context) (string, bool) {
	v := ctx.Value(requesterKey{})
	email, ok := v.(string)
	return email, ok
}
