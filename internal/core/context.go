//
//  internal/core/context.go
//
//  Per-request context passed to API handlers, and the basis for this
//  service's audit log of namespace-mutating operations: spec.md §4.7 notes
//  that internal-mode secret redaction exists specifically to keep
//  plaintext off "management/audit surfaces" — Context is what the audit
//  log (internal/api's auditLog) is built from.
//

package core

import (
	"net/http"

	"github.com/yanizio/gitconf/internal/requestinfo"
)

type Context struct {
	Namespace string                  // Namespace targeted by this request, if any
	Request   *http.Request           // Raw request
	Writer    http.ResponseWriter     // Convenience writer
	Params    map[string]string       // Route params ("namespace", "commitId", etc.)
	Info      requestinfo.RequestInfo // UA, method, path, timestamp
}

// New builds a Context for namespace, picking up whatever requestinfo
// middleware.AccessLog already attached to r's context.
func New(r *http.Request, w http.ResponseWriter, namespace string, params map[string]string) *Context {
	info, _ := requestinfo.FromContext(r.Context())
	return &Context{Namespace: namespace, Request: r, Writer: w, Params: params, Info: info}
}
