// Package api wires the management HTTP surface of spec.md §6: JSON-bodied
// POST endpoints over namespaces, configuration files, vaults, and the
// pull-client resolver, plus translation of internal/errs.Error into HTTP
// responses.
//
// The handler shape (decode body, validate, call one domain method, encode
// response or error) follows the teacher's components/example JSON-endpoint
// pattern rather than introducing a new framework of its own.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/auth"
	"github.com/yanizio/gitconf/internal/cache"
	"github.com/yanizio/gitconf/internal/configstore"
	"github.com/yanizio/gitconf/internal/core"
	"github.com/yanizio/gitconf/internal/errs"
	"github.com/yanizio/gitconf/internal/middleware"
	"github.com/yanizio/gitconf/internal/notify"
	"github.com/yanizio/gitconf/internal/repo"
	"github.com/yanizio/gitconf/internal/resolver"
	"github.com/yanizio/gitconf/internal/vault"
)

// Server holds every component the management API dispatches to.
type Server struct {
	gateway     *repo.Gateway
	configs     *configstore.Store
	vaults      *vault.Store
	resolver    *resolver.Resolver
	notifyStore *notify.Store
	cache       *cache.Cache
	log         *zap.Logger
}

// New constructs a Server.
func New(gateway *repo.Gateway, configs *configstore.Store, vaults *vault.Store, res *resolver.Resolver, notifyStore *notify.Store, c *cache.Cache, log *zap.Logger) *Server {
	return &Server{gateway: gateway, configs: configs, vaults: vaults, resolver: res, notifyStore: notifyStore, cache: c, log: log}
}

// Router builds the chi router mounting every management endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(func(next http.Handler) http.Handler { return middleware.AccessLog(s.log, next) })

	r.Post("/namespace/create", s.handleNamespaceCreate)
	r.Post("/namespace/list", s.handleNamespaceList)
	r.Post("/namespace/files", s.handleNamespaceFiles)
	r.Post("/namespace/delete", s.handleNamespaceDelete)
	r.Post("/namespace/events", s.handleNamespaceEvents)
	r.Post("/namespace/notify", s.handleNamespaceNotify)

	r.Post("/config/create", s.handleConfigCreate)
	r.Post("/config/fetch", s.handleConfigFetch)
	r.Post("/config/update", s.handleConfigUpdate)
	r.Post("/config/history", s.handleConfigHistory)
	r.Post("/config/changes", s.handleConfigChanges)
	r.Post("/config/delete", s.handleConfigDelete)

	r.Post("/vault/get", s.handleVaultGet)
	r.Post("/vault/update", s.handleVaultUpdate)

	r.Post("/resolve", s.handleResolve)

	return r
}

// routeParams collects chi's path parameters for the current route. None of
// this service's endpoints use path segments (every request is a JSON-bodied
// POST), so this is normally empty; it exists so core.Context's Params field
// is populated the same way a future path-parameterized route would expect.
func routeParams(r *http.Request) map[string]string {
	params := map[string]string{}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		for i, key := range rc.URLParams.Keys {
			params[key] = rc.URLParams.Values[i]
		}
	}
	return params
}

// auditLog records a namespace-mutating management operation: the
// caller-asserted email (threaded via internal/auth), the namespace, the
// action, and the request's derived diagnostics. spec.md §4.7 notes that
// internal-mode secret redaction exists to keep plaintext off "management/
// audit surfaces" — this is that audit surface.
func (s *Server) auditLog(r *http.Request, w http.ResponseWriter, namespace, action string) {
	c := core.New(r, w, namespace, routeParams(r))
	email, _ := auth.RequesterEmail(c.Request.Context())
	s.log.Info("audit",
		zap.String("action", action),
		zap.String("namespace", c.Namespace),
		zap.String("email", email),
		zap.String("path", c.Request.URL.Path),
		zap.String("browser", c.Info.UA.Browser),
	)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errs.Wrap(errs.CodeInvalidContent, 400, "request body is not valid JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates err into an HTTP response. *errs.Error carries its
// own status and code; anything else becomes a generic 500 INTERNAL_ERROR
// with the cause logged but not returned (spec.md §7).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if e, ok := err.(*errs.Error); ok {
		writeJSON(w, e.Status, map[string]string{"code": string(e.Code), "message": e.Message})
		return
	}
	s.log.Error("unhandled error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"code":    string(errs.CodeInternal),
		"message": "internal error",
	})
}
