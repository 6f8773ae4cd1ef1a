package api

import (
	"net/http"

	"github.com/yanizio/gitconf/internal/auth"
	"github.com/yanizio/gitconf/internal/validate"
)

const systemAuthorEmail = "system@gitconf.local"

type namespaceCreateRequest struct {
	Namespace string `json:"namespace"`
	Email     string `json:"email"`
}

func (s *Server) handleNamespaceCreate(w http.ResponseWriter, r *http.Request) {
	var req namespaceCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	email := req.Email
	if email == "" {
		email = systemAuthorEmail
	} else if err := validate.ValidateEmail(email); err != nil {
		s.writeError(w, err)
		return
	}

	ctx := auth.WithRequesterEmail(r.Context(), email)
	if err := s.gateway.CreateNamespace(req.Namespace, email); err != nil {
		s.writeError(w, err)
		return
	}
	s.cache.NamespaceCreatedOrDeleted()
	s.auditLog(r.WithContext(ctx), w, req.Namespace, "namespace.create")
	writeJSON(w, http.StatusCreated, map[string]string{"namespace": req.Namespace})
}

func (s *Server) handleNamespaceList(w http.ResponseWriter, r *http.Request) {
	names, err := s.configs.ListNamespaces()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"namespaces": names})
}

type namespaceFilesRequest struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

func (s *Server) handleNamespaceFiles(w http.ResponseWriter, r *http.Request) {
	var req namespaceFilesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	names, err := s.configs.ListDirectory(req.Namespace, req.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": names})
}

type namespaceRequest struct {
	Namespace string `json:"namespace"`
}

func (s *Server) handleNamespaceDelete(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.gateway.DeleteNamespace(req.Namespace); err != nil {
		s.writeError(w, err)
		return
	}
	s.cache.NamespaceDeleted(req.Namespace)
	s.auditLog(r, w, req.Namespace, "namespace.delete")
	writeJSON(w, http.StatusOK, map[string]string{"namespace": req.Namespace})
}

func (s *Server) handleNamespaceEvents(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	events, err := s.configs.NamespaceEvents(req.Namespace)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleNamespaceNotify(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := validate.ValidateNamespace(req.Namespace); err != nil {
		s.writeError(w, err)
		return
	}
	notifications := s.notifyStore.Recent(req.Namespace, 0)
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}
