package api

import (
	"io"
	"net/http"

	"github.com/yanizio/gitconf/internal/errs"
)

func readAll(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidContent, 400, "failed to read request body", err)
	}
	return body, nil
}

type resolveRequest struct {
	Application string `json:"application"`
	Profile     string `json:"profile"`
	Label       string `json:"label"`
}

// handleResolve implements the pull-client contract of spec.md §4.9/§6.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.resolver.Resolve(req.Application, req.Profile, req.Label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
