package api

import (
	"net/http"

	"github.com/yanizio/gitconf/internal/auth"
	"github.com/yanizio/gitconf/internal/errs"
)

type configCreateRequest struct {
	Action    string `json:"action"`
	AppName   string `json:"appName"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Email     string `json:"email"`
}

func (s *Server) handleConfigCreate(w http.ResponseWriter, r *http.Request) {
	var req configCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Action != "create" {
		s.writeError(w, errs.New(errs.CodeInvalidActionType, 400, "action must be \"create\""))
		return
	}
	if err := s.configs.Initialize(req.Namespace, req.Path, req.AppName, req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	ctx := auth.WithRequesterEmail(r.Context(), req.Email)
	s.auditLog(r.WithContext(ctx), w, req.Namespace, "config.create")
	writeJSON(w, http.StatusCreated, map[string]string{"namespace": req.Namespace, "path": req.Path})
}

type configFetchRequest struct {
	Action    string `json:"action"`
	AppName   string `json:"appName"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Email     string `json:"email"`
}

func (s *Server) handleConfigFetch(w http.ResponseWriter, r *http.Request) {
	var req configFetchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Action != "fetch" {
		s.writeError(w, errs.New(errs.CodeInvalidActionType, 400, "action must be \"fetch\""))
		return
	}
	content, err := s.configs.Read(req.Namespace, req.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

type configUpdateRequest struct {
	Action    string `json:"action"`
	AppName   string `json:"appName"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Email     string `json:"email"`
	Content   string `json:"content"`
	Message   string `json:"message"`
	CommitID  string `json:"commitId"`
}

func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	var req configUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Action != "update" {
		s.writeError(w, errs.New(errs.CodeInvalidActionType, 400, "action must be \"update\""))
		return
	}
	newCommitID, err := s.configs.Update(req.Namespace, req.Path, req.Content, req.Message, req.Email, req.CommitID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ctx := auth.WithRequesterEmail(r.Context(), req.Email)
	s.auditLog(r.WithContext(ctx), w, req.Namespace, "config.update")
	writeJSON(w, http.StatusOK, map[string]string{"commitId": newCommitID})
}

type configHistoryRequest struct {
	Action    string `json:"action"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

func (s *Server) handleConfigHistory(w http.ResponseWriter, r *http.Request) {
	var req configHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Action != "history" {
		s.writeError(w, errs.New(errs.CodeInvalidActionType, 400, "action must be \"history\""))
		return
	}
	records, err := s.configs.History(req.Namespace, req.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

type configChangesRequest struct {
	Action    string `json:"action"`
	Namespace string `json:"namespace"`
	CommitID  string `json:"commitId"`
}

func (s *Server) handleConfigChanges(w http.ResponseWriter, r *http.Request) {
	var req configChangesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Action != "changes" {
		s.writeError(w, errs.New(errs.CodeInvalidActionType, 400, "action must be \"changes\""))
		return
	}
	record, diff, err := s.configs.CommitChanges(req.Namespace, req.CommitID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commit": record, "diff": diff})
}

type configDeleteRequest struct {
	Action    string `json:"action"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Message   string `json:"message"`
	Email     string `json:"email"`
}

func (s *Server) handleConfigDelete(w http.ResponseWriter, r *http.Request) {
	var req configDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Action != "delete" {
		s.writeError(w, errs.New(errs.CodeInvalidActionType, 400, "action must be \"delete\""))
		return
	}
	if err := s.configs.Delete(req.Namespace, req.Path, req.Message, req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	ctx := auth.WithRequesterEmail(r.Context(), req.Email)
	s.auditLog(r.WithContext(ctx), w, req.Namespace, "config.delete")
	writeJSON(w, http.StatusOK, map[string]string{"namespace": req.Namespace, "path": req.Path})
}
