package api

import (
	"encoding/json"
	"net/http"

	"github.com/yanizio/gitconf/internal/auth"
	"github.com/yanizio/gitconf/internal/errs"
)

type vaultGetRequest struct {
	Namespace string `json:"namespace"`
}

func (s *Server) handleVaultGet(w http.ResponseWriter, r *http.Request) {
	var req vaultGetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	secrets, err := s.vaults.Get(req.Namespace)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"secrets": secrets})
}

// vaultUpdateRequest's secret key/value pairs are carried at the top level of
// the JSON body alongside namespace/email/commitMessage (spec.md §6), so the
// body is decoded twice: once into the known fields, once into a raw map to
// recover the remaining keys as the secret set.
type vaultUpdateRequest struct {
	Namespace     string `json:"namespace"`
	Email         string `json:"email"`
	CommitMessage string `json:"commitMessage"`
}

var vaultUpdateReservedKeys = map[string]struct{}{
	"namespace":     {},
	"email":         {},
	"commitMessage": {},
}

func (s *Server) handleVaultUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := readAll(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req vaultUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, errs.Wrap(errs.CodeInvalidContent, 400, "request body is not valid JSON", err))
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		s.writeError(w, errs.Wrap(errs.CodeInvalidContent, 400, "request body is not valid JSON", err))
		return
	}

	secrets := make(map[string]string, len(raw))
	for key, val := range raw {
		if _, reserved := vaultUpdateReservedKeys[key]; reserved {
			continue
		}
		str, ok := val.(string)
		if !ok {
			s.writeError(w, errs.New(errs.CodeInvalidSecretKey, 400, "secret value for key \""+key+"\" must be a string"))
			return
		}
		secrets[key] = str
	}

	if err := s.vaults.Update(req.Namespace, secrets, req.Email, req.CommitMessage); err != nil {
		s.writeError(w, err)
		return
	}
	ctx := auth.WithRequesterEmail(r.Context(), req.Email)
	s.auditLog(r.WithContext(ctx), w, req.Namespace, "vault.update")
	writeJSON(w, http.StatusOK, map[string]string{"namespace": req.Namespace})
}
