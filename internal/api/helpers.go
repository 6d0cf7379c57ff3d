package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"clinic-admin/internal/domain"
	"clinic-admin/internal/service/security"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// errorResponse is the uniform error body: {"ok": false, "error": msg}.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatusFromDomainError(err), errorResponse{OK: false, Error: err.Error()})
}

// decodeJSON reads a size-limited JSON body into dst. A malformed body is
// a validation failure, detected before any mutation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrValidation("malformed JSON body")
	}
	return nil
}

// credentialFromRequest extracts the raw authentication material. Both
// historical spellings of the bridge header are accepted.
func credentialFromRequest(r *http.Request) security.Credential {
	cred := security.Credential{}
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		cred.Bearer = strings.TrimSpace(auth[7:])
	}
	if v := r.Header.Get("X-Admin-Internal-Token"); v != "" {
		cred.BridgeToken = v
	} else if v := r.Header.Get("X-Admin-Internal"); v != "" {
		cred.BridgeToken = v
	}
	return cred
}
