package api

import (
	"net/http"

	"clinic-admin/internal/domain"
)

type signAttachmentRequest struct {
	Bucket    string   `json:"bucket"`
	Path      string   `json:"path"`
	ExpiresIn *float64 `json:"expiresIn"`
}

// SignAttachment issues a time-bounded signed URL for a chat attachment.
// The caller must be a participant of the owning conversation or carry a
// superadmin membership role.
func (h *Handler) SignAttachment(w http.ResponseWriter, r *http.Request) {
	if h.attachments == nil {
		writeError(w, domain.ErrUpstream("attachment signing is not configured"))
		return
	}

	var req signAttachmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	signed, err := h.attachments.Sign(r.Context(), credentialFromRequest(r).Bearer, req.Bucket, req.Path, req.ExpiresIn)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"bucket":    signed.Bucket,
		"path":      signed.Path,
		"signedUrl": signed.SignedURL,
		"expiresIn": signed.ExpiresIn,
	})
}
