package api

import (
	"net/http"

	"clinic-admin/internal/domain"
)

type createEmployeeRequest struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// CreateEmployee provisions an employee principal into an account. Allowed
// for global super admins, the account's enabled owner/admin members, and
// internal bridge callers. Repeating the call for the same employee is
// idempotent in outcome: the identity is reused and a disabled membership
// is reactivated.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	tier, err := h.resolver.Resolve(r.Context(), credentialFromRequest(r), domain.Scope{AccountID: req.AccountID})
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.provisioner.ProvisionEmployee(r.Context(), tier, req.AccountID, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"user_id": res.UserID,
		"reused":  res.Reused,
	})
}

type createOwnerRequest struct {
	ClinicName    string `json:"clinic_name"`
	OwnerEmail    string `json:"owner_email"`
	OwnerPassword string `json:"owner_password"`
}

// CreateOwner bootstraps a new clinic account and provisions its owner.
func (h *Handler) CreateOwner(w http.ResponseWriter, r *http.Request) {
	var req createOwnerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	tier, err := h.resolver.Resolve(r.Context(), credentialFromRequest(r), domain.Scope{})
	if err != nil {
		writeError(w, err)
		return
	}

	accountID, res, err := h.provisioner.CreateOwner(r.Context(), tier, req.ClinicName, req.OwnerEmail, req.OwnerPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"account_id": accountID,
		"user_id":    res.UserID,
		"reused":     res.Reused,
	})
}

type ensureUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EnsureUser reconciles a bare identity without linking it to any account.
func (h *Handler) EnsureUser(w http.ResponseWriter, r *http.Request) {
	var req ensureUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	tier, err := h.resolver.Resolve(r.Context(), credentialFromRequest(r), domain.Scope{})
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.provisioner.EnsureUser(r.Context(), tier, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"user_id": res.UserID,
		"reused":  res.Reused,
	})
}
