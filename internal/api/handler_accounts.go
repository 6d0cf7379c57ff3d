package api

import (
	"net/http"
	"time"

	"clinic-admin/internal/domain"
)

type freezeAccountRequest struct {
	AccountID string `json:"account_id"`
	Frozen    *bool  `json:"frozen"`
}

// FreezeAccount sets the provisioning gate of an account. Super admin only.
func (h *Handler) FreezeAccount(w http.ResponseWriter, r *http.Request) {
	var req freezeAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Frozen == nil {
		writeError(w, domain.ErrValidation("frozen flag is required"))
		return
	}

	tier, err := h.resolver.Resolve(r.Context(), credentialFromRequest(r), domain.Scope{})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.SetFrozen(r.Context(), tier, req.AccountID, *req.Frozen); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type deleteAccountRequest struct {
	AccountID string `json:"account_id"`
}

// DeleteAccount removes an account and its membership rows. Super admin only.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	tier, err := h.resolver.Resolve(r.Context(), credentialFromRequest(r), domain.Scope{})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.Delete(r.Context(), tier, req.AccountID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type listEmployeesRequest struct {
	AccountID string `json:"account_id"`
}

type employeeRow struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}

// ListEmployees returns the membership rows of an account, ordered by email.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var req listEmployeesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	tier, err := h.resolver.Resolve(r.Context(), credentialFromRequest(r), domain.Scope{AccountID: req.AccountID})
	if err != nil {
		writeError(w, err)
		return
	}

	members, err := h.accounts.ListMemberships(r.Context(), tier, req.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]employeeRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, employeeRow{
			UID:       m.UserID,
			Email:     m.Email,
			Role:      m.Role,
			Disabled:  m.Disabled,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "employees": rows})
}
