// Package api provides the privileged HTTP handlers of the clinic-admin
// control plane.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-admin/internal/service/provision"
	"clinic-admin/internal/service/security"
	"clinic-admin/internal/service/storage"
)

// Handler wires the request handlers to their services. Every entry point
// resolves the caller's tier first; services enforce their own minimum tier.
type Handler struct {
	resolver    *security.Resolver
	provisioner *provision.Service
	accounts    *provision.AccountService
	attachments *storage.AttachmentService // nil when S3 is not configured
	logger      *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	resolver *security.Resolver,
	provisioner *provision.Service,
	accounts *provision.AccountService,
	attachments *storage.AttachmentService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		resolver:    resolver,
		provisioner: provisioner,
		accounts:    accounts,
		attachments: attachments,
		logger:      logger,
	}
}

// Mount registers all entry points on the router. All admin operations are
// POST: they mutate or return caller-specific data and must never be cached.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/admin/employees", h.CreateEmployee)
	r.Post("/admin/employees/list", h.ListEmployees)
	r.Post("/admin/owners", h.CreateOwner)
	r.Post("/admin/users/ensure", h.EnsureUser)
	r.Post("/admin/accounts/freeze", h.FreezeAccount)
	r.Post("/admin/accounts/delete", h.DeleteAccount)
	r.Post("/attachments/sign", h.SignAttachment)
}

// Healthz is the unauthenticated liveness probe.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
