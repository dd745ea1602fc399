package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-registry/internal/registry"
)

// TenantsHandler exposes the tenant catalog.
type TenantsHandler struct {
	manager *registry.Manager
}

// NewTenantsHandler creates a new tenants handler.
func NewTenantsHandler(m *registry.Manager) *TenantsHandler {
	return &TenantsHandler{manager: m}
}

// List returns all configured tenants in catalog order.
func (h *TenantsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"tenants": h.manager.Catalog().List(),
	})
}
