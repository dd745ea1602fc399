package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/store"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxUploadSize bounds multipart uploads (16 MiB covers any face image).
const maxUploadSize = 16 << 20

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps a domain error onto an HTTP status. Engine failures
// caused by the input (no face, several faces, unreadable image) are the
// client's fault; an unreachable engine is a bad gateway.
func respondDomainError(w http.ResponseWriter, err error) {
	var vErr *registry.ValidationError
	var engErr *engine.Error
	var ioErr *store.IOError

	switch {
	case errors.Is(err, tenant.ErrUnknownTenant):
		respondError(w, http.StatusNotFound, "unknown tenant")
	case errors.Is(err, registry.ErrPersonNotFound):
		respondError(w, http.StatusNotFound, "person not found")
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &engErr):
		switch engErr.Reason {
		case engine.NoFaceDetected, engine.MultipleFacesDetected, engine.InvalidImage:
			respondError(w, http.StatusBadRequest, engErr.Error())
		case engine.NotFound:
			respondError(w, http.StatusNotFound, engErr.Error())
		default:
			respondError(w, http.StatusBadGateway, engErr.Error())
		}
	case errors.As(err, &ioErr):
		respondError(w, http.StatusInternalServerError, "storage failure")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
