package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-registry/internal/registry"
)

// PersonsHandler handles the per-tenant person roster endpoints.
type PersonsHandler struct {
	manager *registry.Manager
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(m *registry.Manager) *PersonsHandler {
	return &PersonsHandler{manager: m}
}

// createRequest is the JSON alternative to a multipart create: the image
// travels base64-encoded in the body.
type createRequest struct {
	registry.Profile
	ImageBase64 string `json:"image_base64"`
}

// List returns the tenant's roster, optionally filtered by the q parameter.
// Matching is case- and diacritics-insensitive over name, email and phone.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	doc, err := h.manager.List(tenantID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		doc = registry.FilterDocument(doc, q)
	}

	persons := make([]registry.Person, 0, len(doc))
	for id, p := range doc {
		persons = append(persons, registry.Person{ID: id, Person: p})
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].Name < persons[j].Name })

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(persons),
		"persons": persons,
	})
}

// Create registers a new person from either a multipart form (fields plus a
// "file" part, mirroring the recognition engine's own API) or a JSON body
// with a base64-encoded image.
func (h *PersonsHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	profile, image, ok := readCreatePayload(w, r)
	if !ok {
		return
	}

	person, err := h.manager.Create(r.Context(), tenantID, profile, image)
	if err != nil {
		log.Printf("create person failed for tenant %s: %v", sanitizeForLog(tenantID), err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, person)
}

// readCreatePayload extracts profile and image bytes from either encoding.
// On failure it writes the error response and returns ok=false.
func readCreatePayload(w http.ResponseWriter, r *http.Request) (registry.Profile, []byte, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return registry.Profile{}, nil, false
		}
		image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "image_base64 is not valid base64")
			return registry.Profile{}, nil, false
		}
		return req.Profile, image, true
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return registry.Profile{}, nil, false
	}

	profile := registry.Profile{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
		Phone: r.FormValue("phone"),
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return registry.Profile{}, nil, false
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read uploaded file")
		return registry.Profile{}, nil, false
	}

	return profile, image, true
}

// Get returns a single person.
func (h *PersonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	personID := chi.URLParam(r, "id")

	person, err := h.manager.Get(tenantID, personID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, person)
}

// Update applies a partial profile change. Absent fields are left untouched.
func (h *PersonsHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	personID := chi.URLParam(r, "id")

	var update registry.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	person, err := h.manager.Update(r.Context(), tenantID, personID, update)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, person)
}

// Delete removes a person from the roster.
func (h *PersonsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	personID := chi.URLParam(r, "id")

	person, err := h.manager.Delete(r.Context(), tenantID, personID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"deleted": person,
	})
}

// Face serves a stored face image.
func (h *PersonsHandler) Face(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	filename := chi.URLParam(r, "filename")

	path, err := h.manager.ImagePath(tenantID, filename)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	http.ServeFile(w, r, path)
}
