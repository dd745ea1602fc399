package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/store"
)

// RecognizeHandler runs a probe image through the engine and maps matches
// back to person records.
type RecognizeHandler struct {
	manager *registry.Manager
	engine  engine.Engine
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(m *registry.Manager, eng engine.Engine) *RecognizeHandler {
	return &RecognizeHandler{manager: m, engine: eng}
}

// matchResult is one resolved candidate for a detected face. Unresolvable
// and stale matches are reported with a status instead of being dropped, so
// callers can see that the engine index has drifted.
type matchResult struct {
	Status     string  `json:"status"` // resolved, stale_subject, foreign_subject
	Tenant     string  `json:"tenant,omitempty"`
	PersonID   string  `json:"person_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Similarity float64 `json:"similarity"`
}

// candidate is a lower-ranked engine match, exposed raw: only the best
// candidate per face is resolved to a person.
type candidate struct {
	SubjectID  string  `json:"subject_id"`
	Similarity float64 `json:"similarity"`
}

type faceResult struct {
	Match      *matchResult `json:"match,omitempty"`
	Candidates []candidate  `json:"candidates,omitempty"`
}

// Recognize accepts a multipart "file" and returns the resolved candidates
// for every detected face. An image with no detectable face yields an empty
// face list, not an error.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	if !h.manager.Catalog().IsValid(tenantID) {
		respondError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	faces, err := h.engine.Recognize(r.Context(), image)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// One roster read serves every candidate from the requesting tenant.
	cache, err := h.manager.List(tenantID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	results := make([]faceResult, 0, len(faces))
	for _, face := range faces {
		var fr faceResult
		if len(face.Matches) > 0 {
			best := h.resolveMatch(face.Matches[0], tenantID, cache)
			fr.Match = &best
			for _, match := range face.Matches[1:] {
				fr.Candidates = append(fr.Candidates, candidate{
					SubjectID:  match.SubjectID,
					Similarity: match.Similarity,
				})
			}
		}
		results = append(results, fr)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"faces": results,
	})
}

func (h *RecognizeHandler) resolveMatch(match engine.Match, tenantID string, cache store.Document) matchResult {
	res, err := h.manager.Resolve(match, tenantID, cache)
	switch {
	case errors.Is(err, registry.ErrUnresolvableSubject):
		return matchResult{Status: "foreign_subject", Similarity: match.Similarity}
	case errors.Is(err, registry.ErrStaleSubject):
		log.Printf("stale engine entry %s", sanitizeForLog(match.SubjectID))
		return matchResult{Status: "stale_subject", Similarity: match.Similarity}
	case err != nil:
		log.Printf("could not resolve match %s: %v", sanitizeForLog(match.SubjectID), err)
		return matchResult{Status: "stale_subject", Similarity: match.Similarity}
	}

	// A subject belonging to another tenant's roster must never cross the
	// tenant boundary: report it as foreign, without the record.
	if res.Tenant.ID != tenantID {
		return matchResult{Status: "foreign_subject", Similarity: match.Similarity}
	}

	return matchResult{
		Status:     "resolved",
		Tenant:     res.Tenant.ID,
		PersonID:   res.PersonID,
		Name:       res.Person.Name,
		Email:      res.Person.Email,
		Phone:      res.Person.Phone,
		Similarity: res.Similarity,
	}
}
