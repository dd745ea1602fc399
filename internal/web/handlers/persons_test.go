package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-registry/internal/registry"
)

func TestPersonsCreate_Multipart(t *testing.T) {
	m, eng := newTestManager(t)
	h := NewPersonsHandler(m)

	req := multipartRequest(t, "/api/v1/carrefour/persons", map[string]string{
		"name":  "Maria Santos",
		"email": "maria@example.com",
		"phone": "+55 11 99999-2222",
	}, testPNG(t))
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)

	var person registry.Person
	parseJSONResponse(t, rec, &person)
	if person.ID == "" {
		t.Fatal("expected person id in response")
	}
	if person.Name != "Maria Santos" {
		t.Errorf("unexpected person: %+v", person)
	}

	if len(eng.registered) != 1 || !strings.HasPrefix(eng.registered[0], "carrefour_") {
		t.Errorf("expected one namespaced registration, got %v", eng.registered)
	}
}

func TestPersonsCreate_JSONBase64(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)

	body, err := json.Marshal(map[string]string{
		"name":         "Ana Souza",
		"email":        "ana@example.com",
		"phone":        "+55 21 99999-3333",
		"image_base64": base64.StdEncoding.EncodeToString(testPNG(t)),
	})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carrefour/persons", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)
}

func TestPersonsCreate_MissingFields(t *testing.T) {
	m, eng := newTestManager(t)
	h := NewPersonsHandler(m)

	req := multipartRequest(t, "/api/v1/carrefour/persons", map[string]string{
		"name": "No Contact",
	}, testPNG(t))
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
	if len(eng.registered) != 0 {
		t.Errorf("validation failure must not reach the engine, got %v", eng.registered)
	}
}

func TestPersonsCreate_UnknownTenant(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)

	req := multipartRequest(t, "/api/v1/walmart/persons", map[string]string{
		"name":  "X",
		"email": "x@example.com",
		"phone": "1",
	}, testPNG(t))
	req = requestWithChiParams(req, map[string]string{"tenant": "walmart"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
	assertJSONError(t, rec, "unknown tenant")
}

func TestPersonsCreate_MissingFile(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)

	req := multipartRequest(t, "/api/v1/carrefour/persons", map[string]string{
		"name":  "X",
		"email": "x@example.com",
		"phone": "1",
	}, nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
	assertJSONError(t, rec, "file is required")
}

func TestPersonsList_Search(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)
	createPerson(t, m, "carrefour")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/carrefour/persons?q=joao", nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour"})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Count   int               `json:"count"`
		Persons []registry.Person `json:"persons"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Count != 1 || resp.Persons[0].Name != "João Silva" {
		t.Errorf("expected diacritics-insensitive hit, got %+v", resp)
	}

	// A query with no hits returns an empty list, not an error.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/carrefour/persons?q=nobody", nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour"})
	rec = httptest.NewRecorder()

	h.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	parseJSONResponse(t, rec, &resp)
	if resp.Count != 0 {
		t.Errorf("expected no hits, got %+v", resp)
	}
}

func TestPersonsGet(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)
	person := createPerson(t, m, "carrefour")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/carrefour/persons/"+person.ID, nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour", "id": person.ID})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var got registry.Person
	parseJSONResponse(t, rec, &got)
	if got.ID != person.ID || got.Email != "joao@example.com" {
		t.Errorf("unexpected person: %+v", got)
	}
}

func TestPersonsGet_NotFound(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/carrefour/persons/ghost", nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour", "id": "ghost"})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
	assertJSONError(t, rec, "person not found")
}

func TestPersonsUpdate_Partial(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)
	person := createPerson(t, m, "carrefour")

	body := strings.NewReader(`{"email": "new@example.com"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/carrefour/persons/"+person.ID, body)
	req.Header.Set("Content-Type", "application/json")
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour", "id": person.ID})
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var got registry.Person
	parseJSONResponse(t, rec, &got)
	if got.Email != "new@example.com" {
		t.Errorf("expected updated email, got '%s'", got.Email)
	}
	if got.Name != "João Silva" {
		t.Errorf("absent fields must stay untouched, got '%s'", got.Name)
	}
}

func TestPersonsDelete(t *testing.T) {
	m, eng := newTestManager(t)
	h := NewPersonsHandler(m)
	person := createPerson(t, m, "carrefour")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/carrefour/persons/"+person.ID, nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour", "id": person.ID})
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	if len(eng.deleted) != 1 {
		t.Errorf("expected one engine delete, got %v", eng.deleted)
	}

	if _, err := m.Get("carrefour", person.ID); err == nil {
		t.Error("expected person to be gone from the roster")
	}
}

func TestPersonsFace_ServesImage(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)
	person := createPerson(t, m, "carrefour")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/carrefour/faces/"+person.Image, nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour", "filename": person.Image})
	rec := httptest.NewRecorder()

	h.Face(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	if !bytes.Equal(rec.Body.Bytes(), testPNG(t)) {
		t.Error("expected stored image bytes")
	}
}

func TestPersonsFace_RejectsTraversal(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewPersonsHandler(m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/carrefour/faces/x", nil)
	req = requestWithChiParams(req, map[string]string{"tenant": "carrefour", "filename": "../../secret"})
	rec := httptest.NewRecorder()

	h.Face(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}
