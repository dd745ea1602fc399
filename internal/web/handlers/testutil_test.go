package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/store"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

// fakeEngine is an in-memory recognition engine for handler tests.
type fakeEngine struct {
	mu          sync.Mutex
	registerErr error
	recognize   []engine.FaceResult
	registered  []string
	deleted     []string
}

func (f *fakeEngine) Register(ctx context.Context, image []byte, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, subjectID)
	return nil
}

func (f *fakeEngine) Delete(ctx context.Context, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, subjectID)
	return nil
}

func (f *fakeEngine) Recognize(ctx context.Context, image []byte) ([]engine.FaceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recognize, nil
}

// newTestManager builds a manager over a temp directory and a fake engine.
func newTestManager(t *testing.T) (*registry.Manager, *fakeEngine) {
	t.Helper()
	dir := t.TempDir()
	eng := &fakeEngine{}
	m := registry.NewManager(
		tenant.Load(),
		store.New(store.NewFileBackend(dir)),
		registry.NewImageStore(dir),
		eng,
	)
	return m, eng
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartRequest builds a multipart POST with form fields and an optional
// image under the "file" key.
func multipartRequest(t *testing.T, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", key, err)
		}
	}
	if image != nil {
		part, err := writer.CreateFormFile("file", "face.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// createPerson registers a person through the manager for test setup.
func createPerson(t *testing.T, m *registry.Manager, tenantID string) *registry.Person {
	t.Helper()
	person, err := m.Create(context.Background(), tenantID, registry.Profile{
		Name:  "João Silva",
		Email: "joao@example.com",
		Phone: "+55 11 99999-1111",
	}, testPNG(t))
	if err != nil {
		t.Fatalf("failed to create test person: %v", err)
	}
	return person
}
