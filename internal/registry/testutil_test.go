package registry

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/store"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

// fakeEngine is an in-memory Engine that records calls and fails on demand.
type fakeEngine struct {
	mu          sync.Mutex
	registerErr error
	deleteErr   error

	registered []string
	deleted    []string
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
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, subjectID)
	return nil
}

func (f *fakeEngine) Recognize(ctx context.Context, image []byte) ([]engine.FaceResult, error) {
	return nil, nil
}

func (f *fakeEngine) registerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registered)
}

// failingBackend wraps a backend and fails writes on demand.
type failingBackend struct {
	store.Backend
	failWrites bool
}

type errWriteRefused struct{}

func (errWriteRefused) Error() string { return "write refused" }

func (b *failingBackend) WriteDocument(tenantID string, doc store.Document) error {
	if b.failWrites {
		return errWriteRefused{}
	}
	return b.Backend.WriteDocument(tenantID, doc)
}

// testPNG returns a tiny valid PNG image.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// newTestManager builds a Manager over a temp dir file store and a fake engine.
func newTestManager(t *testing.T) (*Manager, *fakeEngine, string) {
	t.Helper()
	dir := t.TempDir()
	eng := &fakeEngine{}
	m := NewManager(
		tenant.Load(),
		store.New(store.NewFileBackend(dir)),
		NewImageStore(dir),
		eng,
	)
	return m, eng, dir
}

func testProfile() Profile {
	return Profile{
		Name:  "João Silva",
		Email: "joao.silva@example.com",
		Phone: "+55 11 99999-1111",
	}
}
