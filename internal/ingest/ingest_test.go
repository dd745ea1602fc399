package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/store"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

// scriptedEngine fails registration for configured subject image sizes and
// records all calls.
type scriptedEngine struct {
	mu          sync.Mutex
	registerErr map[int]error // keyed by call number (1-based)
	calls       int
}

func (f *scriptedEngine) Register(ctx context.Context, image []byte, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.registerErr[f.calls]; ok {
		return err
	}
	return nil
}

func (f *scriptedEngine) Delete(ctx context.Context, subjectID string) error { return nil }

func (f *scriptedEngine) Recognize(ctx context.Context, image []byte) ([]engine.FaceResult, error) {
	return nil, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func setupPipeline(t *testing.T, eng engine.Engine) (*Pipeline, *registry.Manager, string) {
	t.Helper()
	dataDir := t.TempDir()
	m := registry.NewManager(
		tenant.Load(),
		store.New(store.NewFileBackend(dataDir)),
		registry.NewImageStore(dataDir),
		eng,
	)
	return New(m), m, t.TempDir()
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	img := testPNG(t)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), img, 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ImageFile: fmt.Sprintf("person%d.png", i+1),
			Name:      fmt.Sprintf("Person %d", i+1),
			Email:     fmt.Sprintf("person%d@example.com", i+1),
			Phone:     "+55 11 99999-0000",
		}
	}
	return items
}

func TestPipeline_AllSucceed(t *testing.T) {
	p, m, dir := setupPipeline(t, &scriptedEngine{})
	writeImages(t, dir, "person1.png", "person2.png", "person3.png")

	report, err := p.Run(context.Background(), "carrefour", dir, makeItems(3))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Total != 3 || report.Succeeded != 3 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}

	doc, err := m.List("carrefour")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(doc) != 3 {
		t.Errorf("expected 3 roster entries, got %d", len(doc))
	}

	for _, r := range report.Results {
		if r.PersonID == "" {
			t.Errorf("successful item missing person id: %+v", r)
		}
	}
}

func TestPipeline_MissingImageDoesNotStopBatch(t *testing.T) {
	p, _, dir := setupPipeline(t, &scriptedEngine{})
	// Item 3's image is deliberately absent.
	writeImages(t, dir, "person1.png", "person2.png", "person4.png", "person5.png")

	report, err := p.Run(context.Background(), "carrefour", dir, makeItems(5))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Total != 5 || report.Succeeded != 4 || report.Failed != 1 {
		t.Errorf("expected total=5 succeeded=4 failed=1, got %+v", report)
	}
	if report.Results[2].Outcome != ImageNotFound {
		t.Errorf("expected item 3 to be ImageNotFound, got %s", report.Results[2].Outcome)
	}
	// Items 4 and 5 must still have been attempted.
	if report.Results[3].Outcome != Success || report.Results[4].Outcome != Success {
		t.Errorf("items after a failure must still run: %+v", report.Results)
	}
}

func TestPipeline_OutcomeClassification(t *testing.T) {
	eng := &scriptedEngine{registerErr: map[int]error{
		// The second engine call rejects the image.
		2: &engine.Error{Reason: engine.MultipleFacesDetected, Message: "Found more than one face"},
	}}
	p, _, dir := setupPipeline(t, eng)
	writeImages(t, dir, "ok.png", "twofaces.png")

	items := []Item{
		{ImageFile: "ok.png", Name: "Fine", Email: "fine@x.com", Phone: "1"},
		{ImageFile: "twofaces.png", Name: "Crowd", Email: "crowd@x.com", Phone: "2"},
		{ImageFile: "ok.png", Name: "", Email: "anon@x.com", Phone: "3"}, // missing name
		{ImageFile: "", Name: "No Image", Email: "no@x.com", Phone: "4"},
	}

	report, err := p.Run(context.Background(), "carrefour", dir, items)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expected := []Outcome{Success, EngineRejected, MissingFields, MissingFields}
	for i, want := range expected {
		if report.Results[i].Outcome != want {
			t.Errorf("item %d: expected %s, got %s (%s)", i+1, want, report.Results[i].Outcome, report.Results[i].Detail)
		}
	}
	if report.Results[1].EngineReason != engine.MultipleFacesDetected {
		t.Errorf("expected engine reason to be preserved, got %s", report.Results[1].EngineReason)
	}
	if report.Succeeded != 1 || report.Failed != 3 {
		t.Errorf("unexpected counts: %+v", report)
	}
}

func TestPipeline_UnknownTenant(t *testing.T) {
	p, _, dir := setupPipeline(t, &scriptedEngine{})

	if _, err := p.Run(context.Background(), "walmart", dir, makeItems(1)); err == nil {
		t.Fatal("expected error for unknown tenant")
	}
}

func TestPipeline_ProgressCallback(t *testing.T) {
	p, _, dir := setupPipeline(t, &scriptedEngine{})
	writeImages(t, dir, "person1.png", "person2.png")

	var seen []int
	p.OnProgress = func(done, total int, result ItemResult) {
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
		seen = append(seen, done)
	}

	if _, err := p.Run(context.Background(), "carrefour", dir, makeItems(2)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("expected progress [1 2], got %v", seen)
	}
}
