package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the expected manifest file name inside a batch directory.
const ManifestName = "upload_config.json"

// Manifest describes one batch: the target tenant, the folder holding the
// images, and the persons to register.
type Manifest struct {
	Client       string `json:"client"`
	UploadFolder string `json:"upload_folder"`
	Persons      []Item `json:"persons"`
}

// LoadManifest reads and validates a batch manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("could not parse manifest %s: %w", path, err)
	}

	if m.Client == "" {
		return nil, fmt.Errorf("manifest %s has no client", path)
	}
	if len(m.Persons) == 0 {
		return nil, fmt.Errorf("manifest %s has no persons", path)
	}
	return &m, nil
}

// ImageDir resolves the folder the manifest's image files are relative to.
// A relative upload_folder is resolved against the manifest's own directory.
func (m *Manifest) ImageDir(manifestPath string) string {
	dir := m.UploadFolder
	if dir == "" {
		return filepath.Dir(manifestPath)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(manifestPath), dir)
	}
	return dir
}

// WriteExampleManifest writes a starter manifest for the given tenant.
func WriteExampleManifest(path, tenantID string) error {
	example := Manifest{
		Client:       tenantID,
		UploadFolder: "photos",
		Persons: []Item{
			{ImageFile: "joao.jpg", Name: "João Silva", Email: "joao@example.com", Phone: "+55 11 99999-1111"},
			{ImageFile: "maria.png", Name: "Maria Santos", Email: "maria@example.com", Phone: "+55 11 99999-2222"},
		},
	}

	data, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal example manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("could not write example manifest: %w", err)
	}
	return nil
}
