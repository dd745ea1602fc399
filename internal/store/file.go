package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps each tenant's document at <dir>/<tenant>/metadata.json.
// Documents are written to a temp file and renamed into place, so readers
// never observe a partially written file.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// DocumentPath returns the metadata file path for a tenant.
func (b *FileBackend) DocumentPath(tenantID string) string {
	return filepath.Join(b.dir, tenantID, "metadata.json")
}

// ReadDocument loads a tenant's document. A tenant that has never been
// written yields an empty document, not an error.
func (b *FileBackend) ReadDocument(tenantID string) (Document, error) {
	data, err := os.ReadFile(b.DocumentPath(tenantID))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("could not read metadata: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse metadata: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// WriteDocument replaces a tenant's document atomically.
func (b *FileBackend) WriteDocument(tenantID string, doc Document) error {
	dir := filepath.Join(b.dir, tenantID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create tenant directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "metadata-*.json")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("could not write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not close temp file: %w", err)
	}

	if err := os.Rename(tmpName, b.DocumentPath(tenantID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not replace metadata: %w", err)
	}
	return nil
}
