package registry

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

// imageExtensions maps decoded image formats to the stored file extension.
var imageExtensions = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

// sniffImageFormat validates that data is a supported face image and returns
// the file extension to store it under.
func sniffImageFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", &ValidationError{Field: "image", Reason: "not a decodable image"}
	}
	ext, ok := imageExtensions[format]
	if !ok {
		return "", &ValidationError{Field: "image", Reason: fmt.Sprintf("unsupported format %s (use jpg, png, gif or webp)", format)}
	}
	return ext, nil
}

// ImageStore keeps one face image per person under
// <dir>/<tenant>/faces/<personID>.<ext>.
type ImageStore struct {
	dir string
}

// NewImageStore creates an image store rooted at dir.
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

// Save writes a person's face image and returns the stored file name.
func (s *ImageStore) Save(tenantID, personID string, data []byte, ext string) (string, error) {
	facesDir := filepath.Join(s.dir, tenantID, "faces")
	if err := os.MkdirAll(facesDir, 0750); err != nil {
		return "", fmt.Errorf("could not create faces directory: %w", err)
	}

	filename := personID + "." + ext
	if err := os.WriteFile(filepath.Join(facesDir, filename), data, 0600); err != nil {
		return "", fmt.Errorf("could not write image: %w", err)
	}
	return filename, nil
}

// Remove deletes a person's stored image. A missing file is not an error.
func (s *ImageStore) Remove(tenantID, filename string) error {
	path, err := s.Path(tenantID, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove image: %w", err)
	}
	return nil
}

// Path returns the on-disk location of a stored image. The file name must be
// a bare name; anything resembling a path traversal is rejected.
func (s *ImageStore) Path(tenantID, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", &ValidationError{Field: "image", Reason: "invalid file name"}
	}
	return filepath.Join(s.dir, tenantID, "faces", filename), nil
}
