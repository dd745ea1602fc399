// Package engine defines the gateway to the external face recognition
// service. The registry never interprets biometric results itself; it only
// registers, deletes and recognizes subjects through this interface.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Reason classifies a recognition engine failure.
type Reason string

const (
	// NoFaceDetected means the engine found no face in the image.
	NoFaceDetected Reason = "no_face_detected"
	// MultipleFacesDetected means the image contains more than one face.
	MultipleFacesDetected Reason = "multiple_faces_detected"
	// InvalidImage means the engine rejected the image data itself.
	InvalidImage Reason = "invalid_image"
	// NotFound means the subject does not exist in the engine index.
	NotFound Reason = "not_found"
	// Unavailable covers timeouts, transport failures and engine-side errors.
	Unavailable Reason = "unavailable"
)

// Error is a classified engine failure. Message keeps the engine's own
// wording so callers can surface an actionable description.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("engine error: %s", e.Reason)
	}
	return fmt.Sprintf("engine error (%s): %s", e.Reason, e.Message)
}

// ReasonOf extracts the classification from an error chain. Returns
// Unavailable for errors that are not engine errors at all.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return Unavailable
}

// Match is one recognition candidate. Similarity is in [0, 1].
type Match struct {
	SubjectID  string
	Similarity float64
}

// FaceResult holds the candidates for a single detected face, best first.
type FaceResult struct {
	Matches []Match
}

// Engine is the recognition service gateway. Implementations must bound
// every call with a timeout; a stalled engine must not block callers forever.
type Engine interface {
	// Register adds a face image under the given subject id.
	Register(ctx context.Context, image []byte, subjectID string) error
	// Delete removes all faces registered under the subject id.
	Delete(ctx context.Context, subjectID string) error
	// Recognize returns one FaceResult per detected face. An empty slice
	// means no face was found or nothing matched above the engine's
	// internal threshold.
	Recognize(ctx context.Context, image []byte) ([]FaceResult, error)
}
