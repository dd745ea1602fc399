package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CompreFace is an Engine backed by the CompreFace recognition API.
type CompreFace struct {
	parsedURL  *url.URL
	apiKey     string
	httpClient *http.Client
}

// comprefaceError is the error payload CompreFace returns for rejected requests.
type comprefaceError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// recognizeResponse mirrors the CompreFace /recognize response shape.
type recognizeResponse struct {
	Result []struct {
		Subjects []struct {
			Subject    string  `json:"subject"`
			Similarity float64 `json:"similarity"`
		} `json:"subjects"`
	} `json:"result"`
}

// NewCompreFace creates a CompreFace client. The timeout bounds every call so
// a stalled engine cannot hold a tenant's write lock indefinitely.
func NewCompreFace(rawURL, apiKey string, timeout time.Duration) (*CompreFace, error) {
	parsed, err := url.Parse(rawURL + "/api/v1/recognition")
	if err != nil {
		return nil, fmt.Errorf("invalid CompreFace URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CompreFace{
		parsedURL:  parsed,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// resolveURL builds a full URL from the base API URL, a path segment and
// optional query values.
func (c *CompreFace) resolveURL(segment string, query url.Values) string {
	result := c.parsedURL.JoinPath(segment)
	if len(query) > 0 {
		result.RawQuery = query.Encode()
	}
	return result.String()
}

// Register uploads a face image for the given subject id.
func (c *CompreFace) Register(ctx context.Context, image []byte, subjectID string) error {
	endpoint := c.resolveURL("faces", url.Values{"subject": {subjectID}})

	body, contentType, err := imageForm(image)
	if err != nil {
		return &Error{Reason: InvalidImage, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Reason: Unavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return classifyStatus(resp)
	}
	return nil
}

// Delete removes every face registered under the subject id.
func (c *CompreFace) Delete(ctx context.Context, subjectID string) error {
	endpoint := c.resolveURL("faces", url.Values{"subject": {subjectID}})

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Reason: Unavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}
	return nil
}

// Recognize submits an image and returns the ranked candidates per face.
func (c *CompreFace) Recognize(ctx context.Context, image []byte) ([]FaceResult, error) {
	endpoint := c.resolveURL("recognize", nil)

	body, contentType, err := imageForm(image)
	if err != nil {
		return nil, &Error{Reason: InvalidImage, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Reason: Unavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		engineErr := classifyStatus(resp)
		// "No face found" on recognize means an empty result, not a failure.
		if ReasonOf(engineErr) == NoFaceDetected {
			return nil, nil
		}
		return nil, engineErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result recognizeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	faces := make([]FaceResult, 0, len(result.Result))
	for _, face := range result.Result {
		fr := FaceResult{Matches: make([]Match, 0, len(face.Subjects))}
		for _, s := range face.Subjects {
			fr.Matches = append(fr.Matches, Match{SubjectID: s.Subject, Similarity: s.Similarity})
		}
		faces = append(faces, fr)
	}
	return faces, nil
}

// imageForm wraps image bytes in the multipart body CompreFace expects.
func imageForm(image []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "face.jpg")
	if err != nil {
		return nil, "", fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("could not write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close form writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// classifyStatus maps a non-2xx CompreFace response to a classified error.
func classifyStatus(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		raw = nil
	}

	message := string(raw)
	var payload comprefaceError
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		message = payload.Message
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "no face"):
		return &Error{Reason: NoFaceDetected, Message: message}
	case strings.Contains(lower, "more than one face"), strings.Contains(lower, "multiple faces"):
		return &Error{Reason: MultipleFacesDetected, Message: message}
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Reason: NotFound, Message: message}
	case resp.StatusCode >= 500:
		return &Error{Reason: Unavailable, Message: message}
	case resp.StatusCode == http.StatusBadRequest:
		return &Error{Reason: InvalidImage, Message: message}
	default:
		return &Error{Reason: Unavailable, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, message)}
	}
}
