// Package ingest drives the lifecycle manager over a batch of image/profile
// pairs. Items are independent: one failure never stops the batch and there
// is no rollback across items.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/store"
)

// Item is one batch entry: an image file (relative to the batch directory)
// plus the person's profile.
type Item struct {
	ImageFile string `json:"image_file"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Outcome classifies what happened to a single item.
type Outcome string

const (
	Success        Outcome = "success"
	MissingFields  Outcome = "missing_fields"
	ImageNotFound  Outcome = "image_not_found"
	EngineRejected Outcome = "engine_rejected"
	StoreFailure   Outcome = "store_failure"
)

// ItemResult is the outcome of one item.
type ItemResult struct {
	Item         Item
	Outcome      Outcome
	EngineReason engine.Reason // set when Outcome is EngineRejected
	PersonID     string        // set when Outcome is Success
	Detail       string
}

// Report aggregates a whole batch run.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []ItemResult
}

// Pipeline runs batches against a lifecycle manager.
type Pipeline struct {
	manager *registry.Manager

	// OnProgress, when set, is called after every processed item.
	OnProgress func(done, total int, result ItemResult)
}

// New creates a pipeline over the given manager.
func New(manager *registry.Manager) *Pipeline {
	return &Pipeline{manager: manager}
}

// Run processes all items sequentially, reading images from dir. Every item
// gets a classified result; the batch itself only fails on a bad tenant.
func (p *Pipeline) Run(ctx context.Context, tenantID, dir string, items []Item) (*Report, error) {
	if !p.manager.Catalog().IsValid(tenantID) {
		return nil, fmt.Errorf("cannot ingest into unknown tenant %q", tenantID)
	}

	report := &Report{
		Total:   len(items),
		Results: make([]ItemResult, 0, len(items)),
	}

	for _, item := range items {
		result := p.runItem(ctx, tenantID, dir, item)
		report.Results = append(report.Results, result)
		if result.Outcome == Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
		if p.OnProgress != nil {
			p.OnProgress(len(report.Results), report.Total, result)
		}
	}

	return report, nil
}

func (p *Pipeline) runItem(ctx context.Context, tenantID, dir string, item Item) ItemResult {
	result := ItemResult{Item: item}

	if strings.TrimSpace(item.ImageFile) == "" {
		result.Outcome = MissingFields
		result.Detail = "image_file is required"
		return result
	}

	imagePath := filepath.Join(dir, item.ImageFile)
	data, err := os.ReadFile(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			result.Outcome = ImageNotFound
			result.Detail = fmt.Sprintf("image %s not found", item.ImageFile)
		} else {
			result.Outcome = ImageNotFound
			result.Detail = fmt.Sprintf("could not read image %s: %v", item.ImageFile, err)
		}
		return result
	}

	profile := registry.Profile{Name: item.Name, Email: item.Email, Phone: item.Phone}
	person, err := p.manager.Create(ctx, tenantID, profile, data)
	if err != nil {
		return classifyCreateError(result, err)
	}

	result.Outcome = Success
	result.PersonID = person.ID
	return result
}

// classifyCreateError maps a lifecycle Create failure onto an item outcome.
func classifyCreateError(result ItemResult, err error) ItemResult {
	var vErr *registry.ValidationError
	var engErr *engine.Error
	var ioErr *store.IOError

	switch {
	case errors.As(err, &vErr):
		result.Outcome = MissingFields
		result.Detail = vErr.Error()
	case errors.As(err, &engErr):
		result.Outcome = EngineRejected
		result.EngineReason = engErr.Reason
		result.Detail = engErr.Message
	case errors.As(err, &ioErr):
		result.Outcome = StoreFailure
		result.Detail = ioErr.Error()
	default:
		result.Outcome = StoreFailure
		result.Detail = err.Error()
	}
	return result
}
