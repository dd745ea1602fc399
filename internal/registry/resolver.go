package registry

import (
	"fmt"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/store"
	"github.com/kozaktomas/face-registry/internal/subject"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

// Resolution maps an engine match back to a tenant-local person record.
type Resolution struct {
	Tenant     tenant.Tenant
	PersonID   string
	Person     store.Person
	Similarity float64
}

// Resolve turns one engine match into a person record. The optional cache is
// a pre-loaded roster for cacheTenantID; it avoids a store read per
// candidate when resolving many matches against the same tenant, and is
// ignored when the match decomposes to a different tenant.
//
// A subject id outside the catalog namespace yields ErrUnresolvableSubject;
// a subject the roster no longer knows yields ErrStaleSubject.
func (m *Manager) Resolve(match engine.Match, cacheTenantID string, cache store.Document) (*Resolution, error) {
	tenantID, personID, err := subject.Decompose(m.catalog, match.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvableSubject, err)
	}

	doc := cache
	if doc == nil || tenantID != cacheTenantID {
		doc, err = m.store.Load(tenantID)
		if err != nil {
			return nil, err
		}
	}

	p, ok := doc[personID]
	if !ok {
		return nil, fmt.Errorf("%w: engine knows %s but tenant %s has no such person", ErrStaleSubject, match.SubjectID, tenantID)
	}

	t, _ := m.catalog.Get(tenantID)
	return &Resolution{
		Tenant:     t,
		PersonID:   personID,
		Person:     p,
		Similarity: match.Similarity,
	}, nil
}
