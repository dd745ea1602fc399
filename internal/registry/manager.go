// Package registry orchestrates the person lifecycle across two stores that
// fail independently: the local per-tenant roster and the external
// recognition engine index. The two are never updated transactionally;
// instead the Manager enforces an ordering policy. On create, the engine
// registration must succeed before the roster is written. On delete, the
// roster wins: the engine entry is removed best-effort only. Divergence
// after partial failures is logged and accepted, never repaired silently.
package registry

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/store"
	"github.com/kozaktomas/face-registry/internal/subject"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

// Profile carries the caller-supplied person fields.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ProfileUpdate is a partial profile; nil fields are left untouched.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Person is a roster record together with its id.
type Person struct {
	ID string `json:"id"`
	store.Person
}

// Manager is the only writer of the metadata store and the only caller of
// the engine's register/delete operations.
type Manager struct {
	catalog *tenant.Catalog
	store   *store.Store
	images  *ImageStore
	engine  engine.Engine
}

// NewManager wires the lifecycle manager.
func NewManager(catalog *tenant.Catalog, st *store.Store, images *ImageStore, eng engine.Engine) *Manager {
	return &Manager{
		catalog: catalog,
		store:   st,
		images:  images,
		engine:  eng,
	}
}

// Catalog returns the tenant catalog the manager validates against.
func (m *Manager) Catalog() *tenant.Catalog {
	return m.catalog
}

// ImagePath returns the stored image location for serving.
func (m *Manager) ImagePath(tenantID, filename string) (string, error) {
	if !m.catalog.IsValid(tenantID) {
		return "", tenant.ErrUnknownTenant
	}
	return m.images.Path(tenantID, filename)
}

func validateProfile(p Profile) error {
	fields := map[string]string{
		"name":  p.Name,
		"email": p.Email,
		"phone": p.Phone,
	}
	// Report a stable field order.
	for _, field := range []string{"name", "email", "phone"} {
		if strings.TrimSpace(fields[field]) == "" {
			return &ValidationError{Field: field, Reason: "must not be empty"}
		}
	}
	return nil
}

// Create registers a new person. The engine registration must succeed before
// the roster document is touched; an engine failure leaves the roster
// unchanged and removes the already-written image best-effort. A roster
// write failure after a successful registration leaves an orphaned engine
// entry, which is logged and not compensated.
func (m *Manager) Create(ctx context.Context, tenantID string, profile Profile, image []byte) (*Person, error) {
	if !m.catalog.IsValid(tenantID) {
		return nil, tenant.ErrUnknownTenant
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	ext, err := sniffImageFormat(image)
	if err != nil {
		return nil, err
	}

	personID := uuid.NewString()
	subjectID := subject.Compose(tenantID, personID)

	var created Person
	err = m.store.Mutate(tenantID, func(doc store.Document) error {
		filename, err := m.images.Save(tenantID, personID, image, ext)
		if err != nil {
			return err
		}

		if err := m.engine.Register(ctx, image, subjectID); err != nil {
			if rmErr := m.images.Remove(tenantID, filename); rmErr != nil {
				log.Printf("warning: could not remove image after failed registration of %s: %v", subjectID, rmErr)
			}
			return err
		}

		created = Person{
			ID: personID,
			Person: store.Person{
				Name:  profile.Name,
				Email: profile.Email,
				Phone: profile.Phone,
				Image: filename,
			},
		}
		doc[personID] = created.Person
		return nil
	})
	if err != nil {
		var ioErr *store.IOError
		if errors.As(err, &ioErr) && ioErr.Op == "write" {
			// The engine now knows a subject the roster does not.
			log.Printf("warning: roster write failed after engine registration, orphaned engine entry %s: %v", subjectID, err)
		}
		return nil, err
	}

	return &created, nil
}

// Update applies a partial profile change. The engine is not involved:
// contact edits never require biometric re-registration.
func (m *Manager) Update(ctx context.Context, tenantID, personID string, update ProfileUpdate) (*Person, error) {
	if !m.catalog.IsValid(tenantID) {
		return nil, tenant.ErrUnknownTenant
	}

	var updated Person
	err := m.store.Mutate(tenantID, func(doc store.Document) error {
		p, ok := doc[personID]
		if !ok {
			return ErrPersonNotFound
		}
		if update.Name != nil {
			p.Name = *update.Name
		}
		if update.Email != nil {
			p.Email = *update.Email
		}
		if update.Phone != nil {
			p.Phone = *update.Phone
		}
		doc[personID] = p
		updated = Person{ID: personID, Person: p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a person from the roster. An engine delete failure is
// logged and swallowed: a dangling engine entry is a lesser harm than a
// person the tenant cannot remove from its own roster.
func (m *Manager) Delete(ctx context.Context, tenantID, personID string) (*Person, error) {
	if !m.catalog.IsValid(tenantID) {
		return nil, tenant.ErrUnknownTenant
	}

	subjectID := subject.Compose(tenantID, personID)

	var removed Person
	err := m.store.Mutate(tenantID, func(doc store.Document) error {
		p, ok := doc[personID]
		if !ok {
			return ErrPersonNotFound
		}

		if err := m.engine.Delete(ctx, subjectID); err != nil {
			log.Printf("warning: could not delete engine entry %s, index may be stale: %v", subjectID, err)
		}

		if p.Image != "" {
			if err := m.images.Remove(tenantID, p.Image); err != nil {
				log.Printf("warning: could not remove image for %s: %v", subjectID, err)
			}
		}

		delete(doc, personID)
		removed = Person{ID: personID, Person: p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

// Get returns a single person from the tenant's roster.
func (m *Manager) Get(tenantID, personID string) (*Person, error) {
	if !m.catalog.IsValid(tenantID) {
		return nil, tenant.ErrUnknownTenant
	}

	doc, err := m.store.Load(tenantID)
	if err != nil {
		return nil, err
	}
	p, ok := doc[personID]
	if !ok {
		return nil, ErrPersonNotFound
	}
	return &Person{ID: personID, Person: p}, nil
}

// List returns the tenant's full roster.
func (m *Manager) List(tenantID string) (store.Document, error) {
	if !m.catalog.IsValid(tenantID) {
		return nil, tenant.ErrUnknownTenant
	}
	return m.store.Load(tenantID)
}
