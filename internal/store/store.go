// Package store persists per-tenant person rosters. Each tenant owns a
// single document mapping person ids to records; every mutation replaces the
// whole document, so access per tenant is serialized through the Store.
package store

import (
	"fmt"
	"sync"
)

// Person is one roster record. JSON field names match the on-disk
// metadata.json layout.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Image string `json:"image"` // face image file name, relative to the tenant's faces dir
}

// Document is a tenant's full person mapping, keyed by person id.
type Document map[string]Person

// Backend reads and writes whole tenant documents. Implementations must make
// WriteDocument atomic from a reader's point of view: a concurrent
// ReadDocument sees either the old or the new document, never a torn one.
type Backend interface {
	// ReadDocument returns the tenant's document, or an empty one for a
	// tenant that has never been written.
	ReadDocument(tenantID string) (Document, error)
	// WriteDocument replaces the tenant's document.
	WriteDocument(tenantID string, doc Document) error
}

// IOError wraps a backend failure. Callers must treat a failed write as
// "mutation did not happen".
type IOError struct {
	TenantID string
	Op       string // "read" or "write"
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store %s failed for tenant %s: %v", e.Op, e.TenantID, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store serializes document access per tenant. Mutations on the same tenant
// run one at a time; reads run concurrently with each other. Different
// tenants never block each other.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// New creates a Store on top of a backend.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		locks:   make(map[string]*sync.RWMutex),
	}
}

// tenantLock returns the lock guarding a tenant's document, creating it on
// first use.
func (s *Store) tenantLock(tenantID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[tenantID]
	if !ok {
		lock = &sync.RWMutex{}
		s.locks[tenantID] = lock
	}
	return lock
}

// Load returns a copy of the tenant's document. Safe to call concurrently
// with mutations on the same tenant.
func (s *Store) Load(tenantID string) (Document, error) {
	lock := s.tenantLock(tenantID)
	lock.RLock()
	defer lock.RUnlock()

	doc, err := s.backend.ReadDocument(tenantID)
	if err != nil {
		return nil, &IOError{TenantID: tenantID, Op: "read", Err: err}
	}
	return copyDocument(doc), nil
}

// Mutate runs fn under the tenant's exclusive lock with the current document
// and writes the document back afterwards. If fn returns an error, nothing
// is written and the error is returned unchanged. The lock is held for the
// whole load-mutate-save sequence, including any slow work fn does, so
// concurrent mutators of the same tenant cannot lose updates.
func (s *Store) Mutate(tenantID string, fn func(doc Document) error) error {
	lock := s.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.backend.ReadDocument(tenantID)
	if err != nil {
		return &IOError{TenantID: tenantID, Op: "read", Err: err}
	}
	if doc == nil {
		doc = Document{}
	}

	if err := fn(doc); err != nil {
		return err
	}

	if err := s.backend.WriteDocument(tenantID, doc); err != nil {
		return &IOError{TenantID: tenantID, Op: "write", Err: err}
	}
	return nil
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for id, p := range doc {
		out[id] = p
	}
	return out
}
