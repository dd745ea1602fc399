package tenant

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tenants.yaml
var tenantsYAML []byte

// ErrUnknownTenant is returned when a tenant id is not present in the catalog.
var ErrUnknownTenant = errors.New("unknown tenant")

// Tenant is one organization sharing the registry. Tenants are fixed at
// startup and never created or destroyed at runtime.
type Tenant struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Catalog holds the closed set of valid tenants. It is read-only after Load
// and safe for concurrent use.
type Catalog struct {
	tenants []Tenant
	byID    map[string]Tenant
}

type catalogFile struct {
	Tenants []Tenant `yaml:"tenants"`
}

// Load returns the catalog compiled into the binary.
func Load() *Catalog {
	cat, err := parse(tenantsYAML)
	if err != nil {
		// The embedded file is validated at build time, so this should never happen.
		panic("failed to parse embedded tenants.yaml: " + err.Error())
	}
	return cat
}

// LoadFile reads a tenant catalog from a YAML file, replacing the embedded one.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read tenant catalog: %w", err)
	}
	cat, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse tenant catalog %s: %w", path, err)
	}
	return cat, nil
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Tenants) == 0 {
		return nil, errors.New("catalog contains no tenants")
	}

	byID := make(map[string]Tenant, len(file.Tenants))
	for _, t := range file.Tenants {
		if t.ID == "" {
			return nil, errors.New("catalog entry with empty id")
		}
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tenant id %q", t.ID)
		}
		byID[t.ID] = t
	}

	return &Catalog{tenants: file.Tenants, byID: byID}, nil
}

// IsValid reports whether id belongs to the catalog.
func (c *Catalog) IsValid(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Get returns the tenant for id.
func (c *Catalog) Get(id string) (Tenant, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// List returns all tenants in declaration order.
func (c *Catalog) List() []Tenant {
	out := make([]Tenant, len(c.tenants))
	copy(out, c.tenants)
	return out
}
