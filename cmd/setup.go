package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/engine"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/store"
	"github.com/kozaktomas/face-registry/internal/store/postgres"
	"github.com/kozaktomas/face-registry/internal/tenant"
)

// buildCatalog loads the tenant catalog, preferring a TENANTS_FILE override
// over the embedded one.
func buildCatalog(cfg *config.Config) (*tenant.Catalog, error) {
	if cfg.Storage.TenantsFile != "" {
		return tenant.LoadFile(cfg.Storage.TenantsFile)
	}
	return tenant.Load(), nil
}

// buildBackend selects the roster backend. DATABASE_URL switches rosters to
// PostgreSQL; face images stay on disk either way.
func buildBackend(cfg *config.Config) (store.Backend, error) {
	if cfg.Storage.DatabaseURL != "" {
		fmt.Println("Using PostgreSQL roster backend")
		return postgres.New(cfg.Storage.DatabaseURL)
	}
	return store.NewFileBackend(cfg.Storage.DataDir), nil
}

// buildManager wires the full lifecycle manager from the environment config.
func buildManager(cfg *config.Config) (*registry.Manager, engine.Engine, error) {
	if cfg.CompreFace.URL == "" {
		return nil, nil, errors.New("COMPREFACE_URL environment variable is required")
	}
	if cfg.CompreFace.APIKey == "" {
		return nil, nil, errors.New("COMPREFACE_API_KEY environment variable is required")
	}

	eng, err := engine.NewCompreFace(cfg.CompreFace.URL, cfg.CompreFace.APIKey, cfg.CompreFace.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create CompreFace client: %w", err)
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("could not initialize roster backend: %w", err)
	}

	manager := registry.NewManager(
		catalog,
		store.New(backend),
		registry.NewImageStore(cfg.Storage.DataDir),
		eng,
	)
	return manager, eng, nil
}
