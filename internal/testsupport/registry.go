package testsupport

import (
	"testing"

	"warden/internal/config"
	"warden/internal/logging"
	"warden/internal/registry"
)

// MustOpenRegistry opens a registry.Store for tests.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	return store
}
