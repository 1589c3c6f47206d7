package testsupport

import (
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/store"
)

// MustOpenStore opens the workspace database for cfg and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
