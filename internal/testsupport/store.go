package testsupport

import (
	"context"
	"testing"

	"vetter/internal/config"
	"vetter/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// Enqueue creates a pending check-queue entry for tests.
func Enqueue(t testing.TB, st *store.Store, subjectID int64, title string) *store.Entry {
	t.Helper()

	entry, err := st.Enqueue(context.Background(), subjectID, title, 1, "https://t.me/+test-invite")
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return entry
}
