package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestInitCreatesDatabase verifies Init creates the file and schema.
func TestInitCreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file not created")
	}
}

// TestInitIdempotent verifies repeated Init calls are safe.
func TestInitIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Errorf("second Init failed: %v", err)
	}
}

// TestUsageRoundTrip verifies counts, timestamps, and variations
// reconstitute exactly after a reload.
func TestUsageRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	ts := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	events := []UsageEvent{
		{CommandID: "ai.fix", Phrase: "fix this error", Timestamp: ts},
		{CommandID: "ai.fix", Phrase: "fix this error", Timestamp: ts.Add(time.Minute)},
		{CommandID: "ai.fix", Phrase: "fix the crash", Timestamp: ts.Add(2 * time.Minute)},
		{CommandID: "scene.save", Phrase: "save the level", Timestamp: ts},
	}
	for _, e := range events {
		if err := store.RecordUsage(e); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen from disk.
	reopened := NewStore(dbPath)
	if err := reopened.Init(); err != nil {
		t.Fatalf("reopen Init failed: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.LoadUsage()
	if err != nil {
		t.Fatalf("LoadUsage failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d usage records, want 2", len(records))
	}

	byID := make(map[string]Usage)
	for _, u := range records {
		byID[u.CommandID] = u
	}

	fix := byID["ai.fix"]
	if fix.Count != 3 {
		t.Errorf("ai.fix count = %d, want 3", fix.Count)
	}
	if !fix.LastUsed.Equal(ts.Add(2 * time.Minute)) {
		t.Errorf("ai.fix last used = %v, want %v", fix.LastUsed, ts.Add(2*time.Minute))
	}
	if len(fix.Variations) != 2 {
		t.Fatalf("ai.fix variations = %v, want 2 entries", fix.Variations)
	}
	// First-seen order, counts intact.
	if fix.Variations[0].Phrase != "fix this error" || fix.Variations[0].Count != 2 {
		t.Errorf("variation[0] = %+v", fix.Variations[0])
	}
	if fix.Variations[1].Phrase != "fix the crash" || fix.Variations[1].Count != 1 {
		t.Errorf("variation[1] = %+v", fix.Variations[1])
	}

	// Count equals the sum of its variation counts.
	sum := 0
	for _, v := range fix.Variations {
		sum += v.Count
	}
	if sum != fix.Count {
		t.Errorf("variation counts sum to %d, command count is %d", sum, fix.Count)
	}

	if save := byID["scene.save"]; save.Count != 1 || len(save.Variations) != 1 {
		t.Errorf("scene.save = %+v", save)
	}
}

// TestPreferenceRoundTrip verifies save, replace, and reload of learned
// preferences.
func TestPreferenceRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.SavePreference("deploy it", "deploy.staging"); err != nil {
		t.Fatalf("SavePreference failed: %v", err)
	}
	if err := store.SavePreference("deploy it", "deploy.production"); err != nil {
		t.Fatalf("SavePreference replace failed: %v", err)
	}

	prefs, err := store.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if len(prefs) != 1 || prefs["deploy it"] != "deploy.production" {
		t.Errorf("prefs = %v, want the replacement to win", prefs)
	}
}

// TestClear verifies all three tables are wiped.
func TestClear(t *testing.T) {
	store := newTestStore(t)

	store.RecordUsage(UsageEvent{CommandID: "a", Phrase: "alpha", Timestamp: time.Now()})
	store.SavePreference("alpha", "a")

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	records, _ := store.LoadUsage()
	if len(records) != 0 {
		t.Errorf("usage survived Clear: %+v", records)
	}
	prefs, _ := store.LoadPreferences()
	if len(prefs) != 0 {
		t.Errorf("preferences survived Clear: %v", prefs)
	}
}

// TestDisabledStoreIsNoOp verifies a disabled store degrades silently.
func TestDisabledStoreIsNoOp(t *testing.T) {
	store := &SQLiteStore{enabled: false}

	if err := store.Init(); err != nil {
		t.Errorf("Init on disabled store = %v, want nil", err)
	}
	if err := store.RecordUsage(UsageEvent{CommandID: "a", Phrase: "alpha", Timestamp: time.Now()}); err != nil {
		t.Errorf("RecordUsage on disabled store = %v, want nil", err)
	}
	records, err := store.LoadUsage()
	if err != nil || records != nil {
		t.Errorf("LoadUsage on disabled store = %v, %v", records, err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on disabled store = %v, want nil", err)
	}
}

// TestInitUnwritablePathDegrades verifies an unopenable database
// disables the store instead of failing later operations.
func TestInitUnwritablePathDegrades(t *testing.T) {
	// A path whose parent is a file cannot be created.
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(filepath.Join(blocker, "sub", "test.db"))
	if err := store.Init(); err == nil {
		t.Fatal("expected Init to report the failure")
	}

	// Degraded: every operation is a silent no-op now.
	if err := store.RecordUsage(UsageEvent{CommandID: "a", Phrase: "alpha", Timestamp: time.Now()}); err != nil {
		t.Errorf("RecordUsage after failed Init = %v, want nil", err)
	}
}
