package learning

import (
	"testing"
	"time"
)

// TestRecordUsageCreatesAndCounts verifies first use creates a record
// and the total always equals the sum of variation counts.
func TestRecordUsageCreatesAndCounts(t *testing.T) {
	s := NewService(nil)

	s.RecordUsage("ai.fix", "Fix this error!")
	s.RecordUsage("ai.fix", "fix this error")
	s.RecordUsage("ai.fix", "fix the crash")

	top := s.TopCommands(0)
	if len(top) != 1 || top[0].CommandID != "ai.fix" {
		t.Fatalf("TopCommands = %+v", top)
	}
	if top[0].Count != 3 {
		t.Errorf("count = %d, want 3", top[0].Count)
	}

	// Normalization folds the first two utterances into one variation.
	s.mu.RLock()
	rec := s.usage["ai.fix"]
	sum := 0
	for _, c := range rec.variations {
		sum += c
	}
	s.mu.RUnlock()
	if sum != 3 {
		t.Errorf("variation counts sum to %d, want the total 3", sum)
	}
	if rec.variations["fix this error"] != 2 {
		t.Errorf("variations = %v, want fix this error ×2", rec.variations)
	}
}

// TestScoreFrequencyMonotonic verifies more uses never lower the score.
func TestScoreFrequencyMonotonic(t *testing.T) {
	s := NewService(nil)

	s.RecordUsage("a", "alpha")
	one := s.Score("a")

	for i := 0; i < 9; i++ {
		s.RecordUsage("a", "alpha")
	}
	ten := s.Score("a")

	if ten <= one {
		t.Errorf("score went from %v to %v after more uses", one, ten)
	}
}

// TestScoreRecencyDecay verifies an old last-use scores below a fresh
// one and decays to pure frequency after the 30-day window.
func TestScoreRecencyDecay(t *testing.T) {
	s := NewService(nil)
	base := time.Now()

	s.now = func() time.Time { return base }
	s.RecordUsage("a", "alpha")
	fresh := s.Score("a")

	s.now = func() time.Time { return base.Add(15 * 24 * time.Hour) }
	mid := s.Score("a")

	s.now = func() time.Time { return base.Add(45 * 24 * time.Hour) }
	stale := s.Score("a")

	if !(fresh > mid && mid > stale) {
		t.Errorf("scores not decaying: fresh=%v mid=%v stale=%v", fresh, mid, stale)
	}

	// Past the window only the frequency component remains: 0.7 * (1/100).
	want := 0.7 * 0.01
	if diff := stale - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("stale score = %v, want %v", stale, want)
	}
}

// TestScoreUnknownCommand verifies never-used commands score zero.
func TestScoreUnknownCommand(t *testing.T) {
	s := NewService(nil)
	if got := s.Score("never-used"); got != 0 {
		t.Errorf("Score = %v, want 0", got)
	}
}

// TestPreferredVariation verifies the most-used phrasing wins and ties
// keep first-seen order.
func TestPreferredVariation(t *testing.T) {
	s := NewService(nil)

	if _, ok := s.PreferredVariation("a"); ok {
		t.Error("expected no preferred variation before any use")
	}

	s.RecordUsage("a", "open it")
	s.RecordUsage("a", "open the file")
	s.RecordUsage("a", "open the file")
	if got, _ := s.PreferredVariation("a"); got != "open the file" {
		t.Errorf("preferred = %q, want the most used", got)
	}

	// Equal counts: the first-seen phrasing stays preferred.
	s.RecordUsage("a", "open it")
	if got, _ := s.PreferredVariation("a"); got != "open it" {
		t.Errorf("preferred = %q, want first-seen on tie", got)
	}
}

// TestPreferences verifies explicit disambiguation choices round-trip
// through normalization.
func TestPreferences(t *testing.T) {
	s := NewService(nil)

	if _, ok := s.Preference("deploy it"); ok {
		t.Error("expected no preference initially")
	}

	s.LearnPreference("Deploy it!", "deploy.staging")
	if got, ok := s.Preference("deploy it"); !ok || got != "deploy.staging" {
		t.Errorf("Preference = %q, %v", got, ok)
	}
}

// TestTopCommandsOrderAndLimit verifies descending count order and the
// limit.
func TestTopCommandsOrderAndLimit(t *testing.T) {
	s := NewService(nil)
	for i := 0; i < 3; i++ {
		s.RecordUsage("mid", "mid phrase")
	}
	for i := 0; i < 5; i++ {
		s.RecordUsage("high", "high phrase")
	}
	s.RecordUsage("low", "low phrase")

	top := s.TopCommands(2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].CommandID != "high" || top[1].CommandID != "mid" {
		t.Errorf("order = [%s %s], want [high mid]", top[0].CommandID, top[1].CommandID)
	}
}

// TestSnapshotRoundTrip verifies restore reproduces counts, variations,
// and preferences exactly.
func TestSnapshotRoundTrip(t *testing.T) {
	s := NewService(nil)
	s.RecordUsage("ai.fix", "fix this error")
	s.RecordUsage("ai.fix", "fix this error")
	s.RecordUsage("scene.save", "save the level")
	s.LearnPreference("deploy it", "deploy.staging")

	usageBlob, prefsBlob, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	restored := NewService(nil)
	restored.RestoreSnapshot(usageBlob, prefsBlob)

	top := restored.TopCommands(0)
	if len(top) != 2 || top[0].CommandID != "ai.fix" || top[0].Count != 2 {
		t.Errorf("restored TopCommands = %+v", top)
	}
	if got, _ := restored.PreferredVariation("ai.fix"); got != "fix this error" {
		t.Errorf("restored preferred variation = %q", got)
	}
	if got, ok := restored.Preference("deploy it"); !ok || got != "deploy.staging" {
		t.Errorf("restored preference = %q, %v", got, ok)
	}
}

// TestRestoreSnapshotCorruptBlob verifies a corrupt blob leaves the
// service empty instead of failing.
func TestRestoreSnapshotCorruptBlob(t *testing.T) {
	s := NewService(nil)
	s.RecordUsage("a", "alpha")

	s.RestoreSnapshot([]byte("{not json"), []byte("also not"))

	if top := s.TopCommands(0); len(top) != 0 {
		t.Errorf("expected empty state after corrupt restore, got %+v", top)
	}
}

// TestClear verifies usage and preferences are wiped together.
func TestClear(t *testing.T) {
	s := NewService(nil)
	s.RecordUsage("a", "alpha")
	s.LearnPreference("alpha", "a")

	s.Clear()

	if top := s.TopCommands(0); len(top) != 0 {
		t.Errorf("usage survived Clear: %+v", top)
	}
	if _, ok := s.Preference("alpha"); ok {
		t.Error("preference survived Clear")
	}
	if got := s.Score("a"); got != 0 {
		t.Errorf("Score = %v after Clear, want 0", got)
	}
}
