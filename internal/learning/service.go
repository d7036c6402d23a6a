/*
Package learning adapts recognition quality to how the user actually
phrases commands.

The service keeps the authoritative in-memory state for one session:
per-command usage counts with phrasing variations, and explicit
disambiguation preferences. A composite recency/frequency score breaks
ties between equally good matches; raw counts drive "most used"
reporting. A background recorder write-through persists every confirmed
event without blocking dispatch.
*/
package learning

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/khanglvm/voice-hub/internal/match"
	"github.com/khanglvm/voice-hub/internal/storage"
)

const (
	// recencyWeight and frequencyWeight combine into the tie-break score
	// (30% recency, 70% frequency).
	recencyWeight   = 0.3
	frequencyWeight = 0.7

	// recencyWindowDays is how long it takes an unused command's recency
	// component to decay to zero.
	recencyWindowDays = 30

	// frequencySaturation is the use count at which the frequency
	// component saturates at 1.
	frequencySaturation = 100
)

// usageRecord is the in-memory learning state for one command.
type usageRecord struct {
	count      int
	lastUsed   time.Time
	variations map[string]int
	varOrder   []string // first-seen order, for tie-breaking
}

// Service is the usage learning and ranking service for one session.
type Service struct {
	mu    sync.RWMutex
	usage map[string]*usageRecord
	order []string // first-use order of command IDs
	prefs map[string]string

	recorder *recorder
	now      func() time.Time
}

// NewService creates a service preloaded from storage. A nil store, or a
// store that fails to load, yields an empty service — learning state is
// never a startup failure.
func NewService(store storage.Store) *Service {
	s := &Service{
		usage: make(map[string]*usageRecord),
		prefs: make(map[string]string),
		now:   time.Now,
	}

	if store == nil {
		return s
	}

	if err := store.Init(); err != nil {
		log.Printf("Warning: learning storage unavailable, starting empty: %v", err)
		return s
	}

	if records, err := store.LoadUsage(); err == nil {
		for _, u := range records {
			rec := &usageRecord{
				count:      u.Count,
				lastUsed:   u.LastUsed,
				variations: make(map[string]int, len(u.Variations)),
			}
			for _, v := range u.Variations {
				rec.variations[v.Phrase] = v.Count
				rec.varOrder = append(rec.varOrder, v.Phrase)
			}
			s.usage[u.CommandID] = rec
			s.order = append(s.order, u.CommandID)
		}
	}
	if prefs, err := store.LoadPreferences(); err == nil {
		for phrase, id := range prefs {
			s.prefs[phrase] = id
		}
	}

	s.recorder = newRecorder(store)
	return s
}

// Stop flushes pending persistence writes. Call at session end.
func (s *Service) Stop() {
	if s.recorder != nil {
		s.recorder.stop()
	}
}

// RecordUsage records one confirmed invocation. Unknown command IDs get
// a fresh record on first use; this never fails.
func (s *Service) RecordUsage(commandID, spokenText string) {
	phrase := match.Normalize(spokenText)
	now := s.now()

	s.mu.Lock()
	rec, ok := s.usage[commandID]
	if !ok {
		rec = &usageRecord{variations: make(map[string]int)}
		s.usage[commandID] = rec
		s.order = append(s.order, commandID)
	}
	rec.count++
	rec.lastUsed = now
	if _, seen := rec.variations[phrase]; !seen {
		rec.varOrder = append(rec.varOrder, phrase)
	}
	rec.variations[phrase]++
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.recordUsage(storage.UsageEvent{
			CommandID: commandID,
			Phrase:    phrase,
			Timestamp: now,
		})
	}
}

// Score returns the composite recency/frequency score in [0,1] used to
// break ties between live match candidates. Commands never used score 0.
func (s *Service) Score(commandID string) float64 {
	s.mu.RLock()
	rec, ok := s.usage[commandID]
	if !ok {
		s.mu.RUnlock()
		return 0
	}
	count := rec.count
	lastUsed := rec.lastUsed
	s.mu.RUnlock()

	days := s.now().Sub(lastUsed).Hours() / 24
	recency := 1 - days/recencyWindowDays
	if recency < 0 {
		recency = 0
	}

	frequency := float64(count) / frequencySaturation
	if frequency > 1 {
		frequency = 1
	}

	return recencyWeight*recency + frequencyWeight*frequency
}

// PreferredVariation returns the single most-used phrasing for a
// command, or ok=false if it was never used. Ties keep first-seen order.
func (s *Service) PreferredVariation(commandID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.usage[commandID]
	if !ok || len(rec.varOrder) == 0 {
		return "", false
	}

	best := rec.varOrder[0]
	for _, phrase := range rec.varOrder[1:] {
		if rec.variations[phrase] > rec.variations[best] {
			best = phrase
		}
	}
	return best, true
}

// LearnPreference records an explicit disambiguation choice: the next
// time the same normalized phrase arrives, it resolves directly to the
// chosen command without re-scoring.
func (s *Service) LearnPreference(ambiguousText, commandID string) {
	phrase := match.Normalize(ambiguousText)

	s.mu.Lock()
	s.prefs[phrase] = commandID
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.recordPreference(phrase, commandID)
	}
}

// Preference returns the learned command for a normalized phrase, if any.
func (s *Service) Preference(ambiguousText string) (string, bool) {
	phrase := match.Normalize(ambiguousText)

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.prefs[phrase]
	return id, ok
}

// UsageSummary is one row of historical usage reporting.
type UsageSummary struct {
	CommandID string    `json:"commandId"`
	Count     int       `json:"count"`
	LastUsed  time.Time `json:"lastUsed"`
}

// TopCommands returns commands by raw use count, descending. This is the
// historical reporting axis; Score is the live tie-break axis.
func (s *Service) TopCommands(limit int) []UsageSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UsageSummary, 0, len(s.order))
	for _, id := range s.order {
		rec := s.usage[id]
		out = append(out, UsageSummary{CommandID: id, Count: rec.count, LastUsed: rec.lastUsed})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Clear wipes all usage and preference state, in memory and in storage.
// Only an explicit user reset calls this.
func (s *Service) Clear() {
	s.mu.Lock()
	s.usage = make(map[string]*usageRecord)
	s.order = nil
	s.prefs = make(map[string]string)
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.clear()
	}
}

// Snapshot serializes usage and preferences as two independent JSON
// blobs for hosts that persist learning state themselves.
func (s *Service) Snapshot() (usageBlob, prefsBlob []byte, err error) {
	s.mu.RLock()
	records := make([]storage.Usage, 0, len(s.order))
	for _, id := range s.order {
		rec := s.usage[id]
		u := storage.Usage{CommandID: id, Count: rec.count, LastUsed: rec.lastUsed}
		for _, phrase := range rec.varOrder {
			u.Variations = append(u.Variations, storage.Variation{Phrase: phrase, Count: rec.variations[phrase]})
		}
		records = append(records, u)
	}
	prefs := make(map[string]string, len(s.prefs))
	for k, v := range s.prefs {
		prefs[k] = v
	}
	s.mu.RUnlock()

	usageBlob, err = json.Marshal(records)
	if err != nil {
		return nil, nil, err
	}
	prefsBlob, err = json.Marshal(prefs)
	if err != nil {
		return nil, nil, err
	}
	return usageBlob, prefsBlob, nil
}

// RestoreSnapshot replaces in-memory state from Snapshot blobs. A corrupt
// blob leaves the service empty rather than failing the session.
func (s *Service) RestoreSnapshot(usageBlob, prefsBlob []byte) {
	var records []storage.Usage
	if len(usageBlob) > 0 {
		if err := json.Unmarshal(usageBlob, &records); err != nil {
			log.Printf("Warning: corrupt usage snapshot, starting empty: %v", err)
			records = nil
		}
	}
	prefs := make(map[string]string)
	if len(prefsBlob) > 0 {
		if err := json.Unmarshal(prefsBlob, &prefs); err != nil {
			log.Printf("Warning: corrupt preference snapshot, starting empty: %v", err)
			prefs = make(map[string]string)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage = make(map[string]*usageRecord)
	s.order = nil
	for _, u := range records {
		rec := &usageRecord{
			count:      u.Count,
			lastUsed:   u.LastUsed,
			variations: make(map[string]int, len(u.Variations)),
		}
		for _, v := range u.Variations {
			rec.variations[v.Phrase] = v.Count
			rec.varOrder = append(rec.varOrder, v.Phrase)
		}
		s.usage[u.CommandID] = rec
		s.order = append(s.order, u.CommandID)
	}
	s.prefs = prefs
}
