package storage

import (
	"log"
	"time"
)

// RecordUsage applies one usage event. A write failure is logged and
// swallowed; learning persistence must never break dispatch.
func (s *SQLiteStore) RecordUsage(event UsageEvent) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := nowRFC3339(event.Timestamp)

	if _, err := s.db.Exec(`
		INSERT INTO command_usage (command_id, count, last_used)
		VALUES (?, 1, ?)
		ON CONFLICT(command_id) DO UPDATE SET
			count = count + 1,
			last_used = excluded.last_used
	`, event.CommandID, ts); err != nil {
		log.Printf("Warning: failed to record usage: %v", err)
		return nil
	}

	if _, err := s.db.Exec(`
		INSERT INTO usage_variations (command_id, phrase, count)
		VALUES (?, ?, 1)
		ON CONFLICT(command_id, phrase) DO UPDATE SET
			count = count + 1
	`, event.CommandID, event.Phrase); err != nil {
		log.Printf("Warning: failed to record variation: %v", err)
	}

	return nil
}

// SavePreference stores or replaces a learned disambiguation choice.
func (s *SQLiteStore) SavePreference(phrase, commandID string) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`
		INSERT INTO learned_preferences (phrase, command_id, learned_at)
		VALUES (?, ?, ?)
		ON CONFLICT(phrase) DO UPDATE SET
			command_id = excluded.command_id,
			learned_at = excluded.learned_at
	`, phrase, commandID, nowRFC3339(time.Now())); err != nil {
		log.Printf("Warning: failed to save preference: %v", err)
	}

	return nil
}

// LoadUsage reconstitutes all usage records. Rows that fail to parse are
// skipped with a warning so one corrupt row cannot block startup.
func (s *SQLiteStore) LoadUsage() ([]Usage, error) {
	if !s.enabled || s.db == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT command_id, count, last_used FROM command_usage
	`)
	if err != nil {
		log.Printf("Warning: failed to load usage: %v", err)
		return nil, nil
	}
	defer rows.Close()

	byID := make(map[string]*Usage)
	var order []string
	for rows.Next() {
		var u Usage
		var lastUsed string
		if err := rows.Scan(&u.CommandID, &u.Count, &lastUsed); err != nil {
			log.Printf("Warning: failed to scan usage row: %v", err)
			continue
		}
		u.LastUsed, err = time.Parse(time.RFC3339, lastUsed)
		if err != nil {
			log.Printf("Warning: failed to parse last_used: %v", err)
			continue
		}
		byID[u.CommandID] = &u
		order = append(order, u.CommandID)
	}

	// Variations come back in insertion order (rowid), which is the
	// first-seen order the preferred-phrasing tie-break relies on.
	vrows, err := s.db.Query(`
		SELECT command_id, phrase, count FROM usage_variations ORDER BY id
	`)
	if err != nil {
		log.Printf("Warning: failed to load variations: %v", err)
	} else {
		defer vrows.Close()
		for vrows.Next() {
			var commandID string
			var v Variation
			if err := vrows.Scan(&commandID, &v.Phrase, &v.Count); err != nil {
				log.Printf("Warning: failed to scan variation row: %v", err)
				continue
			}
			if u, ok := byID[commandID]; ok {
				u.Variations = append(u.Variations, v)
			}
		}
	}

	out := make([]Usage, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// LoadPreferences reconstitutes the learned phrase → command mapping.
func (s *SQLiteStore) LoadPreferences() (map[string]string, error) {
	if !s.enabled || s.db == nil {
		return map[string]string{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT phrase, command_id FROM learned_preferences`)
	if err != nil {
		log.Printf("Warning: failed to load preferences: %v", err)
		return map[string]string{}, nil
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var phrase, commandID string
		if err := rows.Scan(&phrase, &commandID); err != nil {
			log.Printf("Warning: failed to scan preference row: %v", err)
			continue
		}
		prefs[phrase] = commandID
	}
	return prefs, nil
}
