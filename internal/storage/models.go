package storage

import "time"

// UsageEvent is one confirmed command invocation to persist.
type UsageEvent struct {
	// CommandID identifies the dispatched command.
	CommandID string `json:"commandId"`

	// Phrase is the normalized spoken text that selected the command.
	Phrase string `json:"phrase"`

	// Timestamp is when the invocation completed successfully.
	Timestamp time.Time `json:"timestamp"`
}

// Variation is one normalized phrasing and how often it was used.
type Variation struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// Usage is the persisted learning record for one command.
// Invariant: Count equals the sum of all variation counts.
type Usage struct {
	CommandID string `json:"commandId"`
	Count     int    `json:"count"`

	// LastUsed is stored at RFC3339 precision.
	LastUsed time.Time `json:"lastUsed"`

	// Variations are ordered by first use, which also breaks ties when
	// picking the preferred phrasing.
	Variations []Variation `json:"variations"`
}
