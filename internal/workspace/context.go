/*
Package workspace tracks what the user is currently looking at.

The store is a bounded, mutable snapshot of the live session: open files,
selection, collaborators, recent commands, and conversation turns. The
dispatcher consults it to fill context-dependent slots ("this", "here")
and records every dispatch back into it.

One store exists per session. Multi-window hosts create one store per
window; nothing here is process-global.
*/
package workspace

import (
	"sync"
	"time"
)

const (
	// maxRecentCommands caps the recent-command list. Oldest entries are
	// evicted silently on overflow.
	maxRecentCommands = 50

	// maxConversationTurns caps the conversation history.
	maxConversationTurns = 20
)

// CursorPosition is a 1-based line/column position in the current file.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// User is a collaborator visible in the session.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecentCommand records one matched command, most recent first.
type RecentCommand struct {
	CommandID string            `json:"commandId"`
	Intent    string            `json:"intent"`
	RawText   string            `json:"rawText"`
	Params    map[string]string `json:"params"`
	At        time.Time         `json:"at"`
}

// ConversationTurn records one dispatch and its outcome, most recent first.
type ConversationTurn struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Result    string    `json:"result"`
	Success   bool      `json:"success"`
}

// Snapshot is a defensive copy of the store's state. Callers may mutate
// it freely without affecting the engine.
type Snapshot struct {
	CurrentFile         string
	OpenFiles           []string
	SelectedText        string
	CursorPosition      *CursorPosition
	GitBranch           string
	OnlineUsers         []User
	RecentCommands      []RecentCommand
	ConversationHistory []ConversationTurn
}

// Store is the live workspace context for one session. All mutation goes
// through setters so cap invariants are enforced in one place.
type Store struct {
	mu sync.RWMutex

	currentFile  string
	openFiles    []string
	selectedText string
	cursor       *CursorPosition
	gitBranch    string
	onlineUsers  []User
	recent       []RecentCommand
	history      []ConversationTurn
}

// NewStore creates an empty context store for a new session.
func NewStore() *Store {
	return &Store{}
}

// SetCurrentFile records the file the user is viewing and adds it to the
// open-file set if not already present.
func (s *Store) SetCurrentFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentFile = path
	if path == "" {
		return
	}
	for _, f := range s.openFiles {
		if f == path {
			return
		}
	}
	s.openFiles = append(s.openFiles, path)
}

// CloseFile removes a file from the open set. Closing the current file
// clears the current-file pointer.
func (s *Store) CloseFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.openFiles {
		if f == path {
			s.openFiles = append(s.openFiles[:i], s.openFiles[i+1:]...)
			break
		}
	}
	if s.currentFile == path {
		s.currentFile = ""
	}
}

// SetSelectedText records the current selection; empty means none.
func (s *Store) SetSelectedText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedText = text
}

// SelectedText returns the current selection, or "" when nothing is
// selected.
func (s *Store) SelectedText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedText
}

// SetCursorPosition records the caret position; nil clears it.
func (s *Store) SetCursorPosition(pos *CursorPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos == nil {
		s.cursor = nil
		return
	}
	p := *pos
	s.cursor = &p
}

// SetGitBranch records the checked-out branch.
func (s *Store) SetGitBranch(branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gitBranch = branch
}

// SetOnlineUsers replaces the collaborator set.
func (s *Store) SetOnlineUsers(users []User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onlineUsers = append([]User(nil), users...)
}

// AddRecentCommand inserts at the front, evicting the oldest entry when
// the cap is exceeded. The params map is cloned so the caller keeping
// (or mutating) its copy cannot rewrite history.
func (s *Store) AddRecentCommand(rc RecentCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rc.Params = cloneParams(rc.Params)
	s.recent = append([]RecentCommand{rc}, s.recent...)
	if len(s.recent) > maxRecentCommands {
		s.recent = s.recent[:maxRecentCommands]
	}
}

// AddConversationTurn inserts at the front, evicting the oldest entry
// when the cap is exceeded.
func (s *Store) AddConversationTurn(turn ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append([]ConversationTurn{turn}, s.history...)
	if len(s.history) > maxConversationTurns {
		s.history = s.history[:maxConversationTurns]
	}
}

// Snapshot returns a defensive copy of the full context.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		CurrentFile:         s.currentFile,
		OpenFiles:           append([]string(nil), s.openFiles...),
		SelectedText:        s.selectedText,
		GitBranch:           s.gitBranch,
		OnlineUsers:         append([]User(nil), s.onlineUsers...),
		RecentCommands:      make([]RecentCommand, len(s.recent)),
		ConversationHistory: append([]ConversationTurn(nil), s.history...),
	}
	for i, rc := range s.recent {
		rc.Params = cloneParams(rc.Params)
		snap.RecentCommands[i] = rc
	}
	if s.cursor != nil {
		c := *s.cursor
		snap.CursorPosition = &c
	}
	return snap
}

// cloneParams copies a slot-value map; nil stays nil.
func cloneParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// Reset returns the store to the empty state. Used at session boundaries
// only; nothing else ever clears context implicitly.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentFile = ""
	s.openFiles = nil
	s.selectedText = ""
	s.cursor = nil
	s.gitBranch = ""
	s.onlineUsers = nil
	s.recent = nil
	s.history = nil
}
