/*
Package cli implements the voice-hub command-line interface.

Each subcommand is constructed by its own NewXxxCmd function. Commands
that need a live engine build it through buildEngine, which wires the
full session: config, sqlite-backed learning, workspace context, the
built-in command pack, and the help index.
*/
package cli

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/khanglvm/voice-hub/internal/builtin"
	"github.com/khanglvm/voice-hub/internal/config"
	"github.com/khanglvm/voice-hub/internal/dispatch"
	"github.com/khanglvm/voice-hub/internal/feedback"
	"github.com/khanglvm/voice-hub/internal/learning"
	"github.com/khanglvm/voice-hub/internal/search"
	"github.com/khanglvm/voice-hub/internal/storage"
	"github.com/khanglvm/voice-hub/internal/workspace"
)

// session is one fully wired engine plus everything that needs shutdown.
type session struct {
	engine *dispatch.Engine
	index  *search.Index
	store  storage.Store
	cfg    *config.Config
}

// close releases session resources in dependency order.
func (s *session) close() {
	s.engine.Learning().Stop()
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			log.Printf("Warning: failed to close help index: %v", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
	}
}

// buildEngine wires a complete session. Learning storage failures
// degrade to in-memory operation; a broken command pack is fatal.
func buildEngine() (*session, error) {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var store storage.Store
	if dbPath, pathErr := cfg.HistoryDBPath(); pathErr == nil {
		store = storage.NewStore(dbPath)
	} else {
		log.Printf("Warning: no data directory, learning will not persist: %v", pathErr)
	}

	var fb feedback.Service = feedback.Discard{}
	if cfg.Settings != nil && (cfg.Settings.SpeakResults || cfg.Settings.PlaySoundCues) {
		fb = feedback.LogService{}
	}

	engine := dispatch.NewEngine(workspace.NewStore(), learning.NewService(store), fb)

	defs, err := builtin.Definitions(builtin.LoopbackBridge{}, fb)
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in commands: %w", err)
	}
	if err := engine.RegisterBatch(defs); err != nil {
		return nil, fmt.Errorf("failed to register built-in commands: %w", err)
	}

	index, err := buildIndex(cfg)
	if err != nil {
		log.Printf("Warning: help index unavailable: %v", err)
		index = nil
	} else if err := index.IndexCatalog(engine.Catalog()); err != nil {
		log.Printf("Warning: failed to index commands: %v", err)
	}

	return &session{engine: engine, index: index, store: store, cfg: cfg}, nil
}

// buildIndex picks the in-memory index unless the config asks for the
// persistent one under the data directory.
func buildIndex(cfg *config.Config) (*search.Index, error) {
	if cfg.Settings == nil || !cfg.Settings.PersistHelpIndex {
		return search.NewMemIndex()
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return search.NewMemIndex()
	}
	return search.NewIndexAt(filepath.Join(dir, "index"))
}
