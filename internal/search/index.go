/*
Package search maintains a full-text help index over the command catalog.

The catalog's own Search gives exact substring lookup with deterministic
ranking; this index is the fuzzy discovery surface on top of it — "what
can I say about lighting?" — built with Bleve over command IDs, intents,
patterns, descriptions, and examples.
*/
package search

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/khanglvm/voice-hub/internal/command"
)

// Index is the Bleve-backed help index.
type Index struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
}

// Result is one help-index hit.
type Result struct {
	CommandID   string  `json:"commandId"`
	Intent      string  `json:"intent"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// NewMemIndex creates an in-memory index for fast startup.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &Index{bleveIndex: idx}, nil
}

// NewIndexAt opens or creates a persistent index with the Scorch backend.
func NewIndexAt(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	idx, err := bleve.NewUsing(path, buildIndexMapping(), scorch.Name, scorch.Name, nil)
	if err != nil {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open/create index: %w", err)
		}
	}
	return &Index{bleveIndex: idx}, nil
}

// buildIndexMapping maps command documents for search.
func buildIndexMapping() mapping.IndexMapping {
	cmdMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"id", "intent", "category", "patterns", "description", "examples"} {
		cmdMapping.AddFieldMappingsAt(field, bleve.NewTextFieldMapping())
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", cmdMapping)
	return indexMapping
}

// IndexCatalog (re)indexes every definition in the catalog.
func (i *Index) IndexCatalog(catalog *command.Catalog) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, def := range catalog.All() {
		doc := map[string]interface{}{
			"id":          def.ID,
			"intent":      def.Intent,
			"category":    def.Category,
			"patterns":    strings.Join(def.Patterns, " "),
			"description": def.Description,
			"examples":    strings.Join(def.Examples, " "),
		}
		if err := batch.Index(def.ID, doc); err != nil {
			log.Printf("Warning: failed to index command %s: %v", def.ID, err)
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index commands: %w", err)
	}
	return nil
}

// Search runs a fuzzy match query over the indexed commands.
func (i *Index) Search(query string, limit int) ([]Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), limit, 0, false)
	req.Fields = []string{"id", "intent", "category", "description"}

	results, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	out := make([]Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, _ := hit.Fields["id"].(string)
		intent, _ := hit.Fields["intent"].(string)
		category, _ := hit.Fields["category"].(string)
		description, _ := hit.Fields["description"].(string)
		out = append(out, Result{
			CommandID:   id,
			Intent:      intent,
			Category:    category,
			Description: description,
			Score:       hit.Score,
		})
	}
	return out, nil
}

// Count returns the number of indexed commands.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.bleveIndex.DocCount()
}

// Close releases index resources.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}
	return nil
}
