package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Catalog holds all registered command definitions.
//
// The catalog is read-mostly: registration happens at startup and the
// matcher, help index, and reporting surfaces read from it afterwards.
// A mutex still guards it so late registration cannot race readers.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]*Definition
	order []*Definition // registration order
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID: make(map[string]*Definition),
	}
}

// Register adds one definition. Returns *DuplicateIDError if the ID is
// already present; the existing registration is kept.
func (c *Catalog) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[def.ID]; exists {
		return &DuplicateIDError{ID: def.ID}
	}

	c.byID[def.ID] = def
	c.order = append(c.order, def)
	return nil
}

// RegisterBatch registers each definition in turn. A failing entry is
// skipped; entries registered before it stay registered. The returned
// error joins all per-entry failures, or is nil if every entry succeeded.
func (c *Catalog) RegisterBatch(defs []*Definition) error {
	var errs []error
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			errs = append(errs, fmt.Errorf("register %q: %w", def.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Get returns the definition for an ID, or nil if unknown.
func (c *Catalog) Get(id string) *Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

// All returns every definition in registration order.
func (c *Catalog) All() []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Definition, len(c.order))
	copy(out, c.order)
	return out
}

// ByCategory returns all definitions in a category, in registration order.
func (c *Catalog) ByCategory(category string) []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Definition
	for _, def := range c.order {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// Search performs a case-insensitive substring search over patterns,
// description, and examples. Results are ranked by the number of fields
// that hit (more hits first); ties keep registration order.
func (c *Catalog) Search(keyword string) []*Definition {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	type ranked struct {
		def  *Definition
		hits int
		pos  int
	}

	var matches []ranked
	for pos, def := range c.order {
		hits := 0
		for _, p := range def.Patterns {
			if strings.Contains(strings.ToLower(p), keyword) {
				hits++
			}
		}
		if strings.Contains(strings.ToLower(def.Description), keyword) {
			hits++
		}
		for _, ex := range def.Examples {
			if strings.Contains(strings.ToLower(ex), keyword) {
				hits++
			}
		}
		if hits > 0 {
			matches = append(matches, ranked{def: def, hits: hits, pos: pos})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].hits != matches[j].hits {
			return matches[i].hits > matches[j].hits
		}
		return matches[i].pos < matches[j].pos
	})

	out := make([]*Definition, len(matches))
	for i, m := range matches {
		out[i] = m.def
	}
	return out
}

// Stats describes the live state of the catalog.
type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
}

// Stats returns the total command count and a per-category breakdown,
// computed from live state on every call.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{ByCategory: make(map[string]int)}
	for _, def := range c.order {
		s.Total++
		s.ByCategory[def.Category]++
	}
	return s
}

// HelpText renders a plain-text listing of every command grouped by
// category, for the reporting surface and the CLI.
func (c *Catalog) HelpText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byCat := make(map[string][]*Definition)
	var cats []string
	for _, def := range c.order {
		if _, seen := byCat[def.Category]; !seen {
			cats = append(cats, def.Category)
		}
		byCat[def.Category] = append(byCat[def.Category], def)
	}
	sort.Strings(cats)

	var sb strings.Builder
	for _, cat := range cats {
		fmt.Fprintf(&sb, "%s:\n", cat)
		for _, def := range byCat[cat] {
			fmt.Fprintf(&sb, "  • %s — %s\n", def.ID, def.Description)
			for _, p := range def.Patterns {
				fmt.Fprintf(&sb, "      \"%s\"\n", p)
			}
		}
	}
	return sb.String()
}
