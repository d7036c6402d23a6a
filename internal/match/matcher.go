package match

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/khanglvm/voice-hub/internal/command"
)

const (
	// ConfidenceFloor discards candidates whose match quality is too weak
	// to act on. Anything where no literal token matched scores below it.
	ConfidenceFloor = 0.3

	// slotTokenCredit is the partial credit a slot-captured token earns
	// toward confidence. Literal tokens earn full credit.
	slotTokenCredit = 0.5

	// leftoverTokenPenalty is subtracted per token the pattern did not
	// account for (leading or trailing noise).
	leftoverTokenPenalty = 0.25
)

// Candidate pairs a definition with its parsed match for one utterance.
type Candidate struct {
	Def    *command.Definition
	Parsed command.ParsedCommand
}

// Matcher matches utterances against the compiled patterns of a catalog.
// Templates are compiled once, when the definition is registered through
// the engine.
type Matcher struct {
	catalog *command.Catalog

	mu       sync.RWMutex
	compiled map[string][]*Template // command ID → compiled patterns
	slots    map[string][]string    // command ID → union of slot names
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(catalog *command.Catalog) *Matcher {
	return &Matcher{
		catalog:  catalog,
		compiled: make(map[string][]*Template),
		slots:    make(map[string][]string),
	}
}

// Compile compiles and caches a definition's patterns. Any pattern that
// fails to compile rejects the whole definition — authoring errors fail
// loudly at registration, not at runtime.
func (m *Matcher) Compile(def *command.Definition) error {
	templates := make([]*Template, 0, len(def.Patterns))
	seen := make(map[string]bool)
	var union []string
	for _, p := range def.Patterns {
		t, err := Compile(p)
		if err != nil {
			return fmt.Errorf("command %q: %w", def.ID, err)
		}
		templates = append(templates, t)
		for _, s := range t.slots {
			if !seen[s] {
				seen[s] = true
				union = append(union, s)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.compiled[def.ID] = templates
	m.slots[def.ID] = union
	return nil
}

// SlotUnion returns the union of slot names across all of a command's
// patterns, in first-seen order. The dispatcher treats this as the
// command's required parameter set.
func (m *Matcher) SlotUnion(commandID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.slots[commandID]...)
}

// Normalize lower-cases an utterance, collapses whitespace, and strips
// trailing punctuation. The same normalization keys the learning
// service's variation and preference maps.
func Normalize(utterance string) string {
	s := strings.ToLower(strings.TrimSpace(utterance))
	s = strings.TrimRight(s, ".!?,;:")
	return strings.Join(strings.Fields(s), " ")
}

// Match returns candidates for an utterance, sorted by confidence
// descending. Candidates below the confidence floor are discarded; ties
// are left for the ranking layer to break.
func (m *Matcher) Match(utterance string) []Candidate {
	normalized := Normalize(utterance)
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []Candidate
	for _, def := range m.catalog.All() {
		templates := m.compiled[def.ID]
		var best *command.ParsedCommand
		for _, t := range templates {
			res, ok := t.matchTokens(tokens)
			if !ok {
				continue
			}
			conf := confidence(t, res, len(tokens))
			if conf < ConfidenceFloor {
				continue
			}
			if best == nil || conf > best.Confidence {
				best = &command.ParsedCommand{
					CommandID:      def.ID,
					Intent:         def.Intent,
					RawText:        normalized,
					MatchedPattern: t.Raw,
					Params:         res.params,
					Confidence:     conf,
				}
			}
		}
		if best != nil {
			candidates = append(candidates, Candidate{Def: def, Parsed: *best})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Parsed.Confidence > candidates[j].Parsed.Confidence
	})
	return candidates
}

// confidence scores a successful template match in [0,1]. Literal tokens
// count in full, slot captures count in part, and tokens the pattern did
// not account for subtract. An exact all-literal match is a perfect 1.0.
func confidence(t *Template, res *result, utteranceLen int) float64 {
	if res.literalTokens == 0 {
		// No literal anchored the match; not actionable.
		return 0
	}
	leftover := utteranceLen - res.literalTokens - res.slotTokens
	if t.literalOnly() && leftover == 0 {
		return 1.0
	}

	score := (float64(res.literalTokens) +
		slotTokenCredit*float64(res.slotTokens) -
		leftoverTokenPenalty*float64(leftover)) / float64(utteranceLen)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
