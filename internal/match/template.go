/*
Package match turns raw utterances into slot-filled command candidates.

Command authors declare pattern templates such as "set time of day to
{time}". A template compiles into an alternating sequence of literal
token runs and named slots. Matching is deterministic: literal runs must
appear in order, slots capture the shortest non-empty token run that
still lets the remaining literals match, and a trailing slot captures
the rest of the utterance. No model is involved.
*/
package match

import (
	"fmt"
	"strings"
)

// segment is one compiled piece of a template: either a run of literal
// tokens or a single named slot.
type segment struct {
	slot    string   // slot name, "" for literal segments
	literal []string // literal tokens, nil for slot segments
}

// Template is a compiled pattern ready for matching.
type Template struct {
	Raw      string
	segments []segment
	slots    []string
}

// Compile parses a pattern template. Authoring errors fail here, at
// registration time, never against live input:
//   - empty slot names ("{}")
//   - two slots with no literal separator ("{a} {b}") — there is no
//     principled split point, so the pattern fails closed
func Compile(pattern string) (*Template, error) {
	tokens := strings.Fields(strings.ToLower(pattern))
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}

	t := &Template{Raw: pattern}
	prevSlot := false
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}") {
			name := tok[1 : len(tok)-1]
			if name == "" {
				return nil, fmt.Errorf("pattern %q: empty slot name", pattern)
			}
			if prevSlot {
				return nil, fmt.Errorf("pattern %q: adjacent slots with no literal separator", pattern)
			}
			t.segments = append(t.segments, segment{slot: name})
			t.slots = append(t.slots, name)
			prevSlot = true
			continue
		}
		if strings.ContainsAny(tok, "{}") {
			return nil, fmt.Errorf("pattern %q: malformed slot token %q", pattern, tok)
		}
		prevSlot = false
		if n := len(t.segments); n > 0 && t.segments[n-1].slot == "" {
			t.segments[n-1].literal = append(t.segments[n-1].literal, tok)
		} else {
			t.segments = append(t.segments, segment{literal: []string{tok}})
		}
	}
	return t, nil
}

// Slots returns the slot names declared by this template.
func (t *Template) Slots() []string {
	return append([]string(nil), t.slots...)
}

// literalOnly reports whether the template has no slots.
func (t *Template) literalOnly() bool {
	return len(t.slots) == 0
}

// result carries the raw accounting of a successful template match.
type result struct {
	params        map[string]string
	literalTokens int
	slotTokens    int
}

// matchTokens attempts to match the template against an utterance's
// tokens. Extra tokens before the first literal or after the last one
// are tolerated (the confidence formula penalizes them); a slot in those
// positions absorbs them instead.
func (t *Template) matchTokens(tokens []string) (*result, bool) {
	res := &result{params: make(map[string]string)}
	if t.matchFrom(0, 0, tokens, res) {
		return res, true
	}
	return nil, false
}

// matchFrom matches segments[segIdx:] against tokens[pos:]. Slots are
// non-greedy: the earliest position where the following literal run
// occurs wins, provided the remainder of the template also matches.
func (t *Template) matchFrom(segIdx, pos int, tokens []string, res *result) bool {
	if segIdx == len(t.segments) {
		return true
	}

	seg := t.segments[segIdx]

	if seg.slot == "" {
		// Literal run. Only the first segment may float past leftover
		// tokens; a literal that follows a slot is anchored by the slot's
		// capture, and interior literals are anchored by construction.
		starts := []int{pos}
		if segIdx == 0 {
			starts = starts[:0]
			for p := pos; p+len(seg.literal) <= len(tokens); p++ {
				starts = append(starts, p)
			}
		}
		for _, start := range starts {
			if !literalAt(tokens, start, seg.literal) {
				continue
			}
			res.literalTokens += len(seg.literal)
			if t.matchFrom(segIdx+1, start+len(seg.literal), tokens, res) {
				return true
			}
			res.literalTokens -= len(seg.literal)
		}
		return false
	}

	// Slot segment.
	if segIdx == len(t.segments)-1 {
		// Final slot captures the remainder; it must be non-empty.
		if pos >= len(tokens) {
			return false
		}
		captured := tokens[pos:]
		res.params[seg.slot] = strings.Join(captured, " ")
		res.slotTokens += len(captured)
		return true
	}

	// Interior slot: the next segment is a literal run (adjacent slots
	// are rejected at compile time). Try the shortest capture first.
	next := t.segments[segIdx+1]
	for end := pos + 1; end+len(next.literal) <= len(tokens); end++ {
		if !literalAt(tokens, end, next.literal) {
			continue
		}
		captured := tokens[pos:end]
		res.params[seg.slot] = strings.Join(captured, " ")
		res.slotTokens += len(captured)
		if t.matchFrom(segIdx+1, end, tokens, res) {
			return true
		}
		res.slotTokens -= len(captured)
		delete(res.params, seg.slot)
	}
	return false
}

// literalAt reports whether the literal token run appears at tokens[start:].
func literalAt(tokens []string, start int, literal []string) bool {
	if start+len(literal) > len(tokens) {
		return false
	}
	for i, lit := range literal {
		if tokens[start+i] != lit {
			return false
		}
	}
	return true
}
