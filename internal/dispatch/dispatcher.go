/*
Package dispatch orchestrates one utterance end to end.

The engine walks a fixed state sequence per dispatch: Matching (catalog
patterns → ranked candidates), Disambiguating (learned preference or
score-weighted pick, with explicit ambiguity surfaced to the caller),
Resolving (context-fillable slots), Invoking (the command's handler),
and Recording (context + learning updates). Every failure mode is a
structured outcome, never a panic: nothing a user says may crash the
host.
*/
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/voice-hub/internal/command"
	"github.com/khanglvm/voice-hub/internal/feedback"
	"github.com/khanglvm/voice-hub/internal/learning"
	"github.com/khanglvm/voice-hub/internal/match"
	"github.com/khanglvm/voice-hub/internal/workspace"
)

const (
	// scoreEpsilon bounds how close two final scores must be to count as
	// a tie. Ties are surfaced, never guessed.
	scoreEpsilon = 1e-3

	// selectionFallback is the literal a context-fillable selection slot
	// resolves to when both the utterance and the workspace are silent.
	selectionFallback = "this code"
)

// contextFillable maps slot names the dispatcher may fill from workspace
// context when the utterance left them empty.
var contextFillable = map[string]bool{
	"selection": true,
}

// Outcome classifies the result of one dispatch.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeMatchFailed      Outcome = "match_failed"
	OutcomeAmbiguous        Outcome = "ambiguous"
	OutcomeMissingParameter Outcome = "missing_parameter"
	OutcomeHandlerFailed    Outcome = "handler_failed"
)

// Result is the structured outcome the engine reports to its caller.
type Result struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`

	// Command is the selected match; nil when nothing matched.
	Command *command.ParsedCommand `json:"command,omitempty"`

	// Handler carries the handler's result on success, or its failure
	// message on OutcomeHandlerFailed.
	Handler *command.HandlerResult `json:"handler,omitempty"`

	// Candidates lists the tied matches on OutcomeAmbiguous; the caller
	// picks one and calls ResolveAmbiguity.
	Candidates []command.ParsedCommand `json:"candidates,omitempty"`

	// MissingSlots names the unresolved parameters on
	// OutcomeMissingParameter.
	MissingSlots []string `json:"missingSlots,omitempty"`

	// Error is human-readable failure detail, empty on success.
	Error string `json:"error,omitempty"`
}

// Engine ties catalog, matcher, context, and learning together. One
// engine per session; multiple sessions get independent engines with no
// cross-talk.
type Engine struct {
	catalog  *command.Catalog
	matcher  *match.Matcher
	context  *workspace.Store
	learning *learning.Service
	feedback feedback.Service
}

// NewEngine creates an engine around an empty catalog.
func NewEngine(ws *workspace.Store, learn *learning.Service, fb feedback.Service) *Engine {
	catalog := command.NewCatalog()
	return &Engine{
		catalog:  catalog,
		matcher:  match.NewMatcher(catalog),
		context:  ws,
		learning: learn,
		feedback: fb,
	}
}

// Catalog exposes the registry for reporting surfaces.
func (e *Engine) Catalog() *command.Catalog { return e.catalog }

// Context exposes the workspace store so the host can push state into it.
func (e *Engine) Context() *workspace.Store { return e.context }

// Learning exposes the learning service for reporting and reset.
func (e *Engine) Learning() *learning.Service { return e.learning }

// Feedback returns the feedback service handlers may emit through.
func (e *Engine) Feedback() feedback.Service { return e.feedback }

// Register compiles and registers one command definition. Declaration
// errors, pattern authoring errors (adjacent slots, malformed slot
// tokens), and ID collisions fail here, loudly, before any user input
// is matched. Compilation runs last so the matcher caches templates
// only for definitions that actually register.
func (e *Engine) Register(def *command.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if existing := e.catalog.Get(def.ID); existing != nil {
		return &command.DuplicateIDError{ID: def.ID}
	}
	if err := e.matcher.Compile(def); err != nil {
		return err
	}
	return e.catalog.Register(def)
}

// RegisterBatch registers each definition, best-effort. Failures are
// joined into one error; earlier registrations stand.
func (e *Engine) RegisterBatch(defs []*command.Definition) error {
	var errs []error
	for _, def := range defs {
		if err := e.Register(def); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch runs one utterance through the full state sequence. Safe for
// concurrent use; interleaved completions append to history in
// completion order (hosts wanting utterance order serialize calls).
func (e *Engine) Dispatch(ctx context.Context, utterance string) *Result {
	// Matching.
	candidates := e.matcher.Match(utterance)
	if len(candidates) == 0 {
		return &Result{
			ID:      uuid.NewString(),
			Outcome: OutcomeMatchFailed,
			Error:   "command not understood",
		}
	}

	normalized := match.Normalize(utterance)

	// Disambiguating: a learned preference selects outright.
	if preferred, ok := e.learning.Preference(normalized); ok {
		for _, c := range candidates {
			if c.Def.ID == preferred {
				return e.resolveAndInvoke(ctx, c, normalized)
			}
		}
		// The preferred command no longer matches this phrasing (catalog
		// changed); fall through to scoring.
	}

	tied := e.pickCandidates(candidates)
	if len(tied) > 1 {
		parsed := make([]command.ParsedCommand, len(tied))
		for i, c := range tied {
			parsed[i] = c.Parsed
		}
		return &Result{
			ID:         uuid.NewString(),
			Outcome:    OutcomeAmbiguous,
			Candidates: parsed,
			Error:      fmt.Sprintf("%d commands match equally well", len(tied)),
		}
	}

	return e.resolveAndInvoke(ctx, tied[0], normalized)
}

// ResolveAmbiguity dispatches the command a caller chose from an
// Ambiguous result, and remembers the choice for next time.
func (e *Engine) ResolveAmbiguity(ctx context.Context, utterance, commandID string) *Result {
	normalized := match.Normalize(utterance)

	for _, c := range e.matcher.Match(utterance) {
		if c.Def.ID == commandID {
			e.learning.LearnPreference(normalized, commandID)
			return e.resolveAndInvoke(ctx, c, normalized)
		}
	}

	return &Result{
		ID:      uuid.NewString(),
		Outcome: OutcomeMatchFailed,
		Error:   fmt.Sprintf("command %q does not match %q", commandID, normalized),
	}
}

// pickCandidates applies learning-weighted scoring and returns every
// candidate tied for the top final score.
func (e *Engine) pickCandidates(candidates []match.Candidate) []match.Candidate {
	best := -1.0
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Parsed.Confidence * (1 + e.learning.Score(c.Def.ID))
		if scores[i] > best {
			best = scores[i]
		}
	}

	var tied []match.Candidate
	for i, c := range candidates {
		if best-scores[i] < scoreEpsilon {
			tied = append(tied, c)
		}
	}
	return tied
}

// resolveAndInvoke runs the Resolving → Invoking → Recording states for
// one selected candidate.
func (e *Engine) resolveAndInvoke(ctx context.Context, c match.Candidate, normalized string) *Result {
	id := uuid.NewString()

	// Resolving: the required parameter set is the union of slots across
	// the command's patterns; the winning pattern may have filled only
	// some of them.
	params := make(map[string]string, len(c.Parsed.Params))
	for k, v := range c.Parsed.Params {
		params[k] = v
	}

	var missing []string
	for _, slot := range e.matcher.SlotUnion(c.Def.ID) {
		if _, ok := params[slot]; ok {
			continue
		}
		if !contextFillable[slot] {
			missing = append(missing, slot)
			continue
		}
		// Context-fillable: workspace selection, then the fixed fallback.
		// Handlers never see an absent context-fillable parameter.
		if sel := e.context.SelectedText(); sel != "" {
			params[slot] = sel
		} else {
			params[slot] = selectionFallback
		}
	}
	if len(missing) > 0 {
		return &Result{
			ID:           id,
			Outcome:      OutcomeMissingParameter,
			Command:      &c.Parsed,
			MissingSlots: missing,
			Error:        fmt.Sprintf("missing parameters: %v", missing),
		}
	}

	resolved := c.Parsed
	resolved.Params = params

	// Invoking. The handler owns its own timeout policy; the engine only
	// reacts to the caller's context.
	var handlerRes *command.HandlerResult
	var handlerErr error
	if c.Def.Handler == nil {
		handlerErr = fmt.Errorf("command %q has no handler", c.Def.ID)
	} else {
		handlerRes, handlerErr = c.Def.Handler(ctx, params, e.context.Snapshot())
		if handlerErr == nil && ctx.Err() != nil {
			handlerErr = fmt.Errorf("cancelled: %w", ctx.Err())
		}
		if handlerErr == nil && handlerRes == nil {
			handlerErr = fmt.Errorf("command %q returned no result", c.Def.ID)
		}
	}

	succeeded := handlerErr == nil && handlerRes.Success

	// Recording: history always reflects reality; learning counts only
	// confirmed successful dispatches.
	now := time.Now()
	e.context.AddRecentCommand(workspace.RecentCommand{
		CommandID: resolved.CommandID,
		Intent:    resolved.Intent,
		RawText:   resolved.RawText,
		Params:    params,
		At:        now,
	})

	turn := workspace.ConversationTurn{
		ID:        id,
		Timestamp: now,
		Command:   resolved.RawText,
		Success:   succeeded,
	}
	switch {
	case handlerErr != nil:
		turn.Result = handlerErr.Error()
	default:
		turn.Result = handlerRes.Message
	}
	e.context.AddConversationTurn(turn)

	if succeeded {
		e.learning.RecordUsage(resolved.CommandID, normalized)
		return &Result{ID: id, Outcome: OutcomeSuccess, Command: &resolved, Handler: handlerRes}
	}

	res := &Result{ID: id, Outcome: OutcomeHandlerFailed, Command: &resolved, Handler: handlerRes}
	if handlerErr != nil {
		res.Error = handlerErr.Error()
	} else {
		res.Error = handlerRes.Message
	}
	return res
}
