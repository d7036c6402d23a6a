package builtin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/khanglvm/voice-hub/internal/dispatch"
	"github.com/khanglvm/voice-hub/internal/feedback"
	"github.com/khanglvm/voice-hub/internal/learning"
	"github.com/khanglvm/voice-hub/internal/workspace"
)

// TestLoadEmbeddedPack verifies the embedded YAML parses and every spec
// is fully declared.
func TestLoadEmbeddedPack(t *testing.T) {
	specs, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(specs) == 0 {
		t.Fatal("pack is empty")
	}

	seen := make(map[string]bool)
	for _, spec := range specs {
		if spec.ID == "" || spec.Tool == "" || len(spec.Patterns) == 0 {
			t.Errorf("incomplete spec: %+v", spec)
		}
		if seen[spec.ID] {
			t.Errorf("duplicate command ID %s", spec.ID)
		}
		seen[spec.ID] = true
	}
}

// TestPackRegistersCleanly verifies every pattern in the pack compiles
// and no IDs collide at registration.
func TestPackRegistersCleanly(t *testing.T) {
	e := dispatch.NewEngine(workspace.NewStore(), learning.NewService(nil), feedback.Discard{})

	defs, err := Definitions(LoopbackBridge{}, feedback.Discard{})
	if err != nil {
		t.Fatalf("Definitions failed: %v", err)
	}
	if err := e.RegisterBatch(defs); err != nil {
		t.Fatalf("RegisterBatch failed: %v", err)
	}
	if got := e.Catalog().Stats().Total; got != len(defs) {
		t.Errorf("registered %d of %d commands", got, len(defs))
	}
}

// TestPackExamplesDispatch verifies representative pack phrases run end
// to end through the loopback bridge.
func TestPackExamplesDispatch(t *testing.T) {
	e := dispatch.NewEngine(workspace.NewStore(), learning.NewService(nil), feedback.Discard{})
	defs, err := Definitions(LoopbackBridge{}, feedback.Discard{})
	if err != nil {
		t.Fatalf("Definitions failed: %v", err)
	}
	if err := e.RegisterBatch(defs); err != nil {
		t.Fatalf("RegisterBatch failed: %v", err)
	}

	cases := []struct {
		utterance string
		wantID    string
	}{
		{"set time of day to noon", "lighting.time-of-day"},
		{"spawn a point light", "actor.spawn"},
		{"save the level", "scene.save"},
		{"play animation idle on the mannequin", "animation.play"},
		{"take a screenshot", "viewport.screenshot"},
		{"go to line forty two", "nav.goto-line"},
	}

	for _, tc := range cases {
		res := e.Dispatch(context.Background(), tc.utterance)
		if res.Outcome != dispatch.OutcomeSuccess {
			t.Errorf("%q: outcome = %s (%s)", tc.utterance, res.Outcome, res.Error)
			continue
		}
		if res.Command.CommandID != tc.wantID {
			t.Errorf("%q: matched %s, want %s", tc.utterance, res.Command.CommandID, tc.wantID)
		}
	}
}

// TestSelectionCommandsUseContext verifies the ai commands consume the
// workspace selection when spoken bare.
func TestSelectionCommandsUseContext(t *testing.T) {
	e := dispatch.NewEngine(workspace.NewStore(), learning.NewService(nil), feedback.Discard{})
	defs, err := Definitions(LoopbackBridge{}, feedback.Discard{})
	if err != nil {
		t.Fatalf("Definitions failed: %v", err)
	}
	if err := e.RegisterBatch(defs); err != nil {
		t.Fatalf("RegisterBatch failed: %v", err)
	}

	e.Context().SetSelectedText("BeginPlay()")
	res := e.Dispatch(context.Background(), "explain")
	if res.Outcome != dispatch.OutcomeSuccess {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Error)
	}
	if got := res.Command.Params["selection"]; got != "BeginPlay()" {
		t.Errorf("selection = %q, want the workspace selection", got)
	}
	if !strings.Contains(res.Handler.Message, "BeginPlay()") {
		t.Errorf("handler message = %q, want it to carry the selection", res.Handler.Message)
	}
}

// TestGitBranchReadsWorkspace verifies the branch command reports from
// context without touching the bridge.
func TestGitBranchReadsWorkspace(t *testing.T) {
	e := dispatch.NewEngine(workspace.NewStore(), learning.NewService(nil), feedback.Discard{})
	defs, err := Definitions(failingBridge{}, feedback.Discard{})
	if err != nil {
		t.Fatalf("Definitions failed: %v", err)
	}
	if err := e.RegisterBatch(defs); err != nil {
		t.Fatalf("RegisterBatch failed: %v", err)
	}

	e.Context().SetGitBranch("feature/lighting")
	res := e.Dispatch(context.Background(), "what branch am i on")
	if res.Outcome != dispatch.OutcomeSuccess {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Error)
	}
	if !strings.Contains(res.Handler.Message, "feature/lighting") {
		t.Errorf("handler message = %q", res.Handler.Message)
	}
}

// TestBridgeErrorIsHandlerFailure verifies bridge errors surface as
// failed dispatches, never panics.
func TestBridgeErrorIsHandlerFailure(t *testing.T) {
	e := dispatch.NewEngine(workspace.NewStore(), learning.NewService(nil), feedback.Discard{})
	defs, err := Definitions(failingBridge{}, feedback.Discard{})
	if err != nil {
		t.Fatalf("Definitions failed: %v", err)
	}
	if err := e.RegisterBatch(defs); err != nil {
		t.Fatalf("RegisterBatch failed: %v", err)
	}

	res := e.Dispatch(context.Background(), "save the level")
	if res.Outcome != dispatch.OutcomeHandlerFailed {
		t.Fatalf("outcome = %s, want handler_failed", res.Outcome)
	}
	if !strings.Contains(res.Error, "editor offline") {
		t.Errorf("error = %q, want the bridge failure", res.Error)
	}
}

// TestLoopbackBridgeOutput verifies deterministic parameter rendering.
func TestLoopbackBridgeOutput(t *testing.T) {
	out, err := LoopbackBridge{}.Execute(context.Background(), "spawn_actor", map[string]string{
		"actorClass": "point light",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "executed spawn_actor (actorClass=point light)" {
		t.Errorf("output = %q", out)
	}

	out, _ = LoopbackBridge{}.Execute(context.Background(), "editor_undo", nil)
	if out != "executed editor_undo" {
		t.Errorf("output = %q", out)
	}
}

type failingBridge struct{}

func (failingBridge) Execute(context.Context, string, map[string]string) (string, error) {
	return "", errors.New("editor offline")
}
