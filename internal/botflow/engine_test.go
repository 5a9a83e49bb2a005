package botflow

import (
	"testing"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// twoStepGraph builds: start -> msg1 ("Hi", options Yes/No), Yes -> msg2,
// No wired to nothing.
func twoStepGraph(t *testing.T) (models.FlowGraph, string, string) {
	t.Helper()
	b := NewBuilder("greeting")
	start, _ := b.AddNode(models.NodeKindStart, models.Position{})
	msg1, _ := b.AddNode(models.NodeKindMessage, models.Position{})
	b.UpdateNode(msg1.ID, NodeData{Text: "Hi! Looking for a plant?"})
	yes, _ := b.AddOption(msg1.ID, "Yes")
	b.AddOption(msg1.ID, "No")
	msg2, _ := b.AddNode(models.NodeKindMessage, models.Position{})
	b.UpdateNode(msg2.ID, NodeData{Text: "Great, browse our catalog!"})
	b.Connect(start.ID, "", msg1.ID)
	b.Connect(msg1.ID, yes.ID, msg2.ID)
	return b.Graph(), msg1.ID, msg2.ID
}

func TestStepTransitionsOnWiredOption(t *testing.T) {
	g, msg1, msg2 := twoStepGraph(t)
	e := NewEngine(g)
	c := e.NewCursor()
	if c.CurrentNodeID != msg1 {
		t.Fatalf("expected initial cursor at msg1, got %s", c.CurrentNodeID)
	}

	res := e.Step(&c, "Yes")
	if res.Status != StepTransitioned {
		t.Fatalf("expected transition, got %s", res.Status)
	}
	if c.CurrentNodeID != msg2 {
		t.Errorf("expected cursor at msg2, got %s", c.CurrentNodeID)
	}
	if res.Message == nil || res.Message.Text != "Great, browse our catalog!" {
		t.Errorf("unexpected message: %+v", res.Message)
	}
}

func TestStepDeadEndLeavesCursorUntouched(t *testing.T) {
	g, msg1, _ := twoStepGraph(t)
	e := NewEngine(g)
	c := e.NewCursor()

	// "No" exists but has no outgoing edge.
	res := e.Step(&c, "No")
	if res.Status != StepDeadEnd {
		t.Fatalf("expected dead end, got %s", res.Status)
	}
	if c.CurrentNodeID != msg1 {
		t.Errorf("dead end must not move the cursor, now at %s", c.CurrentNodeID)
	}

	// "Maybe" matches no option at all.
	res = e.Step(&c, "Maybe")
	if res.Status != StepDeadEnd {
		t.Fatalf("expected dead end for unknown label, got %s", res.Status)
	}
	if c.CurrentNodeID != msg1 {
		t.Errorf("dead end must not move the cursor, now at %s", c.CurrentNodeID)
	}
}

func TestStepLabelMatchIsCaseSensitive(t *testing.T) {
	g, msg1, _ := twoStepGraph(t)
	e := NewEngine(g)
	c := e.NewCursor()
	if res := e.Step(&c, "yes"); res.Status != StepDeadEnd {
		t.Errorf("expected case-sensitive match to miss, got %s", res.Status)
	}
	if c.CurrentNodeID != msg1 {
		t.Error("cursor moved on a missed match")
	}
}

func TestStepBrokenCursor(t *testing.T) {
	g, _, _ := twoStepGraph(t)
	e := NewEngine(g)
	c := Cursor{CurrentNodeID: "vanished"}
	res := e.Step(&c, "Yes")
	if res.Status != StepBrokenCursor {
		t.Fatalf("expected broken cursor, got %s", res.Status)
	}
	if c.CurrentNodeID != "vanished" {
		t.Error("broken cursor must not be rewritten")
	}
}

func TestStepDanglingEdgeTargetIsDeadEnd(t *testing.T) {
	b := NewBuilder("greeting")
	start, _ := b.AddNode(models.NodeKindStart, models.Position{})
	msg, _ := b.AddNode(models.NodeKindMessage, models.Position{})
	opt, _ := b.AddOption(msg.ID, "Go")
	b.Connect(start.ID, "", msg.ID)
	// Permissive editor wired an edge to a node that never existed.
	b.Connect(msg.ID, opt.ID, "ghost")

	e := NewEngine(b.Graph())
	c := e.NewCursor()
	res := e.Step(&c, "Go")
	if res.Status != StepDeadEnd {
		t.Fatalf("expected dead end for dangling target, got %s", res.Status)
	}
	if c.CurrentNodeID != msg.ID {
		t.Error("cursor must stay put when the target is missing")
	}
}

func TestDuplicateOptionLabelsFirstMatchWins(t *testing.T) {
	b := NewBuilder("greeting")
	start, _ := b.AddNode(models.NodeKindStart, models.Position{})
	msg, _ := b.AddNode(models.NodeKindMessage, models.Position{})
	first, _ := b.AddOption(msg.ID, "Help")
	second, _ := b.AddOption(msg.ID, "Help")
	a, _ := b.AddNode(models.NodeKindMessage, models.Position{})
	b.UpdateNode(a.ID, NodeData{Text: "first target"})
	z, _ := b.AddNode(models.NodeKindMessage, models.Position{})
	b.UpdateNode(z.ID, NodeData{Text: "second target"})
	b.Connect(start.ID, "", msg.ID)
	b.Connect(msg.ID, first.ID, a.ID)
	b.Connect(msg.ID, second.ID, z.ID)

	e := NewEngine(b.Graph())
	c := e.NewCursor()
	res := e.Step(&c, "Help")
	if res.Status != StepTransitioned || res.Message.Text != "first target" {
		t.Errorf("expected first option in order to win, got %+v", res)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	g, msg1, _ := twoStepGraph(t)
	e := NewEngine(g)
	c := e.NewCursor()
	e.Step(&c, "Yes")

	e.Reset(&c)
	after1 := c.CurrentNodeID
	e.Reset(&c)
	if c.CurrentNodeID != after1 || c.CurrentNodeID != msg1 {
		t.Errorf("reset not idempotent: %s vs %s", after1, c.CurrentNodeID)
	}
}

func TestWelcomeFromInitialNode(t *testing.T) {
	g, _, _ := twoStepGraph(t)
	e := NewEngine(g)
	msg, ok := e.Welcome()
	if !ok {
		t.Fatal("expected a welcome message")
	}
	if msg.Text != "Hi! Looking for a plant?" {
		t.Errorf("unexpected welcome text %q", msg.Text)
	}
	if len(msg.Options) != 2 || msg.Options[0] != "Yes" || msg.Options[1] != "No" {
		t.Errorf("unexpected welcome options %v", msg.Options)
	}
}

func TestStartWithoutOutgoingEdgeIsDegenerate(t *testing.T) {
	b := NewBuilder("empty")
	start, _ := b.AddNode(models.NodeKindStart, models.Position{})
	e := NewEngine(b.Graph())
	c := e.NewCursor()
	if c.CurrentNodeID != start.ID {
		t.Errorf("expected cursor at the start node itself, got %s", c.CurrentNodeID)
	}
	msg, ok := e.Welcome()
	if !ok {
		t.Fatal("expected a (empty) welcome message")
	}
	if msg.Text != "" || len(msg.Options) != 0 {
		t.Errorf("start node carries no content, got %+v", msg)
	}
}

func TestGraphWithoutStartNode(t *testing.T) {
	b := NewBuilder("headless")
	b.AddNode(models.NodeKindMessage, models.Position{})
	e := NewEngine(b.Graph())
	if _, ok := e.Welcome(); ok {
		t.Error("expected no welcome without a start node")
	}
	c := e.NewCursor()
	if res := e.Step(&c, "anything"); res.Status != StepBrokenCursor {
		t.Errorf("expected broken cursor, got %s", res.Status)
	}
}

func TestActionNodeFallbackTexts(t *testing.T) {
	tests := []struct {
		action models.ActionKind
		want   string
	}{
		{models.ActionMessagingRedirect, "Opening support chat..."},
		{models.ActionExternalLink, "Opening link..."},
		{models.ActionTerminate, "Thank you for chatting with us! Have a great day!"},
	}
	for _, tt := range tests {
		b := NewBuilder("actions")
		start, _ := b.AddNode(models.NodeKindStart, models.Position{})
		msg, _ := b.AddNode(models.NodeKindMessage, models.Position{})
		opt, _ := b.AddOption(msg.ID, "Go")
		act, _ := b.AddActionNode(tt.action, models.Position{})
		b.UpdateNode(act.ID, NodeData{Action: tt.action, ActionValue: "value"})
		b.Connect(start.ID, "", msg.ID)
		b.Connect(msg.ID, opt.ID, act.ID)

		e := NewEngine(b.Graph())
		c := e.NewCursor()
		res := e.Step(&c, "Go")
		if res.Status != StepTransitioned {
			t.Fatalf("%s: expected transition, got %s", tt.action, res.Status)
		}
		if res.Message.Text != tt.want {
			t.Errorf("%s: expected fallback %q, got %q", tt.action, tt.want, res.Message.Text)
		}
		if action, ok := e.ActionFor(res.NodeID); !ok || action.Kind != tt.action {
			t.Errorf("%s: ActionFor did not report the action", tt.action)
		}
	}
}

func TestActionNodeOverrideText(t *testing.T) {
	b := NewBuilder("actions")
	start, _ := b.AddNode(models.NodeKindStart, models.Position{})
	msg, _ := b.AddNode(models.NodeKindMessage, models.Position{})
	opt, _ := b.AddOption(msg.ID, "Chat")
	act, _ := b.AddActionNode(models.ActionMessagingRedirect, models.Position{})
	b.UpdateNode(act.ID, NodeData{Action: models.ActionMessagingRedirect, ActionValue: "+15550001111", Text: "Connecting you to our plant expert"})
	b.Connect(start.ID, "", msg.ID)
	b.Connect(msg.ID, opt.ID, act.ID)

	e := NewEngine(b.Graph())
	c := e.NewCursor()
	res := e.Step(&c, "Chat")
	if res.Message.Text != "Connecting you to our plant expert" {
		t.Errorf("expected override text, got %q", res.Message.Text)
	}
}

func TestActionForNonActionNode(t *testing.T) {
	g, msg1, _ := twoStepGraph(t)
	e := NewEngine(g)
	if _, ok := e.ActionFor(msg1); ok {
		t.Error("message nodes carry no action")
	}
	if _, ok := e.ActionFor("missing"); ok {
		t.Error("missing nodes carry no action")
	}
}
