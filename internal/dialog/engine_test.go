package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/avaldivia/unidesk/internal/domain"
)

func newTestContext() *Context {
	session := domain.NewConversationSession("sess-1", "user-1")
	profile := &domain.UserProfile{}
	return NewContext(context.Background(), session, profile)
}

func TestBeginSuspendsOnPrompt(t *testing.T) {
	e := NewEngine()
	e.Register(&Dialog{
		ID: "ask",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				if input == nil {
					return Text("¿Cómo te llamas?", ""), nil
				}
				return End(input), nil
			},
		},
	})

	c := newTestContext()
	if err := e.Begin(c, "ask"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if len(c.Outbox()) != 1 || c.Outbox()[0].Text != "¿Cómo te llamas?" {
		t.Errorf("Expected prompt message, got %+v", c.Outbox())
	}
	frame := c.Session.Top()
	if frame == nil {
		t.Fatal("Expected frame on stack")
	}
	if frame.StepIndex != 0 {
		t.Errorf("Expected prompt to suspend without advancing, step index = %d", frame.StepIndex)
	}
	if frame.Pending == nil || frame.Pending.Kind != domain.PromptText {
		t.Errorf("Expected pending text prompt, got %+v", frame.Pending)
	}
}

func TestPromptResponseReinvokesSameStep(t *testing.T) {
	e := NewEngine()
	var got string
	e.Register(&Dialog{
		ID: "ask",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				if input == nil {
					return Text("¿Nombre?", ""), nil
				}
				got = input.(string)
				return End(nil), nil
			},
		},
	})

	c := newTestContext()
	if err := e.Begin(c, "ask"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := e.Continue(c, "Ana"); err != nil {
		t.Fatalf("Continue failed: %v", err)
	}

	if got != "Ana" {
		t.Errorf("Expected response delivered to prompting step, got %q", got)
	}
	if c.Session.HasActiveDialog() {
		t.Error("Expected stack to be empty after End with no parent")
	}
}

func TestNextChainsWithinOneTurn(t *testing.T) {
	e := NewEngine()
	var order []int
	e.Register(&Dialog{
		ID: "chain",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				order = append(order, 0)
				return Next("a"), nil
			},
			func(c *Context, input any) (Transition, error) {
				order = append(order, 1)
				if input != "a" {
					t.Errorf("Step 1 expected input %q, got %v", "a", input)
				}
				return Next("b"), nil
			},
			func(c *Context, input any) (Transition, error) {
				order = append(order, 2)
				return End(input), nil
			},
		},
	})

	c := newTestContext()
	if err := e.Begin(c, "chain"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("Expected steps 0,1,2 to run in one turn, got %v", order)
	}
}

func TestContinueWithoutActiveDialog(t *testing.T) {
	e := NewEngine()
	c := newTestContext()

	err := e.Continue(c, "hola")
	if !errors.Is(err, ErrNoActiveDialog) {
		t.Errorf("Expected ErrNoActiveDialog, got %v", err)
	}
}

func TestInvalidInputRetriesWithoutAdvancing(t *testing.T) {
	e := NewEngine()
	e.Register(&Dialog{
		ID: "confirm",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				if input == nil {
					return Confirm("¿Está resuelto?", "Responde sí o no."), nil
				}
				return End(input), nil
			},
		},
	})

	c := newTestContext()
	if err := e.Begin(c, "confirm"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := e.Continue(c, "quizás"); err != nil {
		t.Fatalf("Continue failed: %v", err)
	}

	frame := c.Session.Top()
	if frame == nil {
		t.Fatal("Expected frame to remain on stack after invalid input")
	}
	if frame.Pending == nil || frame.StepIndex != 0 {
		t.Errorf("Expected unchanged suspended frame, got index=%d pending=%+v", frame.StepIndex, frame.Pending)
	}
	msgs := c.Outbox()
	if len(msgs) != 2 || msgs[1].Text != "Responde sí o no." {
		t.Errorf("Expected retry message, got %+v", msgs)
	}

	if err := e.Continue(c, "sí"); err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if c.Session.HasActiveDialog() {
		t.Error("Expected dialog to end after valid confirmation")
	}
}

func TestChildResultDeliveredToParent(t *testing.T) {
	e := NewEngine()
	var parentGot any
	e.Register(&Dialog{
		ID: "parent",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				return BeginChild("child"), nil
			},
			func(c *Context, input any) (Transition, error) {
				parentGot = input
				return End(nil), nil
			},
		},
	})
	e.Register(&Dialog{
		ID: "child",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				return End(42), nil
			},
		},
	})

	c := newTestContext()
	if err := e.Begin(c, "parent"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if parentGot != 42 {
		t.Errorf("Expected child result 42 delivered to parent step, got %v", parentGot)
	}
	if c.Session.HasActiveDialog() {
		t.Error("Expected empty stack after both dialogs ended")
	}
}

func TestEndAllClearsStack(t *testing.T) {
	e := NewEngine()
	e.Register(&Dialog{
		ID: "parent",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				return BeginChild("child"), nil
			},
			func(c *Context, input any) (Transition, error) {
				t.Error("Parent step after EndAll must not run")
				return End(nil), nil
			},
		},
	})
	e.Register(&Dialog{
		ID: "child",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				return EndAll(), nil
			},
		},
	})

	c := newTestContext()
	if err := e.Begin(c, "parent"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if c.Session.HasActiveDialog() {
		t.Errorf("Expected EndAll to clear the stack, got %d frames", len(c.Session.Stack))
	}
}

func TestRunningPastLastStepEndsDialog(t *testing.T) {
	e := NewEngine()
	var parentGot any
	e.Register(&Dialog{
		ID: "parent",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				return BeginChild("tail"), nil
			},
			func(c *Context, input any) (Transition, error) {
				parentGot = input
				return End(nil), nil
			},
		},
	})
	e.Register(&Dialog{
		ID: "tail",
		Steps: []Step{
			func(c *Context, input any) (Transition, error) {
				return Next("done"), nil
			},
		},
	})

	c := newTestContext()
	if err := e.Begin(c, "parent"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if parentGot != "done" {
		t.Errorf("Expected implicit end to forward %q, got %v", "done", parentGot)
	}
}

func TestSuspendedStackSurvivesSerialization(t *testing.T) {
	register := func() *Engine {
		e := NewEngine()
		e.Register(&Dialog{
			ID: "parent",
			Steps: []Step{
				func(c *Context, input any) (Transition, error) {
					return BeginChild("child"), nil
				},
				func(c *Context, input any) (Transition, error) {
					c.Send("resultado: " + input.(string))
					return End(nil), nil
				},
			},
		})
		e.Register(&Dialog{
			ID: "child",
			Steps: []Step{
				func(c *Context, input any) (Transition, error) {
					if input == nil {
						return Text("¿Dato?", ""), nil
					}
					return End(input), nil
				},
			},
		})
		return e
	}

	c := newTestContext()
	if err := register().Begin(c, "parent"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if len(c.Session.Stack) != 2 {
		t.Fatalf("Expected depth-2 stack, got %d", len(c.Session.Stack))
	}

	// Round-trip the session through JSON as the store does between turns.
	data, err := json.Marshal(c.Session)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var restored domain.ConversationSession
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	c2 := NewContext(context.Background(), &restored, &domain.UserProfile{})
	if err := register().Continue(c2, "valor"); err != nil {
		t.Fatalf("Continue after restore failed: %v", err)
	}

	msgs := c2.Outbox()
	if len(msgs) != 1 || msgs[0].Text != "resultado: valor" {
		t.Errorf("Expected restored stack to resume into parent, got %+v", msgs)
	}
	if restored.HasActiveDialog() {
		t.Error("Expected stack empty after resumed flow completed")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()

	e := NewEngine()
	d := &Dialog{ID: "dup"}
	e.Register(d)
	e.Register(d)
}

func TestBeginUnknownDialog(t *testing.T) {
	e := NewEngine()
	c := newTestContext()

	if err := e.Begin(c, "missing"); err == nil {
		t.Error("Expected error for unknown dialog")
	}
}
