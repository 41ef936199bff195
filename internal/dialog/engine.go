// Package dialog implements a stack-based, resumable dialog engine.
//
// A dialog is a named, ordered sequence of steps. At any moment a
// conversation owns a stack of dialog frames; only the top frame may be
// awaiting user input. A step receives the current input and returns a single
// transition: suspend on a prompt, advance to the next step, push a child
// dialog, or end and hand a result to the caller below it on the stack.
// Chains of next/end/begin transitions run synchronously within one turn
// until a prompt suspends the stack or the stack empties.
//
// The engine itself is stateless; all mutable state lives in the
// ConversationSession and UserProfile bound to the turn's Context.
package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/avaldivia/unidesk/internal/domain"
)

// ErrNoActiveDialog is returned by Continue when the conversation has no
// dialog in progress. Callers treat it as a resettable condition.
var ErrNoActiveDialog = errors.New("no active dialog")

type transitionKind int

const (
	transitionPrompt transitionKind = iota
	transitionNext
	transitionBeginChild
	transitionEnd
	transitionEndAll
)

// Transition is the single outcome of a step invocation.
type Transition struct {
	kind   transitionKind
	value  any
	prompt *domain.PendingPrompt
	child  string
}

// Next advances to the following step and invokes it immediately with value.
func Next(value any) Transition {
	return Transition{kind: transitionNext, value: value}
}

// BeginChild suspends the current dialog one step further along and pushes a
// child dialog. The child's terminal result is delivered to the step the
// parent now rests on.
func BeginChild(dialogID string) Transition {
	return Transition{kind: transitionBeginChild, child: dialogID}
}

// End pops the current dialog and delivers result to the parent frame's
// current step. If no parent remains, the turn ends.
func End(result any) Transition {
	return Transition{kind: transitionEnd, value: result}
}

// EndAll aborts the entire flow, clearing every frame on the stack.
func EndAll() Transition {
	return Transition{kind: transitionEndAll}
}

// Step is one unit of a dialog. A prompting step is re-invoked with the
// validated response once the user replies, so it must distinguish the entry
// phase (input == nil) from the response phase.
type Step func(c *Context, input any) (Transition, error)

// Dialog is a named ordered step sequence. Running past the last step is an
// implicit End carrying the current input forward.
type Dialog struct {
	ID    string
	Steps []Step
}

// Engine dispatches turns against registered dialogs. Safe for concurrent
// use once all dialogs are registered.
type Engine struct {
	dialogs map[string]*Dialog
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{dialogs: make(map[string]*Dialog)}
}

// Register adds a dialog. Registering a duplicate ID panics: dialog wiring is
// startup-time configuration and a collision is a programming error.
func (e *Engine) Register(d *Dialog) {
	if _, exists := e.dialogs[d.ID]; exists {
		panic(fmt.Sprintf("dialog %q registered twice", d.ID))
	}
	e.dialogs[d.ID] = d
}

// Context binds one turn's session, profile and outbox together. Steps send
// outbound messages through it and read/mutate the profile directly.
type Context struct {
	Ctx     context.Context
	Session *domain.ConversationSession
	Profile *domain.UserProfile

	outbox []domain.Message
}

// NewContext creates the per-turn context for a session.
func NewContext(ctx context.Context, session *domain.ConversationSession, profile *domain.UserProfile) *Context {
	return &Context{Ctx: ctx, Session: session, Profile: profile}
}

// Send queues a plain text outbound message.
func (c *Context) Send(text string) {
	c.outbox = append(c.outbox, domain.TextMessage(text))
}

// SendMessage queues an outbound message.
func (c *Context) SendMessage(m domain.Message) {
	c.outbox = append(c.outbox, m)
}

// Outbox returns the ordered outbound messages produced so far this turn.
func (c *Context) Outbox() []domain.Message {
	return c.outbox
}

// Begin pushes a new frame for dialogID and immediately executes its first
// step with nil input.
func (e *Engine) Begin(c *Context, dialogID string) error {
	if _, ok := e.dialogs[dialogID]; !ok {
		return fmt.Errorf("begin dialog: unknown dialog %q", dialogID)
	}
	c.Session.Push(domain.DialogFrame{DialogID: dialogID})
	return e.run(c, nil)
}

// Continue resumes the top frame with the turn's raw input. If the frame has
// a pending prompt, the input is validated against it first; invalid input
// re-sends the retry message and leaves the frame unchanged.
func (e *Engine) Continue(c *Context, rawInput string) error {
	frame := c.Session.Top()
	if frame == nil {
		return ErrNoActiveDialog
	}

	var input any
	if frame.Pending != nil {
		value, ok := ValidateResponse(frame.Pending, rawInput)
		if !ok {
			c.SendMessage(retryMessage(frame.Pending))
			return nil
		}
		frame.Pending = nil
		input = value
	}

	return e.run(c, input)
}

// run executes steps synchronously until a prompt suspends the stack or the
// stack empties.
func (e *Engine) run(c *Context, input any) error {
	for {
		frame := c.Session.Top()
		if frame == nil {
			return nil
		}

		d, ok := e.dialogs[frame.DialogID]
		if !ok {
			return fmt.Errorf("run dialog: unknown dialog %q on stack", frame.DialogID)
		}

		if frame.StepIndex >= len(d.Steps) {
			// Ran off the end: the dialog ends with the current input
			// as its result.
			c.Session.Pop()
			continue
		}

		t, err := d.Steps[frame.StepIndex](c, input)
		if err != nil {
			return fmt.Errorf("dialog %q step %d: %w", frame.DialogID, frame.StepIndex, err)
		}

		switch t.kind {
		case transitionPrompt:
			frame.Pending = t.prompt
			c.SendMessage(promptMessage(t.prompt))
			return nil
		case transitionNext:
			frame.StepIndex++
			input = t.value
		case transitionBeginChild:
			if _, ok := e.dialogs[t.child]; !ok {
				return fmt.Errorf("dialog %q step %d: unknown child dialog %q", frame.DialogID, frame.StepIndex, t.child)
			}
			frame.StepIndex++
			c.Session.Push(domain.DialogFrame{DialogID: t.child})
			input = nil
		case transitionEnd:
			c.Session.Pop()
			input = t.value
		case transitionEndAll:
			c.Session.ClearStack()
			return nil
		}
	}
}
