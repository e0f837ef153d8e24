package domain

import (
	"context"
	"fmt"
	"time"
)

// State is a lifecycle state of a workflow instance.
type State string

// Action is a requested operation that may trigger a state transition.
type Action string

// Role identifies the kind of user performing an action.
type Role string

const (
	RoleLandlord    Role = "landlord"
	RoleTenant      Role = "tenant"
	RoleAgency      Role = "agency"
	RoleMaintenance Role = "maintenance"
)

// ParseRole validates a role string coming from the transport layer.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleLandlord, RoleTenant, RoleAgency, RoleMaintenance:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the identity performing a workflow action.
type Actor struct {
	ID   string
	Role Role
}

// HistoryEntry records one applied transition.
type HistoryEntry struct {
	State State
	Actor Actor
	At    time.Time
	Note  string
}

// Instance is the workflow-bearing core embedded by every lifecycle entity.
// History is append-only and State always equals the last entry's state.
// Version mirrors the history length and is the compare-and-swap token the
// persistence layer uses to serialize concurrent transitions.
type Instance struct {
	ID        string
	State     State
	History   []HistoryEntry
	CreatedAt time.Time
	Version   int
}

// NewInstance creates an instance in the given initial state with a single
// history entry attributed to the creating actor.
func NewInstance(id string, initial State, actor Actor, now time.Time) Instance {
	return Instance{
		ID:        id,
		State:     initial,
		History:   []HistoryEntry{{State: initial, Actor: actor, At: now}},
		CreatedAt: now,
		Version:   1,
	}
}

// advanced returns a copy of the instance moved to dst with a new history
// entry appended. The receiver is never mutated; callers holding the old
// value keep a consistent snapshot.
func (i Instance) advanced(dst State, actor Actor, now time.Time, note string) Instance {
	history := make([]HistoryEntry, len(i.History)+1)
	copy(history, i.History)
	history[len(i.History)] = HistoryEntry{State: dst, Actor: actor, At: now, Note: note}

	next := i
	next.History = history
	next.State = dst
	next.Version = len(history)
	return next
}

// GuardInput is what a guard predicate gets to inspect: the full entity the
// transition is being applied to, the action payload, the acting identity,
// and the caller-supplied clock reading. Guards never read the wall clock
// themselves.
type GuardInput struct {
	Subject any
	Payload any
	Actor   Actor
	Now     time.Time
}

// Guard is a predicate that must hold, beyond action and role validity, for
// a transition to be applied. A nil return allows the transition; a
// *GuardError return rejects it with a machine-readable reason.
type Guard func(in GuardInput) error

// Rule is one edge of a workflow's transition table.
type Rule struct {
	Action Action
	Src    State
	Dst    State
	Roles  []Role
	Guard  Guard
}

func (r Rule) permits(role Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Definition is a complete workflow: a named finite state set with its
// transition table and terminal states.
type Definition struct {
	Name     string
	Initial  State
	Terminal []State
	Rules    []Rule
}

// mustDefinition validates a definition at package init time. A rule leaving
// a terminal state is a programmer error, not a runtime condition.
func mustDefinition(d Definition) Definition {
	for _, r := range d.Rules {
		if d.IsTerminal(r.Src) {
			panic(fmt.Sprintf("workflow %q: rule %q leaves terminal state %q", d.Name, r.Action, r.Src))
		}
	}
	return d
}

// IsTerminal reports whether no transition may ever leave the given state.
func (d Definition) IsTerminal(s State) bool {
	for _, t := range d.Terminal {
		if t == s {
			return true
		}
	}
	return false
}

// RuleFor returns the transition rule for the given source state and action.
func (d Definition) RuleFor(src State, action Action) (Rule, bool) {
	for _, r := range d.Rules {
		if r.Src == src && r.Action == action {
			return r, true
		}
	}
	return Rule{}, false
}

// AttemptRequest describes one requested transition.
type AttemptRequest struct {
	Action  Action
	Actor   Actor
	Now     time.Time
	Note    string
	Payload any
}

// Engine validates and applies workflow transitions. It performs no I/O and
// is pure given (instance, action, actor, now); resolution of the transition
// table is delegated to the TransitionResolver port.
type Engine struct {
	resolver TransitionResolver
}

// NewEngine creates an engine backed by the given resolver.
func NewEngine(resolver TransitionResolver) *Engine {
	return &Engine{resolver: resolver}
}

// Attempt validates the request against the definition in order: terminal
// state, action defined for the current state, actor role, then guard. On
// success it returns a new instance with the transition appended to history;
// the input instance is never mutated.
func (e *Engine) Attempt(ctx context.Context, def Definition, subject any, inst Instance, req AttemptRequest) (Instance, error) {
	if def.IsTerminal(inst.State) {
		return Instance{}, &TerminalStateError{Workflow: def.Name, State: inst.State, Action: req.Action}
	}

	dst, err := e.resolver.Resolve(ctx, def, inst.State, req.Action)
	if err != nil {
		return Instance{}, err
	}

	rule, ok := def.RuleFor(inst.State, req.Action)
	if !ok {
		return Instance{}, &InvalidActionError{Workflow: def.Name, Action: req.Action, State: inst.State}
	}

	if !rule.permits(req.Actor.Role) {
		return Instance{}, &ForbiddenError{Workflow: def.Name, Action: req.Action, Role: req.Actor.Role}
	}

	if rule.Guard != nil {
		if err := rule.Guard(GuardInput{Subject: subject, Payload: req.Payload, Actor: req.Actor, Now: req.Now}); err != nil {
			return Instance{}, err
		}
	}

	return inst.advanced(dst, req.Actor, req.Now, req.Note), nil
}
