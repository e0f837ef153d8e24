package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/zithekhosa/propflow/internal/domain"
)

// Compile-time check: Resolver implements domain.TransitionResolver.
var _ domain.TransitionResolver = (*Resolver)(nil)

// buildEvents converts a workflow definition's rules into looplab/fsm
// EventDesc format. Rules with the same action+destination are consolidated
// into a single EventDesc with multiple source states (e.g. cancel from any
// pre-terminal maintenance state).
func buildEvents(def domain.Definition) []loopfsm.EventDesc {
	type key struct {
		action string
		dst    string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, r := range def.Rules {
		k := key{action: string(r.Action), dst: string(r.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(r.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.action,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Resolver implements domain.TransitionResolver using looplab/fsm.
// It creates a short-lived FSM instance per Resolve call, initialized with
// the instance's current state. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally); the transition tables
// are small enough that rebuilding per call costs nothing measurable.
type Resolver struct{}

// New creates a new FSM-backed transition resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve checks whether the action is defined for the current state and
// returns the destination. Self-loop rules (destination equals source, like
// submit_bid) surface from looplab as NoTransitionError and resolve to the
// current state. An undefined action resolves to *domain.InvalidActionError.
func (r *Resolver) Resolve(ctx context.Context, def domain.Definition, current domain.State, action domain.Action) (domain.State, error) {
	machine := loopfsm.NewFSM(string(current), buildEvents(def), nil)

	if err := machine.Event(ctx, string(action)); err != nil {
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return current, nil
		}
		var invalidEvent loopfsm.InvalidEventError
		if errors.As(err, &invalidEvent) {
			return "", &domain.InvalidActionError{
				Workflow: def.Name,
				Action:   action,
				State:    current,
			}
		}
		return "", err
	}

	return domain.State(machine.Current()), nil
}
