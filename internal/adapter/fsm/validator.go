package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Validate call, initialized
// with the record's current status. This is necessary because
// looplab/fsm is stateful (it tracks the current state internally).
type Validator struct {
	registry *domain.Registry
	events   map[domain.Domain][]loopfsm.EventDesc
}

// New builds an FSM-backed validator over the registry's transition
// tables. The tables have no event vocabulary of their own, so each
// destination status becomes one event whose sources are every status
// that can reach it in one hop.
func New(registry *domain.Registry) *Validator {
	events := make(map[domain.Domain][]loopfsm.EventDesc)

	for _, d := range registry.Domains() {
		grouped := make(map[domain.Status][]string)
		order := make([]domain.Status, 0)

		for _, from := range registry.Statuses(d) {
			for _, to := range registry.ValidTransitions(d, from) {
				if _, exists := grouped[to]; !exists {
					order = append(order, to)
				}
				grouped[to] = append(grouped[to], string(from))
			}
		}

		descs := make([]loopfsm.EventDesc, 0, len(order))
		for _, to := range order {
			descs = append(descs, loopfsm.EventDesc{
				Name: string(to),
				Src:  grouped[to],
				Dst:  string(to),
			})
		}
		events[d] = descs
	}

	return &Validator{registry: registry, events: events}
}

// Validate checks whether a record can move from current to next and
// returns a domain.IllegalTransitionError carrying the legal
// alternatives when the pair is not in the table. An explicit
// self-transition would surface as NoTransitionError; none are listed,
// so equal current/next is always rejected.
func (v *Validator) Validate(ctx context.Context, d domain.Domain, current, next domain.Status) error {
	machine := loopfsm.NewFSM(string(current), v.events[d], nil)

	if err := machine.Event(ctx, string(next)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return &domain.IllegalTransitionError{
				Domain:  d,
				From:    current,
				To:      next,
				Allowed: v.registry.ValidTransitions(d, current),
			}
		}
		return err
	}

	return nil
}
