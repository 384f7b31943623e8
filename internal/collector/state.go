package collector

import "fmt"

// State is a phase of a crawl run.
type State int

const (
	StateIdle State = iota
	StateSeeding
	StateExpanding
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSeeding:
		return "SEEDING"
	case StateExpanding:
		return "EXPANDING"
	case StateDraining:
		return "DRAINING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// validTransitions lists the only forward move out of each state.
var validTransitions = map[State]State{
	StateIdle:      StateSeeding,
	StateSeeding:   StateExpanding,
	StateExpanding: StateDraining,
	StateDraining:  StateDone,
}

// TransitionCallback is invoked after every state change.
type TransitionCallback func(from, to State)

type stateMachine struct {
	current   State
	callbacks []TransitionCallback
}

func (sm *stateMachine) Current() State { return sm.current }

func (sm *stateMachine) OnTransition(cb TransitionCallback) {
	sm.callbacks = append(sm.callbacks, cb)
}

func (sm *stateMachine) TransitionTo(to State) error {
	if next, ok := validTransitions[sm.current]; !ok || next != to {
		return fmt.Errorf("invalid state transition %s -> %s", sm.current, to)
	}
	from := sm.current
	sm.current = to
	for _, cb := range sm.callbacks {
		cb(from, to)
	}
	return nil
}
