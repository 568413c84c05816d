package session

// State is a position in the conversation state machine.
type State string

const (
	StateIdle            State = "idle"
	StateSubmitting      State = "submitting"
	StateStreaming       State = "streaming"
	StateCompleted       State = "completed"
	StateErrored         State = "errored"
	StateCancelled       State = "cancelled"
	StateChatActive      State = "chat_active"
	StateDecisionPending State = "decision_pending"
	StateFinalizing      State = "finalizing"
)

// Terminal reports whether s ends a primary operation.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateErrored, StateCancelled:
		return true
	}
	return false
}

// InFlight reports whether a primary operation is running.
func (s State) InFlight() bool {
	switch s {
	case StateSubmitting, StateStreaming, StateFinalizing:
		return true
	}
	return false
}

// CanSubmit reports whether a new primary operation may start from s.
func (s State) CanSubmit() bool {
	return s == StateIdle || s.Terminal()
}

func (s State) String() string { return string(s) }

// transitions lists the edges of the state machine. Reset to idle is allowed
// from every state and is not listed. In-flight states may move back to
// submitting when a new primary operation preempts the running one.
var transitions = map[State][]State{
	StateIdle:            {StateSubmitting},
	StateSubmitting:      {StateStreaming, StateCompleted, StateErrored, StateCancelled},
	StateStreaming:       {StateSubmitting, StateCompleted, StateErrored, StateCancelled},
	StateCompleted:       {StateSubmitting, StateChatActive, StateDecisionPending, StateErrored},
	StateErrored:         {StateSubmitting, StateDecisionPending},
	StateCancelled:       {StateSubmitting, StateDecisionPending},
	StateChatActive:      {StateCompleted},
	StateDecisionPending: {StateFinalizing, StateErrored},
	StateFinalizing:      {StateSubmitting, StateStreaming, StateCompleted, StateErrored, StateCancelled},
}

// CanTransition reports whether the machine may move from one state to another.
func CanTransition(from, to State) bool {
	if to == StateIdle {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
