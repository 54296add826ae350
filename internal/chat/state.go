package chat

import "fmt"

// State is the per-session processing state. There is no terminal state;
// sessions age out via the store's TTL.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaiting_reply"
	StateErrored       State = "errored"
)

// StateEvent drives session state transitions.
type StateEvent string

const (
	EventMessageAccepted StateEvent = "message_accepted"
	EventReplyProduced   StateEvent = "reply_produced"
	EventReplyFailed     StateEvent = "reply_failed"
	EventErrorNotified   StateEvent = "error_notified"
)

// Transition is the pure state function for the session machine:
//
//	Idle -> AwaitingReply -> Idle                (normal path)
//	Idle -> AwaitingReply -> Errored -> Idle     (inference failure)
//
// Side effects (appending messages, metrics) live in the Service; this
// function only validates and advances state.
func Transition(s State, ev StateEvent) (State, error) {
	switch s {
	case StateIdle:
		if ev == EventMessageAccepted {
			return StateAwaitingReply, nil
		}
	case StateAwaitingReply:
		switch ev {
		case EventReplyProduced:
			return StateIdle, nil
		case EventReplyFailed:
			return StateErrored, nil
		}
	case StateErrored:
		if ev == EventErrorNotified {
			return StateIdle, nil
		}
	}
	return s, fmt.Errorf("chat: invalid transition %s -> %s", s, ev)
}
