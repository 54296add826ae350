package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionNormalPath(t *testing.T) {
	s, err := Transition(StateIdle, EventMessageAccepted)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingReply, s)

	s, err = Transition(s, EventReplyProduced)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s)
}

func TestTransitionErrorPath(t *testing.T) {
	s, err := Transition(StateAwaitingReply, EventReplyFailed)
	require.NoError(t, err)
	assert.Equal(t, StateErrored, s)

	s, err = Transition(s, EventErrorNotified)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s)
}

func TestTransitionRejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		state State
		event StateEvent
	}{
		{StateIdle, EventReplyProduced},
		{StateIdle, EventReplyFailed},
		{StateIdle, EventErrorNotified},
		{StateAwaitingReply, EventMessageAccepted},
		{StateAwaitingReply, EventErrorNotified},
		{StateErrored, EventMessageAccepted},
		{StateErrored, EventReplyProduced},
	}

	for _, tt := range tests {
		got, err := Transition(tt.state, tt.event)
		assert.Error(t, err, "%s + %s should be rejected", tt.state, tt.event)
		assert.Equal(t, tt.state, got, "state must not advance on invalid event")
	}
}
