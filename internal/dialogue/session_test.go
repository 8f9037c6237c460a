package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerCreatesAndReusesSessions(t *testing.T) {
	m, _, _ := newTestMachine(t)
	mgr := NewSessionManager(m)

	id, resp := mgr.ProcessMessage(context.Background(), "", "My name is John Smith")
	require.NotEmpty(t, id)
	assert.Contains(t, resp, "✓ First Name: John")
	assert.Equal(t, 1, mgr.ActiveSessions())

	// Same session continues where it left off.
	id2, resp := mgr.ProcessMessage(context.Background(), id, "05/15/1985")
	assert.Equal(t, id, id2)
	assert.Contains(t, resp, "✓ Date Of Birth: 1985-05-15")
	assert.Equal(t, 1, mgr.ActiveSessions())
}

func TestSessionManagerGreeting(t *testing.T) {
	m, _, _ := newTestMachine(t)
	mgr := NewSessionManager(m)

	assert.Contains(t, mgr.Greeting(), "Welcome to HealthFirst Medical Center")
	// Fetching the greeting is not a conversational turn.
	assert.Equal(t, 0, mgr.ActiveSessions())
}

func TestSessionManagerUnknownIDStartsFresh(t *testing.T) {
	m, _, _ := newTestMachine(t)
	mgr := NewSessionManager(m)

	id, _ := mgr.ProcessMessage(context.Background(), "no-such-session", "hi")
	assert.NotEqual(t, "no-such-session", id)
	assert.Equal(t, 1, mgr.ActiveSessions())
}

func TestSessionManagerReset(t *testing.T) {
	m, _, _ := newTestMachine(t)
	mgr := NewSessionManager(m)

	id, _ := mgr.ProcessMessage(context.Background(), "", "hello")
	mgr.Reset(id)
	assert.Equal(t, 0, mgr.ActiveSessions())

	newID, _ := mgr.ProcessMessage(context.Background(), id, "hello again")
	assert.NotEqual(t, id, newID)
	assert.Equal(t, 1, mgr.ActiveSessions())
}
