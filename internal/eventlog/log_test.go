package eventlog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := NewLog(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendAndRecent(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, TypeResolution, "alice", map[string]string{"name": "black bean", "source": "usda"}))
	require.NoError(t, l.Append(ctx, TypeCartPush, "alice", map[string]int{"items": 3}))
	require.NoError(t, l.Append(ctx, TypeResolution, "bob", map[string]string{"name": "milk"}))

	events, err := l.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, TypeCartPush, events[0].Type)
	assert.Equal(t, TypeResolution, events[1].Type)
	assert.Greater(t, events[0].ID, events[1].ID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(events[1].Payload, &payload))
	assert.Equal(t, "usda", payload["source"])
}

func TestRecentLimit(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(ctx, TypeResolution, "alice", nil))
	}
	events, err := l.Recent(ctx, "alice", 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestSubscribe(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	ch, unsub := l.Subscribe(4)
	defer unsub()

	require.NoError(t, l.Append(ctx, TypeResolution, "alice", map[string]string{"name": "oats"}))

	select {
	case ev := <-ch:
		assert.Equal(t, TypeResolution, ev.Type)
		assert.Equal(t, "alice", ev.User)
	case <-time.After(time.Second):
		t.Fatal("expected event on subscription channel")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	l := newTestLog(t)

	ch, unsub := l.Subscribe(1)
	unsub()

	_, open := <-ch
	assert.False(t, open)

	// Appends after unsubscribe must not panic.
	require.NoError(t, l.Append(context.Background(), TypeResolution, "alice", nil))
}

func TestSlowSubscriberDoesNotBlockAppend(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	_, unsub := l.Subscribe(1)
	defer unsub()

	// Buffer of one: second and third appends overflow and are dropped.
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Append(ctx, TypeResolution, "alice", nil))
	}
}
