package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub[int]()
	a := hub.Subscribe(4)
	b := hub.Subscribe(4)

	hub.Broadcast(1)
	hub.Broadcast(2)

	assert.Equal(t, 1, <-a.C())
	assert.Equal(t, 2, <-a.C())
	assert.Equal(t, 1, <-b.C())
	assert.Equal(t, 2, <-b.C())
}

func TestHubSlowSubscriberDrops(t *testing.T) {
	hub := NewHub[int]()
	sub := hub.Subscribe(1)

	hub.Broadcast(1)
	hub.Broadcast(2) // dropped, buffer full

	assert.Equal(t, 1, <-sub.C())
	select {
	case v := <-sub.C():
		t.Fatalf("unexpected value %d", v)
	default:
	}
}

func TestHubUnsubscribeCloses(t *testing.T) {
	hub := NewHub[int]()
	sub := hub.Subscribe(1)
	hub.Unsubscribe(sub)

	_, ok := <-sub.C()
	require.False(t, ok)

	// Double unsubscribe must not panic.
	hub.Unsubscribe(sub)

	hub.Broadcast(3)
}
