package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitOnline(t *testing.T, h *Hub, userID string) {
	t.Helper()
	require.Eventually(t, func() bool { return h.IsOnline(userID) }, time.Second, 5*time.Millisecond)
}

func waitOffline(t *testing.T, h *Hub, userID string) {
	t.Helper()
	require.Eventually(t, func() bool { return !h.IsOnline(userID) }, time.Second, 5*time.Millisecond)
}

func drain(c *Client) []Event {
	events := []Event{}
	for {
		select {
		case ev := <-c.egress:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestRegisterMakesUserOnline(t *testing.T) {
	h := NewHub()
	defer h.Stop()

	c := NewClient("u1", nil)
	h.Register(c)
	waitOnline(t, h, "u1")

	assert.Equal(t, []string{"u1"}, h.OnlineUserIDs())
}

func TestUnregisterMakesUserOffline(t *testing.T) {
	h := NewHub()
	defer h.Stop()

	c := NewClient("u1", nil)
	h.Register(c)
	waitOnline(t, h, "u1")

	h.Unregister(c)
	waitOffline(t, h, "u1")
	assert.Empty(t, h.OnlineUserIDs())
}

func TestConnectBroadcastsOnlineUsers(t *testing.T) {
	h := NewHub()
	defer h.Stop()

	c1 := NewClient("u1", nil)
	h.Register(c1)
	waitOnline(t, h, "u1")

	c2 := NewClient("u2", nil)
	h.Register(c2)
	waitOnline(t, h, "u2")

	events := drain(c1)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventOnlineUsers, last.Type)
	assert.Equal(t, []string{"u1", "u2"}, last.Data)
}

func TestLastWriteWinsOnReconnect(t *testing.T) {
	h := NewHub()
	defer h.Stop()

	old := NewClient("u1", nil)
	h.Register(old)
	waitOnline(t, h, "u1")

	replacement := NewClient("u1", nil)
	h.Register(replacement)
	require.Eventually(t, func() bool {
		return h.PushToUser("u1", Event{Type: "probe"}) && len(drain(replacement)) > 0
	}, time.Second, 5*time.Millisecond)

	assert.False(t, old.Send(Event{Type: "probe"}), "replaced client is closed")

	// the old client unregistering must not knock the new one offline
	h.Unregister(old)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, h.IsOnline("u1"))
}

func TestPushToUser(t *testing.T) {
	h := NewHub()
	defer h.Stop()

	c := NewClient("u1", nil)
	h.Register(c)
	waitOnline(t, h, "u1")
	drain(c)

	ok := h.PushToUser("u1", Event{Type: EventNewNotification, Data: "hello"})
	assert.True(t, ok)

	events := drain(c)
	require.Len(t, events, 1)
	assert.Equal(t, EventNewNotification, events[0].Type)

	assert.False(t, h.PushToUser("ghost", Event{Type: EventNewNotification}), "offline push reports a miss")
}

func TestStopClosesEverything(t *testing.T) {
	h := NewHub()

	c := NewClient("u1", nil)
	h.Register(c)
	waitOnline(t, h, "u1")

	h.Stop()
	assert.False(t, h.IsOnline("u1"))
	assert.False(t, c.Send(Event{Type: "probe"}))
}
