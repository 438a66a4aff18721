package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() (*Hub, *Presence) {
	p := NewPresence()
	return NewHub(p), p
}

func TestHub_SendToUser(t *testing.T) {
	h, p := newTestHub()
	conn := &fakeSender{}
	p.Register(1, conn)

	assert.True(t, h.SendToUser(1, "new_message", nil))
	assert.False(t, h.SendToUser(2, "new_message", nil), "offline user: no delivery attempted")

	require.Equal(t, []string{"new_message"}, conn.Events())
}

func TestHub_SendToChatReachesConnectedMembersOnly(t *testing.T) {
	h, p := newTestHub()
	model := &fakeSender{}
	client := &fakeSender{}
	outsider := &fakeSender{}

	p.Register(10, model)
	p.Register(20, client)
	p.Register(30, outsider)

	h.JoinChat("chat-1", 10)
	h.JoinChat("chat-1", 20)
	// user 40 is a member but offline
	h.JoinChat("chat-1", 40)

	h.SendToChat("chat-1", "chat_blocked", nil)

	assert.Equal(t, []string{"chat_blocked"}, model.Events())
	assert.Equal(t, []string{"chat_blocked"}, client.Events())
	assert.Empty(t, outsider.Events())
}

func TestHub_LeaveChatAndLeaveAll(t *testing.T) {
	h, p := newTestHub()
	conn := &fakeSender{}
	p.Register(1, conn)

	h.JoinChat("chat-1", 1)
	h.JoinChat("chat-2", 1)

	h.LeaveChat("chat-1", 1)
	h.SendToChat("chat-1", "new_message", nil)
	assert.Empty(t, conn.Events())

	h.SendToChat("chat-2", "new_message", nil)
	assert.Equal(t, []string{"new_message"}, conn.Events())

	h.LeaveAll(1)
	h.SendToChat("chat-2", "new_message", nil)
	assert.Equal(t, []string{"new_message"}, conn.Events(), "no delivery after LeaveAll")
}

func TestHub_BroadcastUserStatusExcludesSelf(t *testing.T) {
	h, p := newTestHub()
	self := &fakeSender{}
	other := &fakeSender{}

	p.Register(1, self)
	p.Register(2, other)

	h.BroadcastUserStatus(1, true)

	assert.Empty(t, self.Events())
	assert.Equal(t, []string{"user_status"}, other.Events())
}

func TestFanout_LivePushSkipsQueue(t *testing.T) {
	h, p := newTestHub()
	conn := &fakeSender{}
	p.Register(1, conn)

	// nil queue: offline durable events are dropped without panicking
	f := NewFanout(h, nil)

	f.SendToUser(1, "new_message", map[string]any{"chat_id": "chat-1"})
	assert.Equal(t, []string{"new_message"}, conn.Events())

	f.SendToUser(99, "new_message", map[string]any{"chat_id": "chat-1"})
	f.SendToUser(99, "user_status", nil)
}
