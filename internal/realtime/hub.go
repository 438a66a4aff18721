package realtime

import "sync"

// Hub routes events to connected users and to chat rooms. Room membership
// is keyed by user id, so a superseded connection re-joining the same rooms
// leaves membership unchanged.
type Hub struct {
	presence *Presence

	mu    sync.RWMutex
	rooms map[string]map[uint64]struct{} // chat id -> member user ids
}

func NewHub(p *Presence) *Hub {
	return &Hub{
		presence: p,
		rooms:    make(map[string]map[uint64]struct{}),
	}
}

func (h *Hub) Presence() *Presence { return h.presence }

func (h *Hub) JoinChat(chatID string, userID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[uint64]struct{})
		h.rooms[chatID] = room
	}
	room[userID] = struct{}{}
}

func (h *Hub) LeaveChat(chatID string, userID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[chatID]; ok {
		delete(room, userID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// LeaveAll drops the user from every room. Callers must only invoke it when
// the closing connection was still the current registration, otherwise a
// stale close would strip a newer connection's memberships.
func (h *Hub) LeaveAll(userID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for chatID, room := range h.rooms {
		delete(room, userID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// SendToUser pushes one event to the user's current connection. Reports
// whether a delivery was attempted; offline users are silently skipped.
func (h *Hub) SendToUser(userID uint64, event string, data any) bool {
	s, ok := h.presence.Get(userID)
	if !ok {
		return false
	}
	_ = s.Send(event, data) // best effort, at-most-once
	return true
}

// SendToChat pushes one event to every connected member of the room.
func (h *Hub) SendToChat(chatID string, event string, data any) {
	h.mu.RLock()
	room := h.rooms[chatID]
	members := make([]uint64, 0, len(room))
	for id := range room {
		members = append(members, id)
	}
	h.mu.RUnlock()

	for _, id := range members {
		h.SendToUser(id, event, data)
	}
}

// BroadcastUserStatus tells every other connected user about a presence
// change. Advisory only, never authoritative for access control.
func (h *Hub) BroadcastUserStatus(userID uint64, online bool) {
	payload := map[string]any{"user_id": userID, "online": online}
	h.presence.Each(func(id uint64, s Sender) {
		if id == userID {
			return
		}
		_ = s.Send("user_status", payload)
	})
}
