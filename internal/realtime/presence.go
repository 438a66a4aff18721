package realtime

import "sync"

// Sender is a live connection handle able to push event frames.
type Sender interface {
	Send(event string, data any) error
	Close(reason string)
}

// Presence maps a user to at most one live connection. A new registration
// supersedes the old one (last-connected-wins); removal is keyed on the
// handle so a stale close from a superseded connection never evicts the
// newer registration.
type Presence struct {
	mu    sync.RWMutex
	conns map[uint64]Sender
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[uint64]Sender)}
}

// Register installs the connection for userID and returns the superseded
// handle, if any, for the caller to close.
func (p *Presence) Register(userID uint64, s Sender) (prev Sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev = p.conns[userID]
	p.conns[userID] = s
	return prev
}

// Unregister removes the entry only if s is still the current handle.
// Reports whether the entry was removed.
func (p *Presence) Unregister(userID uint64, s Sender) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.conns[userID]; ok && cur == s {
		delete(p.conns, userID)
		return true
	}
	return false
}

func (p *Presence) IsOnline(userID uint64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.conns[userID]
	return ok
}

func (p *Presence) Get(userID uint64) (Sender, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.conns[userID]
	return s, ok
}

// Each visits every current (userID, conn) pair on a snapshot, so callers
// may Send without holding the registry lock.
func (p *Presence) Each(fn func(userID uint64, s Sender)) {
	p.mu.RLock()
	snapshot := make(map[uint64]Sender, len(p.conns))
	for id, s := range p.conns {
		snapshot[id] = s
	}
	p.mu.RUnlock()

	for id, s := range snapshot {
		fn(id, s)
	}
}
