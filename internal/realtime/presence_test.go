package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	events []string
	closed string
}

func (f *fakeSender) Send(event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSender) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = reason
}

func (f *fakeSender) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func TestPresence_LastConnectedWins(t *testing.T) {
	p := NewPresence()
	first := &fakeSender{}
	second := &fakeSender{}

	prev := p.Register(1, first)
	assert.Nil(t, prev)
	assert.True(t, p.IsOnline(1))

	prev = p.Register(1, second)
	require.NotNil(t, prev)
	assert.Same(t, first, prev.(*fakeSender))

	cur, ok := p.Get(1)
	require.True(t, ok)
	assert.Same(t, second, cur.(*fakeSender))
}

func TestPresence_StaleUnregisterIsANoOp(t *testing.T) {
	p := NewPresence()
	first := &fakeSender{}
	second := &fakeSender{}

	p.Register(1, first)
	p.Register(1, second)

	// the superseded connection's close arrives late
	assert.False(t, p.Unregister(1, first))
	assert.True(t, p.IsOnline(1), "newer connection must survive the stale close")

	assert.True(t, p.Unregister(1, second))
	assert.False(t, p.IsOnline(1))
}

func TestPresence_EachVisitsSnapshot(t *testing.T) {
	p := NewPresence()
	p.Register(1, &fakeSender{})
	p.Register(2, &fakeSender{})

	seen := map[uint64]bool{}
	p.Each(func(userID uint64, s Sender) {
		seen[userID] = true
		// mutating the registry mid-iteration must not deadlock
		p.Register(3, &fakeSender{})
	})

	assert.True(t, seen[1])
	assert.True(t, seen[2])
	assert.True(t, p.IsOnline(3))
}
