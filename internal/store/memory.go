package store

import (
	"context"
	"sync"
)

// MemorySubstrate is an in-process substrate. Every [Store] opened on the same MemorySubstrate behaves like a
// browser tab sharing one profile: writes from any of them are broadcast to all watchers.
type MemorySubstrate struct {
	mu     sync.Mutex
	data   map[string][]byte
	subs   map[string]map[chan Change]struct{}
	closed bool
}

// NewMemorySubstrate creates an empty in-memory substrate.
func NewMemorySubstrate() *MemorySubstrate {
	return &MemorySubstrate{
		data: make(map[string][]byte),
		subs: make(map[string]map[chan Change]struct{}),
	}
}

func (m *MemorySubstrate) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemorySubstrate) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := append([]byte{}, value...)
	m.data[key] = v
	m.broadcast(Change{Key: key, Value: v})
	return nil
}

func (m *MemorySubstrate) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[key]; !ok {
		return nil
	}
	delete(m.data, key)
	m.broadcast(Change{Key: key})
	return nil
}

// broadcast must be called with mu held.
func (m *MemorySubstrate) broadcast(c Change) {
	for ch := range m.subs[c.Key] {
		notify(ch, Change{Key: c.Key, Value: cloneBytes(c.Value)})
	}
}

func (m *MemorySubstrate) Watch(ctx context.Context, key string) (<-chan Change, error) {
	ch := make(chan Change, watchBuffer)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, nil
	}
	if m.subs[key] == nil {
		m.subs[key] = make(map[chan Change]struct{})
	}
	m.subs[key][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.unsubscribe(key, ch)
	}()

	return ch, nil
}

func (m *MemorySubstrate) unsubscribe(key string, ch chan Change) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[key][ch]; !ok {
		return
	}
	delete(m.subs[key], ch)
	close(ch)
}

// Close closes every open watch channel.
func (m *MemorySubstrate) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for key, chans := range m.subs {
		for ch := range chans {
			close(ch)
		}
		delete(m.subs, key)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
