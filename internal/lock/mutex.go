package lock

import (
	"context"
	"sync"
)

// Mutex is a single-node Locker keyed by string. Entries are reference
// counted and dropped once no goroutine holds or waits on them.
type Mutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewMutex() *Mutex {
	return &Mutex{entries: make(map[string]*entry)}
}

func (m *Mutex) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))

	for _, k := range keys {
		if err := m.lock(ctx, k); err != nil {
			m.unlockAll(held)
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() { once.Do(func() { m.unlockAll(held) }) }, nil
}

func (m *Mutex) lock(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.release(key, e, false)
		return ctx.Err()
	}
}

func (m *Mutex) unlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		m.mu.Lock()
		e := m.entries[keys[i]]
		m.mu.Unlock()
		if e != nil {
			m.release(keys[i], e, true)
		}
	}
}

func (m *Mutex) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
