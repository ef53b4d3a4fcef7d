package session

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// MemoryStore keeps the most recently used sessions in process.
type MemoryStore struct {
	cache *lru.Cache
	now   func() time.Time
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &MemoryStore{cache: cache, now: time.Now}, nil
}

func (m *MemoryStore) Create(_ context.Context) (*State, error) {
	st := NewState(m.now())
	m.cache.Add(st.ID, clone(st))
	return st, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v.(*State)), nil
}

func (m *MemoryStore) Save(_ context.Context, st *State) error {
	m.cache.Add(st.ID, clone(st))
	return nil
}

// clone keeps callers from mutating cached state outside Save.
func clone(st *State) *State {
	c := *st
	c.Messages = st.Turns()
	return &c
}
