// Package session holds the per-visitor conversation and its save latch.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

var ErrNotFound = errors.New("session not found")

// State is everything the service keeps about one visitor's conversation.
type State struct {
	ID        string      `json:"id"`
	Messages  []lead.Turn `json:"messages"`
	LeadSaved bool        `json:"lead_saved"`
	LeadID    string      `json:"lead_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewState(now time.Time) *State {
	return &State{
		ID:        uuid.New().String(),
		Messages:  []lead.Turn{},
		CreatedAt: now.UTC(),
	}
}

// Append adds a turn to the end of the conversation.
func (s *State) Append(role lead.Role, content string) {
	s.Messages = append(s.Messages, lead.Turn{Role: role, Content: content})
}

func (s *State) Len() int { return len(s.Messages) }

// MarkSaved sets the latch. It never resets.
func (s *State) MarkSaved(leadID string) {
	s.LeadSaved = true
	s.LeadID = leadID
}

// CanSave reports whether a manual save may be offered.
func (s *State) CanSave() bool {
	return len(s.Messages) > 0 && !s.LeadSaved
}

// Turns returns a copy of the conversation.
func (s *State) Turns() []lead.Turn {
	out := make([]lead.Turn, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Store persists session state between interactions.
type Store interface {
	Create(ctx context.Context) (*State, error)
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
}

// Locker serializes interactions on the same session.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock blocks until id is free and returns the matching unlock func.
func (l *Locker) Lock(id string) func() {
	l.mu.Lock()
	k, ok := l.locks[id]
	if !ok {
		k = &keyLock{}
		l.locks[id] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()
	return func() {
		k.mu.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
