package intake

import (
	"context"
	"sync"
	"time"
)

// Store keeps at most one pending submission per owner.
type Store interface {
	// Put replaces the owner's entry and returns the one it replaced, if any.
	Put(ctx context.Context, owner OwnerID, sub Submission) (*Submission, error)
	Get(ctx context.Context, owner OwnerID) (*Submission, error)
	// TakeAndRemove returns the owner's entry and deletes it in one step.
	// A nil submission means there was nothing pending.
	TakeAndRemove(ctx context.Context, owner OwnerID) (*Submission, error)
	Remove(ctx context.Context, owner OwnerID) error
}

// Sweeper is implemented by stores that need explicit expiry.
type Sweeper interface {
	Sweep(now time.Time) []Submission
}

var (
	_ Store   = &MemoryStore{}
	_ Sweeper = &MemoryStore{}
)

// MemoryStore is a process-local Store. Entries older than ttl are invisible
// to Get and TakeAndRemove and are dropped by Sweep; a ttl of zero keeps
// entries until they are consumed.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[OwnerID]Submission
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[OwnerID]Submission),
	}
}

func (s *MemoryStore) Put(_ context.Context, owner OwnerID, sub Submission) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.entries[owner]
	s.entries[owner] = sub
	if !ok {
		return nil, nil
	}
	return &prev, nil
}

func (s *MemoryStore) Get(_ context.Context, owner OwnerID) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.entries[owner]
	if !ok || sub.expired(s.now(), s.ttl) {
		return nil, nil
	}
	return &sub, nil
}

func (s *MemoryStore) TakeAndRemove(_ context.Context, owner OwnerID) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.entries[owner]
	if !ok || sub.expired(s.now(), s.ttl) {
		// expired entries stay for Sweep so their staged files get cleaned
		return nil, nil
	}
	delete(s.entries, owner)
	return &sub, nil
}

func (s *MemoryStore) Remove(_ context.Context, owner OwnerID) error {
	s.mu.Lock()
	delete(s.entries, owner)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns them.
func (s *MemoryStore) Sweep(now time.Time) []Submission {
	if s.ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Submission
	for owner, sub := range s.entries {
		if sub.expired(now, s.ttl) {
			out = append(out, sub)
			delete(s.entries, owner)
		}
	}
	return out
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
