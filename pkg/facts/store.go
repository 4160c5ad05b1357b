// Package facts holds the per-child conversational memory: accumulated
// gift wishes and an optional learned name. State lives for the process
// lifetime only; loss on restart is accepted.
package facts

import (
	"strings"
	"sync"
	"time"
)

// AnonymousChild is the sentinel identity shared by callers that supply
// no child id.
const AnonymousChild = "anonymous"

// Gift is one recorded wish. Immutable once created.
type Gift struct {
	Item       string
	Details    map[string]any
	RecordedAt time.Time
}

// Profile is what the relay knows about a child beyond their wishes.
type Profile struct {
	Name string
}

type childRecord struct {
	mu      sync.Mutex
	profile Profile
	gifts   []Gift
}

// Store maps child identities to their accumulated facts. Locking is
// partitioned per child: the outer lock only guards the map itself, so
// distinct children never serialize each other's turns.
type Store struct {
	mu       sync.RWMutex
	children map[string]*childRecord
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		children: make(map[string]*childRecord),
		now:      time.Now,
	}
}

// NormalizeChildID maps empty identities to the anonymous sentinel.
func NormalizeChildID(childID string) string {
	if strings.TrimSpace(childID) == "" {
		return AnonymousChild
	}
	return childID
}

func (s *Store) record(childID string) *childRecord {
	childID = NormalizeChildID(childID)
	s.mu.RLock()
	rec := s.children[childID]
	s.mu.RUnlock()
	if rec != nil {
		return rec
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec = s.children[childID]; rec == nil {
		rec = &childRecord{}
		s.children[childID] = rec
	}
	return rec
}

// Profile returns a copy of the child's profile, creating an empty
// record on first access. Never fails.
func (s *Store) Profile(childID string) Profile {
	rec := s.record(childID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.profile
}

// SetName overwrites the child's learned name. Last writer wins.
// Empty or whitespace-only names are a no-op.
func (s *Store) SetName(childID, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	rec := s.record(childID)
	rec.mu.Lock()
	rec.profile.Name = name
	rec.mu.Unlock()
}

// AppendGift records one wish at the end of the child's gift list.
// Empty items are a no-op; the list is append-only.
func (s *Store) AppendGift(childID, item string, details map[string]any) {
	if strings.TrimSpace(item) == "" {
		return
	}
	rec := s.record(childID)
	rec.mu.Lock()
	rec.gifts = append(rec.gifts, Gift{
		Item:       item,
		Details:    cloneDetails(details),
		RecordedAt: s.now(),
	})
	rec.mu.Unlock()
}

// Gifts returns a snapshot of the child's wishes, earliest first.
func (s *Store) Gifts(childID string) []Gift {
	rec := s.record(childID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]Gift, len(rec.gifts))
	copy(out, rec.gifts)
	return out
}

func cloneDetails(details map[string]any) map[string]any {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
