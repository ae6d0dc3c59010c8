// Package dedup guarantees at most one admitted listing per identity across a
// concurrent search run.
package dedup

import (
	"strings"
	"sync"

	"job-aggregator/internal/domain"
)

// Set is safe for concurrent use.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func New() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// TryAdmit reports whether l is new. Listings without a title or without an
// identity key are never admitted.
func (s *Set) TryAdmit(l domain.Listing) bool {
	key, ok := keyFor(l)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admitLocked(key)
}

// AdmitLocked is TryAdmit for callers that already serialize access to the Set
// under their own lock.
func (s *Set) AdmitLocked(l domain.Listing) bool {
	key, ok := keyFor(l)
	if !ok {
		return false
	}
	return s.admitLocked(key)
}

func (s *Set) admitLocked(key string) bool {
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Len is the number of admitted identities.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func keyFor(l domain.Listing) (string, bool) {
	if strings.TrimSpace(l.Title) == "" {
		return "", false
	}
	key := l.IdentityKey()
	return key, key != ""
}
