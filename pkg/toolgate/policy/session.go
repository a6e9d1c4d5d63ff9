// Package policy – session.go holds the session-scoped allow-list: prefixes
// the user approved interactively for the remainder of the run. The list is
// additive only — there is no removal at this layer — and safe for concurrent
// use from parallel tool-execution requests.
package policy

import "sync"

// SessionAllowList is an ephemeral, process-lifetime set of approved command
// prefixes. Its presence switches the resolver into default-deny mode. A nil
// *SessionAllowList means no session list was supplied (default-allow mode).
type SessionAllowList struct {
	mu       sync.RWMutex
	prefixes map[string]struct{}
}

// NewSessionAllowList creates an empty session allow-list, optionally seeded
// with initial prefixes.
func NewSessionAllowList(seed ...string) *SessionAllowList {
	s := &SessionAllowList{prefixes: make(map[string]struct{})}
	for _, p := range seed {
		s.Add(p)
	}
	return s
}

// Add records an approved prefix. The prefix is whitespace-normalized so it
// matches the resolver's comparison form. Empty prefixes are ignored.
func (s *SessionAllowList) Add(prefix string) {
	norm := Normalize(prefix)
	if norm == "" {
		return
	}
	s.mu.Lock()
	s.prefixes[norm] = struct{}{}
	s.mu.Unlock()
}

// Matches reports whether the normalized command starts with any approved
// prefix at a token boundary.
func (s *SessionAllowList) Matches(command string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for p := range s.prefixes {
		if IsPrefixedBy(command, p) {
			return true
		}
	}
	return false
}

// Len returns the number of approved prefixes.
func (s *SessionAllowList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prefixes)
}
