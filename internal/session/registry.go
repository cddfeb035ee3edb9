package session

import "sort"

// registry holds the live sessions and the per-user device index. It is
// not self-locking: every mutation runs inside the manager's critical
// section, which is the single mutation discipline for session state.
type registry struct {
	sessions    map[string]*Session
	userDevices map[string]map[string]struct{}
}

func newRegistry() *registry {
	return &registry{
		sessions:    make(map[string]*Session),
		userDevices: make(map[string]map[string]struct{}),
	}
}

func (r *registry) get(fingerprint string) (*Session, bool) {
	s, ok := r.sessions[fingerprint]
	return s, ok
}

func (r *registry) put(s *Session) {
	r.sessions[s.Fingerprint] = s
	set, ok := r.userDevices[s.UserID]
	if !ok {
		set = make(map[string]struct{})
		r.userDevices[s.UserID] = set
	}
	set[s.Fingerprint] = struct{}{}
}

// remove detaches the session from both maps and deletes the user index
// entry once it is empty. Timer and channel teardown belong to the
// manager, which owns the surrounding lifecycle.
func (r *registry) remove(fingerprint string) {
	s, ok := r.sessions[fingerprint]
	if !ok {
		return
	}
	delete(r.sessions, fingerprint)
	if set, ok := r.userDevices[s.UserID]; ok {
		delete(set, fingerprint)
		if len(set) == 0 {
			delete(r.userDevices, s.UserID)
		}
	}
}

func (r *registry) deviceCount(userID string) int {
	return len(r.userDevices[userID])
}

// devicesForUser returns the user's sessions ordered by most recent
// activity first.
func (r *registry) devicesForUser(userID string) []*Session {
	set, ok := r.userDevices[userID]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(set))
	for fp := range set {
		if s, ok := r.sessions[fp]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity > out[j].LastActivity
	})
	return out
}

// oldestForUser returns the user's session with the smallest issuedAt.
// Eviction is oldest-by-login, not least-recently-active, so a fresh
// login never loses to a long-lived idle one.
func (r *registry) oldestForUser(userID string) (string, bool) {
	set, ok := r.userDevices[userID]
	if !ok {
		return "", false
	}
	var oldest string
	var oldestAt int64
	found := false
	for fp := range set {
		s, ok := r.sessions[fp]
		if !ok {
			continue
		}
		if !found || s.IssuedAt < oldestAt {
			oldest = fp
			oldestAt = s.IssuedAt
			found = true
		}
	}
	return oldest, found
}
