package creds

import "sync"

// Pool is the ordered set of usernames still worth trying against one target.
// It only ever shrinks. Many workers read snapshots concurrently; removals
// take the write lock.
type Pool struct {
	mu    sync.RWMutex
	users []string
}

// NewPool copies users into a new pool.
func NewPool(users []string) *Pool {
	return &Pool{users: append([]string(nil), users...)}
}

// Snapshot returns a copy of the remaining usernames in order.
func (p *Pool) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.users...)
}

// Len returns the number of remaining usernames.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}

// Contains reports whether name is still in the pool.
func (p *Pool) Contains(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, u := range p.users {
		if u == name {
			return true
		}
	}
	return false
}

// Remove deletes every entry equal to one of names, keeping the order of the
// rest. It returns how many entries were removed and how many remain.
// Names that are already gone are ignored.
func (p *Pool) Remove(names ...string) (removed, remaining int) {
	if len(names) == 0 {
		return 0, p.Len()
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.users[:0]
	for _, u := range p.users {
		if drop[u] {
			removed++
			continue
		}
		kept = append(kept, u)
	}
	for i := len(kept); i < len(p.users); i++ {
		p.users[i] = ""
	}
	p.users = kept
	return removed, len(p.users)
}
