package quiz

import "sync"

// MemoryRepo holds at most one live attempt per user. Attempts are never
// persisted; a restart of the process discards them all, which matches
// their ephemeral lifecycle. The mutex guards the map only — each attempt
// is driven by its own user's requests.
type MemoryRepo struct {
	mu       sync.RWMutex
	attempts map[string]*Attempt
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{attempts: map[string]*Attempt{}}
}

// Put stores the user's attempt, replacing any previous one. Starting a
// new quiz implicitly abandons the old attempt.
func (r *MemoryRepo) Put(a *Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[a.UserID] = a
}

func (r *MemoryRepo) Get(userID string) (*Attempt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attempts[userID]
	return a, ok
}

// Delete discards the user's attempt. Missing attempts are a no-op.
func (r *MemoryRepo) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, userID)
}
