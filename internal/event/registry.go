package event

import (
	"sort"
	"sync"
)

// Registry manages subscriptions organized by event kind.
// It is thread-safe for concurrent access.
type Registry struct {
	mu     sync.RWMutex
	byKind map[Kind][]*subscription
	byID   map[string]*subscription
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		byKind: make(map[Kind][]*subscription),
		byID:   make(map[string]*subscription),
	}
}

// Add adds a subscription. Subscriptions of one kind keep registration order.
func (r *Registry) Add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byKind[sub.Kind()] = append(r.byKind[sub.Kind()], sub)
	r.byID[sub.ID()] = sub
}

// Remove removes a subscription by ID.
func (r *Registry) Remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.byID[subID]
	if !exists {
		return false
	}

	kind := sub.Kind()
	subs := r.byKind[kind]
	for i, s := range subs {
		if s.ID() == subID {
			r.byKind[kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.byKind[kind]) == 0 {
		delete(r.byKind, kind)
	}
	delete(r.byID, subID)

	return true
}

// Get returns a subscription by ID.
func (r *Registry) Get(subID string) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, exists := r.byID[subID]
	return sub, exists
}

// MatchActive returns a copy of the active subscriptions for kind, in
// registration order.
func (r *Registry) MatchActive(kind Kind) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.byKind[kind]
	if len(subs) == 0 {
		return nil
	}
	result := make([]*subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.IsActive() {
			result = append(result, sub)
		}
	}
	return result
}

// Count returns the total number of subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// CountByKind returns the number of subscriptions for a kind.
func (r *Registry) CountByKind(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byKind[kind])
}

// CountActive returns the number of active subscriptions.
func (r *Registry) CountActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, sub := range r.byID {
		if sub.IsActive() {
			count++
		}
	}
	return count
}

// Kinds returns all kinds with subscriptions, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Clear removes all subscriptions.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.byID {
		sub.Cancel()
	}
	r.byKind = make(map[Kind][]*subscription)
	r.byID = make(map[string]*subscription)
}
