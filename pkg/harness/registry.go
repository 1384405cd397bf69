package harness

import "sync"

// Entry is one record in a Registry. Seq is assigned when the registration
// completes; Index is the fixture's position in its batch.
type Entry[R any] struct {
	Seq    int
	Index  int
	Record R
}

// Registry records successfully registered fixtures in completion order.
// It is safe for concurrent use.
type Registry[R any] struct {
	mu      sync.Mutex
	next    int
	entries []Entry[R]
}

// Append records rec and returns its entry.
func (r *Registry[R]) Append(index int, rec R) Entry[R] {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := Entry[R]{Seq: r.next, Index: index, Record: rec}
	r.next++
	r.entries = append(r.entries, e)
	return e
}

// Entries returns a copy of the recorded entries.
func (r *Registry[R]) Entries() []Entry[R] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry[R](nil), r.entries...)
}

// Records returns the recorded values in completion order.
func (r *Registry[R]) Records() []R {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]R, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Record
	}
	return out
}

// Len returns the number of recorded entries.
func (r *Registry[R]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Drain empties the registry and returns what it held.
func (r *Registry[R]) Drain() []Entry[R] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.entries
	r.entries = nil
	return out
}
