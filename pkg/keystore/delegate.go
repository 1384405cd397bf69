package keystore

import (
	"sync"

	"github.com/go-jose/go-jose/v4"
)

// Delegate forwards the four KeyStore operations to a wrapped store.
// Any single operation can be replaced with a stub for the duration of a
// test; the wrapped store itself is never modified.
type Delegate struct {
	store KeyStore

	mu     sync.RWMutex
	toJSON func(includePrivate bool) ([]byte, error)
	add    func(key jose.JSONWebKey) (*jose.JSONWebKey, error)
	remove func(key *jose.JSONWebKey)
	get    func(sel Selector) *jose.JSONWebKey
}

// NewDelegate wraps store.
func NewDelegate(store KeyStore) *Delegate {
	return &Delegate{store: store}
}

// ToJSON forwards to the wrapped store unless stubbed.
func (d *Delegate) ToJSON(includePrivate bool) ([]byte, error) {
	d.mu.RLock()
	fn := d.toJSON
	d.mu.RUnlock()
	if fn != nil {
		return fn(includePrivate)
	}
	return d.store.ToJSON(includePrivate)
}

// Add forwards to the wrapped store unless stubbed.
func (d *Delegate) Add(key jose.JSONWebKey) (*jose.JSONWebKey, error) {
	d.mu.RLock()
	fn := d.add
	d.mu.RUnlock()
	if fn != nil {
		return fn(key)
	}
	return d.store.Add(key)
}

// Remove forwards to the wrapped store unless stubbed.
func (d *Delegate) Remove(key *jose.JSONWebKey) {
	d.mu.RLock()
	fn := d.remove
	d.mu.RUnlock()
	if fn != nil {
		fn(key)
		return
	}
	d.store.Remove(key)
}

// Get forwards to the wrapped store unless stubbed.
func (d *Delegate) Get(sel Selector) *jose.JSONWebKey {
	d.mu.RLock()
	fn := d.get
	d.mu.RUnlock()
	if fn != nil {
		return fn(sel)
	}
	return d.store.Get(sel)
}

// StubToJSON replaces ToJSON until the returned restore func is called.
func (d *Delegate) StubToJSON(fn func(includePrivate bool) ([]byte, error)) (restore func()) {
	d.mu.Lock()
	prev := d.toJSON
	d.toJSON = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.toJSON = prev
		d.mu.Unlock()
	}
}

// StubAdd replaces Add until the returned restore func is called.
func (d *Delegate) StubAdd(fn func(key jose.JSONWebKey) (*jose.JSONWebKey, error)) (restore func()) {
	d.mu.Lock()
	prev := d.add
	d.add = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.add = prev
		d.mu.Unlock()
	}
}

// StubRemove replaces Remove until the returned restore func is called.
func (d *Delegate) StubRemove(fn func(key *jose.JSONWebKey)) (restore func()) {
	d.mu.Lock()
	prev := d.remove
	d.remove = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.remove = prev
		d.mu.Unlock()
	}
}

// StubGet replaces Get until the returned restore func is called.
func (d *Delegate) StubGet(fn func(sel Selector) *jose.JSONWebKey) (restore func()) {
	d.mu.Lock()
	prev := d.get
	d.get = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.get = prev
		d.mu.Unlock()
	}
}

// Ensure Delegate implements KeyStore.
var _ KeyStore = (*Delegate)(nil)
