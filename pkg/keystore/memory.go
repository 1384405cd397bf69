package keystore

import (
	"crypto"
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

// Store is a thread-safe in-memory KeyStore. Keys keep insertion order.
type Store struct {
	mu   sync.RWMutex
	keys []*jose.JSONWebKey
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// ToJSON serializes the store as a JWK Set.
func (s *Store) ToJSON(includePrivate bool) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(s.keys))}
	for _, k := range s.keys {
		if includePrivate {
			set.Keys = append(set.Keys, *k)
			continue
		}
		if pub, ok := publicPart(k); ok {
			set.Keys = append(set.Keys, pub)
		}
	}
	return json.Marshal(set)
}

// Add stores key. A missing kid is filled with the key's SHA-256 thumbprint.
func (s *Store) Add(key jose.JSONWebKey) (*jose.JSONWebKey, error) {
	if !validKey(&key) {
		return nil, &StoreError{Op: "add", KeyID: key.KeyID, Err: ErrInvalidKey}
	}
	if key.KeyID == "" {
		key.KeyID = thumbprintID(&key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.keys {
		if k.KeyID == key.KeyID {
			return nil, &StoreError{Op: "add", KeyID: key.KeyID, Err: ErrDuplicateKey}
		}
	}
	stored := key
	s.keys = append(s.keys, &stored)

	out := stored
	return &out, nil
}

// Remove deletes key by kid. It is a no-op if the key is absent.
func (s *Store) Remove(key *jose.JSONWebKey) {
	if key == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, k := range s.keys {
		if k.KeyID == key.KeyID {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			return
		}
	}
}

// Get returns a copy of the first key matching sel, or nil.
func (s *Store) Get(sel Selector) *jose.JSONWebKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.keys {
		if sel.Matches(k) {
			out := *k
			return &out
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func thumbprintID(key *jose.JSONWebKey) string {
	tp, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(tp)
}

// Ensure Store implements KeyStore.
var _ KeyStore = (*Store)(nil)
