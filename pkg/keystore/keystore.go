package keystore

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// Key types as they appear in the "kty" member.
const (
	KeyTypeRSA       = "RSA"
	KeyTypeEC        = "EC"
	KeyTypeOKP       = "OKP"
	KeyTypeSymmetric = "oct"
)

// Key uses as they appear in the "use" member.
const (
	UseSignature  = "sig"
	UseEncryption = "enc"
)

var (
	ErrInvalidKey   = errors.New("invalid key material")
	ErrDuplicateKey = errors.New("duplicate key id")
)

// StoreError is returned when the store rejects an operation.
type StoreError struct {
	Op    string
	KeyID string
	Err   error
}

func (e *StoreError) Error() string {
	if e.KeyID != "" {
		return fmt.Sprintf("keystore %s %q: %v", e.Op, e.KeyID, e.Err)
	}
	return fmt.Sprintf("keystore %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// KeyStore is the narrow surface a provider uses to reach its keys.
type KeyStore interface {
	// ToJSON serializes the store as a JWK Set. Private members and
	// symmetric keys are only included when includePrivate is true.
	ToJSON(includePrivate bool) ([]byte, error)

	// Add stores key and returns the stored record.
	Add(key jose.JSONWebKey) (*jose.JSONWebKey, error)

	// Remove deletes key by kid. Removing an absent key is a no-op.
	Remove(key *jose.JSONWebKey)

	// Get returns the first key matching sel, or nil.
	Get(sel Selector) *jose.JSONWebKey
}

// Selector filters keys. Empty fields match anything.
type Selector struct {
	KeyID     string
	Use       string
	Algorithm string
	KeyType   string
}

// Matches reports whether key satisfies every non-empty selector field.
func (s Selector) Matches(key *jose.JSONWebKey) bool {
	if key == nil {
		return false
	}
	if s.KeyID != "" && key.KeyID != s.KeyID {
		return false
	}
	if s.Use != "" && key.Use != s.Use {
		return false
	}
	if s.Algorithm != "" && key.Algorithm != s.Algorithm {
		return false
	}
	if s.KeyType != "" && KeyType(key) != s.KeyType {
		return false
	}
	return true
}

// KeyType returns the "kty" of key, or "" for unsupported key material.
func KeyType(key *jose.JSONWebKey) string {
	switch key.Key.(type) {
	case *rsa.PrivateKey, *rsa.PublicKey:
		return KeyTypeRSA
	case *ecdsa.PrivateKey, *ecdsa.PublicKey:
		return KeyTypeEC
	case ed25519.PrivateKey, ed25519.PublicKey:
		return KeyTypeOKP
	case []byte:
		return KeyTypeSymmetric
	default:
		return ""
	}
}

func validKey(key *jose.JSONWebKey) bool {
	if raw, ok := key.Key.([]byte); ok {
		return len(raw) > 0
	}
	return key.Key != nil && key.Valid()
}

// publicPart returns the exportable public form of key.
func publicPart(key *jose.JSONWebKey) (jose.JSONWebKey, bool) {
	if _, ok := key.Key.([]byte); ok {
		return jose.JSONWebKey{}, false
	}
	if key.IsPublic() {
		return *key, true
	}
	pub := key.Public()
	if pub.Key == nil {
		return jose.JSONWebKey{}, false
	}
	return pub, true
}
