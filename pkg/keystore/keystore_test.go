package keystore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-jose/go-jose/v4"
)

func rsaKey(t *testing.T, kid, use, alg string) jose.JSONWebKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return jose.JSONWebKey{Key: priv, KeyID: kid, Use: use, Algorithm: alg}
}

func ecKey(t *testing.T, kid string) jose.JSONWebKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate EC key: %v", err)
	}
	return jose.JSONWebKey{Key: priv, KeyID: kid, Use: UseSignature, Algorithm: "ES256"}
}

func TestStoreAdd(t *testing.T) {
	t.Run("stores key and returns record", func(t *testing.T) {
		s := New()
		rec, err := s.Add(rsaKey(t, "k1", UseSignature, "RS256"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.KeyID != "k1" {
			t.Errorf("expected kid k1, got %q", rec.KeyID)
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 key, got %d", s.Len())
		}
	})

	t.Run("fills missing kid with thumbprint", func(t *testing.T) {
		s := New()
		rec, err := s.Add(ecKey(t, ""))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.KeyID == "" {
			t.Error("expected generated kid")
		}
		if s.Get(Selector{KeyID: rec.KeyID}) == nil {
			t.Error("expected key to be retrievable by generated kid")
		}
	})

	t.Run("rejects duplicate kid", func(t *testing.T) {
		s := New()
		if _, err := s.Add(rsaKey(t, "dup", UseSignature, "RS256")); err != nil {
			t.Fatalf("first add failed: %v", err)
		}
		_, err := s.Add(ecKey(t, "dup"))
		var storeErr *StoreError
		if !errors.As(err, &storeErr) {
			t.Fatalf("expected StoreError, got %v", err)
		}
		if !errors.Is(err, ErrDuplicateKey) {
			t.Errorf("expected ErrDuplicateKey, got %v", err)
		}
		if storeErr.KeyID != "dup" {
			t.Errorf("expected kid dup in error, got %q", storeErr.KeyID)
		}
	})

	t.Run("rejects missing key material", func(t *testing.T) {
		s := New()
		_, err := s.Add(jose.JSONWebKey{KeyID: "empty"})
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey, got %v", err)
		}
		_, err = s.Add(jose.JSONWebKey{KeyID: "oct", Key: []byte{}})
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey for empty secret, got %v", err)
		}
	})
}

func TestStoreRemove(t *testing.T) {
	s := New()
	rec, err := s.Add(rsaKey(t, "k1", UseSignature, "RS256"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	s.Remove(rec)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d keys", s.Len())
	}

	// Absent and nil keys are no-ops.
	s.Remove(rec)
	s.Remove(nil)
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d keys", s.Len())
	}
}

func TestStoreGet(t *testing.T) {
	s := New()
	mustAdd := func(k jose.JSONWebKey) {
		t.Helper()
		if _, err := s.Add(k); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	mustAdd(rsaKey(t, "sig-rsa", UseSignature, "RS256"))
	mustAdd(rsaKey(t, "enc-rsa", UseEncryption, "RSA-OAEP"))
	mustAdd(ecKey(t, "sig-ec"))

	tests := []struct {
		name string
		sel  Selector
		want string
	}{
		{"by kid", Selector{KeyID: "enc-rsa"}, "enc-rsa"},
		{"by use", Selector{Use: UseEncryption}, "enc-rsa"},
		{"by alg", Selector{Algorithm: "ES256"}, "sig-ec"},
		{"by kty", Selector{KeyType: KeyTypeEC}, "sig-ec"},
		{"first match wins", Selector{Use: UseSignature}, "sig-rsa"},
		{"combined", Selector{Use: UseSignature, KeyType: KeyTypeEC}, "sig-ec"},
		{"no match", Selector{Algorithm: "PS512"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Get(tt.sel)
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected no key, got %q", got.KeyID)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected key %q, got none", tt.want)
			}
			if got.KeyID != tt.want {
				t.Errorf("expected key %q, got %q", tt.want, got.KeyID)
			}
		})
	}
}

func TestStoreToJSON(t *testing.T) {
	s := New()
	if _, err := s.Add(rsaKey(t, "rsa", UseSignature, "RS256")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := s.Add(jose.JSONWebKey{Key: []byte("0123456789abcdef0123456789abcdef"), KeyID: "hmac", Algorithm: "HS256", Use: UseSignature}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	t.Run("public export hides private parts and secrets", func(t *testing.T) {
		data, err := s.ToJSON(false)
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}
		var raw struct {
			Keys []map[string]any `json:"keys"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(raw.Keys) != 1 {
			t.Fatalf("expected 1 public key, got %d", len(raw.Keys))
		}
		if _, ok := raw.Keys[0]["d"]; ok {
			t.Error("public export contains private exponent")
		}
		if raw.Keys[0]["kid"] != "rsa" {
			t.Errorf("expected kid rsa, got %v", raw.Keys[0]["kid"])
		}
	})

	t.Run("private export includes everything", func(t *testing.T) {
		data, err := s.ToJSON(true)
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}
		var set jose.JSONWebKeySet
		if err := json.Unmarshal(data, &set); err != nil {
			t.Fatalf("invalid JWKS: %v", err)
		}
		if len(set.Keys) != 2 {
			t.Fatalf("expected 2 keys, got %d", len(set.Keys))
		}
		if set.Keys[0].IsPublic() {
			t.Error("expected private RSA key in private export")
		}
	})
}
