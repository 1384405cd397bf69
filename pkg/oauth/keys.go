package oauth

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v4"

	"github.com/getmockd/oidctest/pkg/keystore"
)

// KeySpec describes a key to add to the provider's key store. Either JWK
// carries literal key material, or a key is generated from KeyType, Size
// and Curve. KeyID, Algorithm and Use override the JWK's members when set.
type KeySpec struct {
	KeyID     string         `json:"kid,omitempty" yaml:"kid,omitempty"`
	Algorithm string         `json:"alg,omitempty" yaml:"alg,omitempty"`
	Use       string         `json:"use,omitempty" yaml:"use,omitempty"`
	KeyType   string         `json:"kty,omitempty" yaml:"kty,omitempty"`
	Size      int            `json:"size,omitempty" yaml:"size,omitempty"` // RSA modulus or oct secret size in bits
	Curve     string         `json:"crv,omitempty" yaml:"crv,omitempty"`
	JWK       map[string]any `json:"jwk,omitempty" yaml:"jwk,omitempty"`
}

const (
	defaultRSABits = 2048
	defaultOctBits = 256
)

// JSONWebKey builds the key described by s, generating material if needed.
func (s KeySpec) JSONWebKey() (jose.JSONWebKey, error) {
	var key jose.JSONWebKey

	if s.JWK != nil {
		data, err := json.Marshal(s.JWK)
		if err != nil {
			return key, fmt.Errorf("%w: %v", ErrInvalidKeySpec, err)
		}
		if err := key.UnmarshalJSON(data); err != nil {
			return key, fmt.Errorf("%w: %v", ErrInvalidKeySpec, err)
		}
	} else {
		material, err := s.generate()
		if err != nil {
			return key, err
		}
		key.Key = material
	}

	if s.KeyID != "" {
		key.KeyID = s.KeyID
	}
	if s.Use != "" {
		key.Use = s.Use
	}
	if key.Use == "" {
		key.Use = keystore.UseSignature
	}
	if key.Use != keystore.UseSignature && key.Use != keystore.UseEncryption {
		return key, fmt.Errorf("%w: unsupported use %q", ErrInvalidKeySpec, key.Use)
	}
	if s.Algorithm != "" {
		key.Algorithm = s.Algorithm
	}
	if key.Algorithm == "" {
		key.Algorithm = defaultAlgorithm(&key)
	}
	return key, nil
}

func (s KeySpec) generate() (any, error) {
	kty := s.KeyType
	if kty == "" {
		kty = keyTypeForAlgorithm(s.Algorithm)
	}

	switch kty {
	case keystore.KeyTypeRSA:
		bits := s.Size
		if bits == 0 {
			bits = defaultRSABits
		}
		if bits < 0 {
			return nil, fmt.Errorf("%w: RSA size must be positive", ErrInvalidKeySpec)
		}
		priv, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate RSA key: %w", err)
		}
		return priv, nil
	case keystore.KeyTypeEC:
		curve, err := curveFor(s.Curve, s.Algorithm)
		if err != nil {
			return nil, err
		}
		priv, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate EC key: %w", err)
		}
		return priv, nil
	case keystore.KeyTypeOKP:
		if s.Curve != "" && s.Curve != "Ed25519" {
			return nil, fmt.Errorf("%w: unsupported OKP curve %q", ErrInvalidKeySpec, s.Curve)
		}
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
		}
		return priv, nil
	case keystore.KeyTypeSymmetric:
		bits := s.Size
		if bits == 0 {
			bits = defaultOctBits
		}
		if bits < 0 || bits%8 != 0 {
			return nil, fmt.Errorf("%w: oct size must be a positive multiple of 8", ErrInvalidKeySpec)
		}
		secret := make([]byte, bits/8)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		return secret, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %q", ErrInvalidKeySpec, kty)
	}
}

func keyTypeForAlgorithm(alg string) string {
	switch {
	case alg == "":
		return keystore.KeyTypeRSA
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"), strings.HasPrefix(alg, "RSA"):
		return keystore.KeyTypeRSA
	case strings.HasPrefix(alg, "ES"), strings.HasPrefix(alg, "ECDH"):
		return keystore.KeyTypeEC
	case alg == "EdDSA":
		return keystore.KeyTypeOKP
	case strings.HasPrefix(alg, "HS"), strings.HasSuffix(alg, "KW"), alg == "dir":
		return keystore.KeyTypeSymmetric
	default:
		return ""
	}
}

func curveFor(crv, alg string) (elliptic.Curve, error) {
	if crv == "" {
		switch alg {
		case "ES384":
			crv = "P-384"
		case "ES512":
			crv = "P-521"
		default:
			crv = "P-256"
		}
	}
	switch crv {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported curve %q", ErrInvalidKeySpec, crv)
	}
}

func defaultAlgorithm(key *jose.JSONWebKey) string {
	enc := key.Use == keystore.UseEncryption
	switch keystore.KeyType(key) {
	case keystore.KeyTypeRSA:
		if enc {
			return "RSA-OAEP"
		}
		return "RS256"
	case keystore.KeyTypeEC:
		if enc {
			return "ECDH-ES"
		}
		switch ecCurveName(key.Key) {
		case "P-384":
			return "ES384"
		case "P-521":
			return "ES512"
		default:
			return "ES256"
		}
	case keystore.KeyTypeOKP:
		return "EdDSA"
	case keystore.KeyTypeSymmetric:
		if enc {
			return "A256KW"
		}
		return "HS256"
	default:
		return ""
	}
}

func ecCurveName(k any) string {
	var curve elliptic.Curve
	switch key := k.(type) {
	case *ecdsa.PrivateKey:
		curve = key.Curve
	case *ecdsa.PublicKey:
		curve = key.Curve
	default:
		return ""
	}
	return curve.Params().Name
}
