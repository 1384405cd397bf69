// Package keystore holds the JSON Web Keys a provider signs and encrypts with.
//
// Key types:
//
//   - KeyStore: the four operations a provider needs (ToJSON, Add, Remove, Get)
//   - Store: thread-safe in-memory KeyStore backed by go-jose keys
//   - Delegate: a KeyStore that forwards to another KeyStore and lets tests
//     stub any single operation without touching the real store
//
// Keys are go-jose JSONWebKey values. A key added without a kid gets its
// RFC 7638 SHA-256 thumbprint as kid.
package keystore
