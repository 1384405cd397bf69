package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/getmockd/oidctest/pkg/keystore"
	"github.com/getmockd/oidctest/pkg/logging"
)

// Provider is a minimal OpenID Connect provider used as the server under test.
type Provider struct {
	// Client holds the registered clients.
	Client *ClientRegistry

	mu       sync.RWMutex
	issuer   string
	config   *Configuration
	keystore keystore.KeyStore

	tokenExpiry time.Duration
	logger      *slog.Logger
}

// NewProvider creates a provider for issuer. The provider takes ownership of
// config; use Configuration and UpdateConfiguration to access it afterwards.
func NewProvider(issuer string, config *Configuration, logger *slog.Logger) (*Provider, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	logger = logging.OrNop(logger)

	tokenExpiry := time.Hour // default
	if config.TokenTTL != "" {
		var err error
		tokenExpiry, err = parseDuration(config.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid tokenTTL: %w", err)
		}
	}

	// Set defaults
	if config.Scopes == nil {
		config.Scopes = []string{"openid", "profile", "email"}
	}
	if config.Claims == nil {
		config.Claims = []string{"sub", "iss", "aud", "exp", "iat"}
	}
	if config.GrantTypesSupported == nil {
		config.GrantTypesSupported = []string{GrantTypeAuthorizationCode, GrantTypeClientCredentials, GrantTypeRefreshToken}
	}
	if config.ResponseTypesSupported == nil {
		config.ResponseTypesSupported = []string{ResponseTypeCode}
	}
	if config.SubjectTypesSupported == nil {
		config.SubjectTypesSupported = []string{"public"}
	}
	if config.TokenEndpointAuthMethodsSupported == nil {
		config.TokenEndpointAuthMethodsSupported = []string{AuthMethodClientSecretBasic, AuthMethodClientSecretPost, AuthMethodNone}
	}

	return &Provider{
		Client:      newClientRegistry(logger),
		issuer:      issuer,
		config:      config,
		keystore:    keystore.New(),
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}, nil
}

// Issuer returns the issuer identifier.
func (p *Provider) Issuer() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.issuer
}

// SetIssuer replaces the issuer identifier, typically once the listener
// address is known.
func (p *Provider) SetIssuer(issuer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issuer = issuer
}

// KeyStore returns the key store the provider signs with.
func (p *Provider) KeyStore() keystore.KeyStore {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keystore
}

// SetKeyStore installs ks as the provider's key store.
func (p *Provider) SetKeyStore(ks keystore.KeyStore) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keystore = ks
}

// Configuration returns a deep copy of the current configuration.
func (p *Provider) Configuration() *Configuration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Clone()
}

// UpdateConfiguration runs fn with exclusive access to the live configuration.
func (p *Provider) UpdateConfiguration(fn func(cfg *Configuration)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.config)
}

// TokenExpiry returns the access token expiry duration
func (p *Provider) TokenExpiry() time.Duration {
	return p.tokenExpiry
}

// AddKey adds the key described by spec to the key store and advertises its
// algorithm: signing keys in the ID token and userinfo signing lists,
// encryption keys in the request object encryption list.
func (p *Provider) AddKey(ctx context.Context, spec KeySpec) (*jose.JSONWebKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := spec.JSONWebKey()
	if err != nil {
		return nil, err
	}

	record, err := p.KeyStore().Add(key)
	if err != nil {
		return nil, err
	}

	p.UpdateConfiguration(func(cfg *Configuration) {
		switch record.Use {
		case keystore.UseEncryption:
			cfg.RequestObjectEncryptionAlgValuesSupported = appendUnique(cfg.RequestObjectEncryptionAlgValuesSupported, record.Algorithm)
		default:
			cfg.IDTokenSigningAlgValuesSupported = appendUnique(cfg.IDTokenSigningAlgValuesSupported, record.Algorithm)
			cfg.UserinfoSigningAlgValuesSupported = appendUnique(cfg.UserinfoSigningAlgValuesSupported, record.Algorithm)
		}
	})

	p.logger.Debug("key added", "kid", record.KeyID, "alg", record.Algorithm, "use", record.Use)
	return record, nil
}

// IssueToken creates an access token for client, signed with a key matching
// the client's idTokenSignedResponseAlg.
func (p *Provider) IssueToken(client *Client, scope string) (string, error) {
	alg := client.IDTokenSignedResponseAlg
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return "", fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	key := p.KeyStore().Get(keystore.Selector{Use: keystore.UseSignature, Algorithm: alg})
	if key == nil {
		return "", fmt.Errorf("%w for %s", ErrNoSigningKey, alg)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":       p.Issuer(),
		"sub":       client.ClientID,
		"client_id": client.ClientID,
		"iat":       now.Unix(),
		"exp":       now.Add(p.tokenExpiry).Unix(),
		"jti":       uuid.NewString(),
	}
	if scope != "" {
		claims["scope"] = scope
	}

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = key.KeyID

	return token.SignedString(key.Key)
}

// ValidateToken validates an access token and returns its claims
func (p *Provider) ValidateToken(tokenString string) (map[string]interface{}, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		key := p.KeyStore().Get(keystore.Selector{KeyID: kid, Use: keystore.UseSignature})
		if key == nil {
			return nil, fmt.Errorf("unknown key %q", kid)
		}
		if key.Algorithm != token.Method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return verificationKey(key), nil
	}, jwt.WithIssuer(p.Issuer()), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}

	return claims, nil
}

func verificationKey(key *jose.JSONWebKey) interface{} {
	if raw, ok := key.Key.([]byte); ok {
		return raw
	}
	if key.IsPublic() {
		return key.Key
	}
	return key.Public().Key
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

// parseDuration parses a duration string that supports days (e.g., "7d")
func parseDuration(s string) (time.Duration, error) {
	if len(s) == 0 {
		return 0, errors.New("empty duration string")
	}

	// Check for day suffix
	if s[len(s)-1] == 'd' {
		var days int
		_, err := fmt.Sscanf(s, "%dd", &days)
		if err != nil {
			return 0, fmt.Errorf("invalid day format: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	// Use standard Go duration parsing
	return time.ParseDuration(s)
}
