package oauth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ClientRegistry holds the clients registered with a provider.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

func newClientRegistry(logger *slog.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Add validates cfg, applies defaults and registers the client.
// cfg itself is not modified.
func (r *ClientRegistry) Add(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := normalizeClient(cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[client.ClientID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClient, client.ClientID)
	}
	r.clients[client.ClientID] = client
	r.logger.Debug("client registered", "clientId", client.ClientID)

	return client.clone(), nil
}

// Remove unregisters a client. Returns true if deleted, false if not found.
func (r *ClientRegistry) Remove(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[clientID]; exists {
		delete(r.clients, clientID)
		r.logger.Debug("client removed", "clientId", clientID)
		return true
	}
	return false
}

// Find returns a copy of the client, or nil if it is not registered.
func (r *ClientRegistry) Find(clientID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[clientID]; ok {
		return c.clone()
	}
	return nil
}

// Authenticate returns the client if clientSecret matches.
func (r *ClientRegistry) Authenticate(clientID, clientSecret string) *Client {
	client := r.Find(clientID)
	if client == nil {
		return nil
	}
	if client.TokenEndpointAuthMethod == AuthMethodNone {
		return client
	}
	if subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(clientSecret)) != 1 {
		return nil
	}
	return client
}

// List returns all clients sorted by client ID.
func (r *ClientRegistry) List() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		result = append(result, c.clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClientID < result[j].ClientID })
	return result
}

// Len returns the number of registered clients.
func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// SupportsGrantType checks if a client supports a specific grant type
func (c *Client) SupportsGrantType(grantType string) bool {
	return slices.Contains(c.GrantTypes, grantType)
}

func (c *Client) clone() *Client {
	out := *c
	out.RedirectURIs = slices.Clone(c.RedirectURIs)
	out.GrantTypes = slices.Clone(c.GrantTypes)
	out.ResponseTypes = slices.Clone(c.ResponseTypes)
	return &out
}

var knownGrantTypes = []string{
	GrantTypeAuthorizationCode,
	GrantTypeClientCredentials,
	GrantTypeRefreshToken,
	GrantTypeImplicit,
}

var knownResponseTypes = []string{
	ResponseTypeCode,
	ResponseTypeIDToken,
	ResponseTypeCode + " " + ResponseTypeIDToken,
	ResponseTypeNone,
}

var knownAuthMethods = []string{
	AuthMethodClientSecretBasic,
	AuthMethodClientSecretPost,
	AuthMethodNone,
}

func normalizeClient(cfg ClientConfig) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: clientId is required", ErrInvalidClientConfig)
	}

	c := &Client{ClientConfig: cfg, CreatedAt: time.Now()}
	c.RedirectURIs = slices.Clone(cfg.RedirectURIs)
	c.GrantTypes = slices.Clone(cfg.GrantTypes)
	c.ResponseTypes = slices.Clone(cfg.ResponseTypes)

	if c.GrantTypes == nil {
		c.GrantTypes = []string{GrantTypeAuthorizationCode}
	}
	if c.ResponseTypes == nil {
		c.ResponseTypes = []string{}
		if c.SupportsGrantType(GrantTypeAuthorizationCode) {
			c.ResponseTypes = []string{ResponseTypeCode}
		}
	}
	if c.TokenEndpointAuthMethod == "" {
		c.TokenEndpointAuthMethod = AuthMethodClientSecretBasic
	}
	if c.IDTokenSignedResponseAlg == "" {
		c.IDTokenSignedResponseAlg = "RS256"
	}

	for _, gt := range c.GrantTypes {
		if !slices.Contains(knownGrantTypes, gt) {
			return nil, fmt.Errorf("%w: unsupported grant type %q", ErrInvalidClientConfig, gt)
		}
	}
	for _, rt := range c.ResponseTypes {
		if !slices.Contains(knownResponseTypes, rt) {
			return nil, fmt.Errorf("%w: unsupported response type %q", ErrInvalidClientConfig, rt)
		}
	}
	if !slices.Contains(knownAuthMethods, c.TokenEndpointAuthMethod) {
		return nil, fmt.Errorf("%w: unsupported token endpoint auth method %q", ErrInvalidClientConfig, c.TokenEndpointAuthMethod)
	}

	usesCode := slices.ContainsFunc(c.ResponseTypes, func(rt string) bool { return rt != ResponseTypeNone })
	if usesCode && !c.SupportsGrantType(GrantTypeAuthorizationCode) && !c.SupportsGrantType(GrantTypeImplicit) {
		return nil, fmt.Errorf("%w: response types require the authorization_code or implicit grant", ErrInvalidClientConfig)
	}
	if usesCode && len(c.RedirectURIs) == 0 {
		return nil, fmt.Errorf("%w: redirectUris is required", ErrInvalidClientConfig)
	}
	for _, ru := range c.RedirectURIs {
		u, err := url.Parse(ru)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: redirect uri %q must be an absolute URL", ErrInvalidClientConfig, ru)
		}
		if u.Fragment != "" {
			return nil, fmt.Errorf("%w: redirect uri %q must not contain a fragment", ErrInvalidClientConfig, ru)
		}
	}

	if c.TokenEndpointAuthMethod != AuthMethodNone && c.ClientSecret == "" {
		c.ClientSecret = uuid.NewString()
	}
	return c, nil
}
