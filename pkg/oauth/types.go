package oauth

import (
	"errors"
	"slices"
	"time"
)

// Configuration holds the provider options loaded from a fixture descriptor.
type Configuration struct {
	Scopes                            []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Claims                            []string `json:"claims,omitempty" yaml:"claims,omitempty"`
	GrantTypesSupported               []string `json:"grantTypesSupported,omitempty" yaml:"grantTypesSupported,omitempty"`
	ResponseTypesSupported            []string `json:"responseTypesSupported,omitempty" yaml:"responseTypesSupported,omitempty"`
	SubjectTypesSupported             []string `json:"subjectTypesSupported,omitempty" yaml:"subjectTypesSupported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"tokenEndpointAuthMethodsSupported,omitempty" yaml:"tokenEndpointAuthMethodsSupported,omitempty"`
	TokenTTL                          string   `json:"tokenTTL,omitempty" yaml:"tokenTTL,omitempty"` // e.g., "1h", "7d"

	// Algorithm support lists. AddKey appends to these as keys are added.
	IDTokenSigningAlgValuesSupported          []string `json:"idTokenSigningAlgValuesSupported,omitempty" yaml:"idTokenSigningAlgValuesSupported,omitempty"`
	UserinfoSigningAlgValuesSupported         []string `json:"userinfoSigningAlgValuesSupported,omitempty" yaml:"userinfoSigningAlgValuesSupported,omitempty"`
	RequestObjectEncryptionAlgValuesSupported []string `json:"requestObjectEncryptionAlgValuesSupported,omitempty" yaml:"requestObjectEncryptionAlgValuesSupported,omitempty"`

	// Extra carries options the provider does not interpret.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Clone returns a deep copy of c. Extra is copied one level deep.
func (c *Configuration) Clone() *Configuration {
	out := &Configuration{
		Scopes:                            slices.Clone(c.Scopes),
		Claims:                            slices.Clone(c.Claims),
		GrantTypesSupported:               slices.Clone(c.GrantTypesSupported),
		ResponseTypesSupported:            slices.Clone(c.ResponseTypesSupported),
		SubjectTypesSupported:             slices.Clone(c.SubjectTypesSupported),
		TokenEndpointAuthMethodsSupported: slices.Clone(c.TokenEndpointAuthMethodsSupported),
		TokenTTL:                          c.TokenTTL,

		IDTokenSigningAlgValuesSupported:          slices.Clone(c.IDTokenSigningAlgValuesSupported),
		UserinfoSigningAlgValuesSupported:         slices.Clone(c.UserinfoSigningAlgValuesSupported),
		RequestObjectEncryptionAlgValuesSupported: slices.Clone(c.RequestObjectEncryptionAlgValuesSupported),
	}
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ClientConfig describes a client application to register.
type ClientConfig struct {
	ClientID                 string   `json:"clientId" yaml:"clientId"`
	ClientSecret             string   `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	RedirectURIs             []string `json:"redirectUris,omitempty" yaml:"redirectUris,omitempty"`
	GrantTypes               []string `json:"grantTypes,omitempty" yaml:"grantTypes,omitempty"`
	ResponseTypes            []string `json:"responseTypes,omitempty" yaml:"responseTypes,omitempty"`
	TokenEndpointAuthMethod  string   `json:"tokenEndpointAuthMethod,omitempty" yaml:"tokenEndpointAuthMethod,omitempty"`
	IDTokenSignedResponseAlg string   `json:"idTokenSignedResponseAlg,omitempty" yaml:"idTokenSignedResponseAlg,omitempty"`
}

// Client is a registered client with defaults applied.
type Client struct {
	ClientConfig
	CreatedAt time.Time
}

// TokenResponse represents an OAuth token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// ErrorResponse represents an OAuth error response
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// OpenIDConfiguration represents the OIDC discovery document
type OpenIDConfiguration struct {
	Issuer                                    string   `json:"issuer"`
	TokenEndpoint                             string   `json:"token_endpoint"`
	JwksURI                                   string   `json:"jwks_uri"`
	ResponseTypesSupported                    []string `json:"response_types_supported"`
	SubjectTypesSupported                     []string `json:"subject_types_supported"`
	GrantTypesSupported                       []string `json:"grant_types_supported"`
	ScopesSupported                           []string `json:"scopes_supported"`
	ClaimsSupported                           []string `json:"claims_supported"`
	TokenEndpointAuthMethodsSupported         []string `json:"token_endpoint_auth_methods_supported"`
	IDTokenSigningAlgValuesSupported          []string `json:"id_token_signing_alg_values_supported"`
	UserinfoSigningAlgValuesSupported         []string `json:"userinfo_signing_alg_values_supported"`
	RequestObjectEncryptionAlgValuesSupported []string `json:"request_object_encryption_alg_values_supported"`
}

// Standard OAuth error codes
const (
	ErrInvalidRequest       = "invalid_request"
	ErrInvalidClient        = "invalid_client"
	ErrUnauthorizedClient   = "unauthorized_client"
	ErrUnsupportedGrantType = "unsupported_grant_type"
	ErrServerError          = "server_error"
)

// ServerErrorDescription is the error_description of every server_error
// response.
const ServerErrorDescription = "oops something went wrong"

// Grant types
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeImplicit          = "implicit"
)

// Response types
const (
	ResponseTypeCode    = "code"
	ResponseTypeIDToken = "id_token"
	ResponseTypeNone    = "none"
)

// Token endpoint authentication methods
const (
	AuthMethodClientSecretBasic = "client_secret_basic"
	AuthMethodClientSecretPost  = "client_secret_post"
	AuthMethodNone              = "none"
)

// Registration and key errors.
var (
	ErrDuplicateClient     = errors.New("client already registered")
	ErrInvalidClientConfig = errors.New("invalid client metadata")
	ErrInvalidKeySpec      = errors.New("invalid key specification")
	ErrNoSigningKey        = errors.New("no signing key available")
)
