package oauth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler provides OAuth endpoint handlers
type Handler struct {
	provider *Provider
	logger   *slog.Logger
}

// NewHandler creates OAuth HTTP handlers
func NewHandler(provider *Provider) *Handler {
	return &Handler{provider: provider, logger: provider.logger}
}

// Handler returns the provider's routes.
func (p *Provider) Handler() http.Handler {
	h := NewHandler(p)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", h.HandleOpenIDConfig)
	mux.HandleFunc("GET /.well-known/jwks.json", h.HandleJWKS)
	mux.HandleFunc("POST /token", h.HandleToken)

	return h.recoverer(mux)
}

// recoverer turns panics into the generic server_error response.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				h.serverError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// HandleOpenIDConfig handles GET /.well-known/openid-configuration
func (h *Handler) HandleOpenIDConfig(w http.ResponseWriter, r *http.Request) {
	issuer := h.provider.Issuer()
	cfg := h.provider.Configuration()

	doc := &OpenIDConfiguration{
		Issuer:                                    issuer,
		TokenEndpoint:                             issuer + "/token",
		JwksURI:                                   issuer + "/.well-known/jwks.json",
		ResponseTypesSupported:                    nonNil(cfg.ResponseTypesSupported),
		SubjectTypesSupported:                     nonNil(cfg.SubjectTypesSupported),
		GrantTypesSupported:                       nonNil(cfg.GrantTypesSupported),
		ScopesSupported:                           nonNil(cfg.Scopes),
		ClaimsSupported:                           nonNil(cfg.Claims),
		TokenEndpointAuthMethodsSupported:         nonNil(cfg.TokenEndpointAuthMethodsSupported),
		IDTokenSigningAlgValuesSupported:          nonNil(cfg.IDTokenSigningAlgValuesSupported),
		UserinfoSigningAlgValuesSupported:         nonNil(cfg.UserinfoSigningAlgValuesSupported),
		RequestObjectEncryptionAlgValuesSupported: nonNil(cfg.RequestObjectEncryptionAlgValuesSupported),
	}

	h.jsonResponse(w, http.StatusOK, doc)
}

// HandleJWKS handles GET /.well-known/jwks.json
func (h *Handler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	data, err := h.provider.KeyStore().ToJSON(false)
	if err != nil {
		h.logger.Error("failed to serialize keystore", "error", err)
		h.serverError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleToken handles POST /token. Only the client_credentials grant is served.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errorResponse(w, http.StatusBadRequest, ErrInvalidRequest, "failed to parse form")
		return
	}

	grantType := r.PostFormValue("grant_type")
	if grantType == "" {
		h.errorResponse(w, http.StatusBadRequest, ErrInvalidRequest, "grant_type is required")
		return
	}
	if grantType != GrantTypeClientCredentials {
		h.errorResponse(w, http.StatusBadRequest, ErrUnsupportedGrantType, "unsupported grant_type")
		return
	}

	// Get client credentials (from Authorization header or form body)
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = r.PostFormValue("client_id")
		clientSecret = r.PostFormValue("client_secret")
	}

	client := h.provider.Client.Authenticate(clientID, clientSecret)
	if client == nil {
		h.errorResponse(w, http.StatusUnauthorized, ErrInvalidClient, "invalid client credentials")
		return
	}
	if !client.SupportsGrantType(GrantTypeClientCredentials) {
		h.errorResponse(w, http.StatusBadRequest, ErrUnauthorizedClient, "client does not support client_credentials grant")
		return
	}

	scope := r.PostFormValue("scope")
	accessToken, err := h.provider.IssueToken(client, scope)
	if err != nil {
		h.logger.Error("failed to issue token", "clientId", client.ClientID, "error", err)
		h.serverError(w)
		return
	}

	h.jsonResponse(w, http.StatusOK, &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.provider.tokenExpiry.Seconds()),
		Scope:       scope,
	})
}

// Helper methods

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, errorCode, description string) {
	h.jsonResponse(w, status, &ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	})
}

func (h *Handler) serverError(w http.ResponseWriter) {
	h.errorResponse(w, http.StatusInternalServerError, ErrServerError, ServerErrorDescription)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
