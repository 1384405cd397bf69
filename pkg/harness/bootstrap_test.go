package harness

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/oidctest/pkg/fixtures"
	"github.com/getmockd/oidctest/pkg/oauth"
)

const basicDir = "testdata/basic"

func TestStart(t *testing.T) {
	h := New(t, basicDir)

	require.NotZero(t, h.Port)
	assert.Equal(t, fmt.Sprintf("http://127.0.0.1:%d", h.Port), h.Issuer)
	assert.Equal(t, h.Issuer, h.Provider.Issuer())
	assert.Equal(t, h.Issuer, h.Server.URL)
	assert.Same(t, h.Delegate, h.Provider.KeyStore())

	assert.Len(t, h.Certs, 3)
	assert.Len(t, h.Clients, 3)
	assert.Equal(t, "30m", h.Config.TokenTTL)
	assert.Zero(t, h.Provider.Client.Len(), "fixtures are not registered until setup")

	resp, err := h.Agent.Get(context.Background(), "/.well-known/openid-configuration")
	require.NoError(t, err)
	resp.AssertStatus(t, http.StatusOK)
	resp.AssertJSONField(t, "issuer", h.Issuer)
	resp.AssertJSONField(t, "token_endpoint", h.TokenURL())
}

func TestConfigIsSharedWithProvider(t *testing.T) {
	h := New(t, basicDir)

	// Provider defaults are applied to the descriptor's configuration.
	assert.Equal(t, []string{"public"}, h.Config.SubjectTypesSupported)

	h.SetupCerts(t, oauth.KeySpec{KeyID: "shared", Algorithm: "ES384"})
	assert.Contains(t, h.Config.IDTokenSigningAlgValuesSupported, "ES384")
	assert.Equal(t, h.Provider.Configuration(), h.Config)
}

func TestBoundedConcurrencyRegistersAllFixtures(t *testing.T) {
	h := New(t, basicDir, WithConcurrency(1))

	keys := h.SetupCerts(t)
	clients := h.SetupClients(t)

	assert.Len(t, keys, len(h.Certs))
	assert.Len(t, clients, len(h.Clients))
	assert.Equal(t, len(h.Clients), h.Provider.Client.Len())
	assert.Equal(t, len(h.Certs), h.CertFixtures.Registry().Len())
}

func TestAgentRequestOptions(t *testing.T) {
	h := New(t, basicDir)
	h.SetupCerts(t)
	h.SetupClients(t)
	ctx := context.Background()

	// Credentials in the form body instead of the Authorization header.
	resp, err := h.Agent.PostForm(ctx, "/token", url.Values{
		"grant_type":    {oauth.GrantTypeClientCredentials},
		"client_id":     {"c2"},
		"client_secret": {"c2-secret"},
	}, WithHeader("Accept", "application/json"))
	require.NoError(t, err)
	resp.AssertStatus(t, http.StatusOK)
	resp.AssertJSONField(t, "token_type", "Bearer")

	// A JSON content type overrides the form default, so no grant is parsed.
	resp, err = h.Agent.PostForm(ctx, "/token",
		url.Values{"grant_type": {oauth.GrantTypeClientCredentials}},
		WithBasicAuth("c1", "c1-secret"),
		WithHeader("Content-Type", "application/json"))
	require.NoError(t, err)
	resp.AssertStatus(t, http.StatusBadRequest)
	resp.AssertJSONField(t, "error", oauth.ErrInvalidRequest)
}

func TestStartWithBasename(t *testing.T) {
	h := New(t, "testdata/named", WithBasename("alternate"))

	require.Len(t, h.Clients, 1)
	assert.Equal(t, "alt", h.Clients[0].ClientID)
}

func TestStartConcurrentHarnessesGetDistinctPorts(t *testing.T) {
	var harnesses [2]*Harness
	var g errgroup.Group
	for i := range harnesses {
		g.Go(func() error {
			h, err := Start(Options{Dir: basicDir})
			if err != nil {
				return err
			}
			t.Cleanup(h.Close)
			harnesses[i] = h
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.NotEqual(t, harnesses[0].Port, harnesses[1].Port)
	for _, h := range harnesses {
		assert.Equal(t, fmt.Sprintf("http://127.0.0.1:%d", h.Port), h.Issuer)
	}
}

func TestStartErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		stage   Stage
		wantErr error
	}{
		{
			name:    "missing descriptor",
			opts:    Options{Dir: "testdata/nonexistent"},
			stage:   StageResolve,
			wantErr: fixtures.ErrDescriptorNotFound,
		},
		{
			name:    "wrong basename",
			opts:    Options{Dir: basicDir, Basename: "other"},
			stage:   StageResolve,
			wantErr: fixtures.ErrDescriptorNotFound,
		},
		{
			name:    "schema violation",
			opts:    Options{Dir: "testdata/invalid"},
			stage:   StageLoad,
			wantErr: fixtures.ErrInvalidDescriptor,
		},
		{
			name:  "bad token ttl",
			opts:  Options{Dir: "testdata/badttl"},
			stage: StageProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Start(tt.opts)
			require.Error(t, err)
			assert.Nil(t, h)

			var bootErr *BootstrapError
			require.ErrorAs(t, err, &bootErr)
			assert.Equal(t, tt.stage, bootErr.Stage)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h, err := Start(Options{Dir: basicDir})
	require.NoError(t, err)

	h.Close()
	h.Close()

	_, err = h.Agent.Get(context.Background(), "/.well-known/jwks.json")
	assert.Error(t, err)
}

func TestServerErrorBody(t *testing.T) {
	h := New(t, basicDir)
	h.SetupClients(t)

	// No keys are loaded, so c1's ES256 token cannot be signed.
	resp, err := h.Agent.PostForm(context.Background(), "/token",
		url.Values{"grant_type": {oauth.GrantTypeClientCredentials}},
		WithBasicAuth("c1", "c1-secret"))
	require.NoError(t, err)

	resp.AssertServerError(t, h.Responses)
	resp.AssertJSONBody(t, `{"error":"server_error","error_description":"oops something went wrong"}`)
	resp.AssertHeader(t, "Content-Type", "application/json")
}

func TestClientCredentialsFlow(t *testing.T) {
	h := New(t, basicDir)
	h.SetupCerts(t)
	clients := h.SetupClients(t)
	require.Len(t, clients, 3)

	for _, id := range []string{"c1", "c2"} {
		t.Run(id, func(t *testing.T) {
			client := h.Provider.Client.Find(id)
			require.NotNil(t, client)

			token, err := h.ClientCredentials(client, "api").Token(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "Bearer", token.TokenType)
			assert.True(t, token.Valid())

			claims, err := h.Provider.ValidateToken(token.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, h.Issuer, claims["iss"])
			assert.Equal(t, id, claims["sub"])
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		client := h.Provider.Client.Find("c1")
		require.NotNil(t, client)
		client.ClientSecret = "wrong"

		_, err := h.ClientCredentials(client).Token(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), oauth.ErrInvalidClient)
	})
}

func TestAgentURL(t *testing.T) {
	a := newAgent("http://127.0.0.1:8080/", http.DefaultClient)

	assert.Equal(t, "http://127.0.0.1:8080/token", a.URL("/token"))
	assert.Equal(t, "http://127.0.0.1:8080/token", a.URL("token"))
}

func TestBootstrapErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &BootstrapError{Stage: StageListen, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "harness bootstrap failed at listen: boom", err.Error())
}
