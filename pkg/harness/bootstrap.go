package harness

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/getmockd/oidctest/pkg/fixtures"
	"github.com/getmockd/oidctest/pkg/keystore"
	"github.com/getmockd/oidctest/pkg/logging"
	"github.com/getmockd/oidctest/pkg/oauth"
)

const loopbackHost = "127.0.0.1"

// Options configures Start.
type Options struct {
	// Dir is the fixture directory holding the descriptor.
	Dir string

	// Basename overrides the descriptor basename. Defaults to the last
	// element of Dir.
	Basename string

	// Logger receives harness and provider logs. Defaults to a no-op logger.
	Logger *slog.Logger

	// Concurrency bounds concurrent fixture registrations. Zero means no
	// bound.
	Concurrency int
}

// Option modifies Options for New.
type Option func(*Options)

// WithBasename sets the descriptor basename.
func WithBasename(name string) Option {
	return func(o *Options) { o.Basename = name }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithConcurrency bounds concurrent fixture registrations.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

// Harness is a running provider plus the fixtures of one test group.
type Harness struct {
	Provider *oauth.Provider
	Server   *httptest.Server
	Agent    *Agent

	// Config is the descriptor's provider configuration. It is handed to the
	// provider by reference, so key fixtures update it in place; while
	// fixtures may be running, read it through Provider.Configuration.
	Config *oauth.Configuration
	// Certs and Clients are the descriptor's default fixtures.
	Certs   []oauth.KeySpec
	Clients []oauth.ClientConfig

	Responses Responses
	Delegate  *keystore.Delegate

	Issuer string
	Port   int

	ClientFixtures *ClientFixtures
	CertFixtures   *CertFixtures

	logger    *slog.Logger
	closeOnce sync.Once
}

// Start loads the descriptor from opts.Dir, creates the provider and serves
// it on an ephemeral loopback port. The issuer is
// http://127.0.0.1:<port>.
func Start(opts Options) (*Harness, error) {
	logger := logging.OrNop(opts.Logger)

	path, err := fixtures.Resolve(opts.Dir, opts.Basename)
	if err != nil {
		return nil, &BootstrapError{Stage: StageResolve, Err: err}
	}

	desc, err := fixtures.Load(path)
	if err != nil {
		return nil, &BootstrapError{Stage: StageLoad, Err: err}
	}

	provider, err := oauth.NewProvider("http://"+loopbackHost, &desc.Config, logger)
	if err != nil {
		return nil, &BootstrapError{Stage: StageProvider, Err: err}
	}

	delegate := keystore.NewDelegate(keystore.New())
	provider.SetKeyStore(delegate)

	ln, err := net.Listen("tcp", net.JoinHostPort(loopbackHost, "0"))
	if err != nil {
		return nil, &BootstrapError{Stage: StageListen, Err: err}
	}
	port := ln.Addr().(*net.TCPAddr).Port
	issuer := fmt.Sprintf("http://%s:%d", loopbackHost, port)
	provider.SetIssuer(issuer)

	srv := httptest.NewUnstartedServer(provider.Handler())
	_ = srv.Listener.Close()
	srv.Listener = ln
	srv.Start()

	h := &Harness{
		Provider:  provider,
		Server:    srv,
		Agent:     newAgent(issuer, srv.Client()),
		Config:    &desc.Config,
		Certs:     desc.Certs,
		Clients:   desc.Clients,
		Responses: defaultResponses(),
		Delegate:  delegate,
		Issuer:    issuer,
		Port:      port,
		logger:    logger,
	}
	h.ClientFixtures = NewClientFixtures(provider.Client, desc.Clients, logger)
	h.ClientFixtures.SetConcurrency(opts.Concurrency)
	h.CertFixtures = NewCertFixtures(provider, delegate, desc.Certs, logger)
	h.CertFixtures.SetConcurrency(opts.Concurrency)

	logger.Info("harness started", "issuer", issuer, "descriptor", path,
		"certs", len(desc.Certs), "clients", len(desc.Clients))
	return h, nil
}

// New starts a harness for dir and closes it when t finishes. A bootstrap
// failure is fatal for t.
func New(t testing.TB, dir string, opts ...Option) *Harness {
	t.Helper()

	o := Options{Dir: dir, Logger: logging.ForTest(t, logging.LevelDebug)}
	for _, opt := range opts {
		opt(&o)
	}

	h, err := Start(o)
	if err != nil {
		t.Fatalf("failed to start harness: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

// Close stops the server. It is safe to call more than once.
func (h *Harness) Close() {
	h.closeOnce.Do(func() {
		h.Server.Close()
		h.logger.Info("harness stopped", "issuer", h.Issuer)
	})
}

// SetupClients registers clients for the rest of t and removes them when t
// finishes. No specs registers the descriptor defaults. Teardown is
// scheduled before registration so partial setups are cleaned up too.
func (h *Harness) SetupClients(t testing.TB, specs ...oauth.ClientConfig) []*oauth.Client {
	t.Helper()

	t.Cleanup(func() { h.ClientFixtures.Teardown(context.Background()) })
	result, err := h.ClientFixtures.Setup(context.Background(), specs)
	if err != nil {
		t.Fatalf("client fixture setup failed: %v", err)
	}
	return result.Succeeded()
}

// SetupCerts adds keys for the rest of t and removes them when t finishes,
// restoring the advertised algorithm lists. No specs adds the descriptor
// defaults.
func (h *Harness) SetupCerts(t testing.TB, specs ...oauth.KeySpec) []*jose.JSONWebKey {
	t.Helper()

	t.Cleanup(func() { h.CertFixtures.Teardown(context.Background()) })
	result, err := h.CertFixtures.Setup(context.Background(), specs)
	if err != nil {
		t.Fatalf("cert fixture setup failed: %v", err)
	}
	return result.Succeeded()
}

// TokenURL returns the provider's token endpoint.
func (h *Harness) TokenURL() string {
	return h.Agent.URL("/token")
}

// ClientCredentials returns an OAuth2 client credentials configuration for
// client against this provider.
func (h *Harness) ClientCredentials(client *oauth.Client, scopes ...string) *clientcredentials.Config {
	style := oauth2.AuthStyleInHeader
	if client.TokenEndpointAuthMethod == oauth.AuthMethodClientSecretPost {
		style = oauth2.AuthStyleInParams
	}
	return &clientcredentials.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		TokenURL:     h.TokenURL(),
		Scopes:       slices.Clone(scopes),
		AuthStyle:    style,
	}
}
