package harness

import (
	"context"
	"log/slog"

	"github.com/getmockd/oidctest/pkg/logging"
	"github.com/getmockd/oidctest/pkg/oauth"
)

// ClientRegistrar is the part of the provider's client registry that client
// fixtures use.
type ClientRegistrar interface {
	Add(ctx context.Context, cfg oauth.ClientConfig) (*oauth.Client, error)
	Remove(clientID string) bool
}

var _ ClientRegistrar = (*oauth.ClientRegistry)(nil)

// ClientFixtures registers clients before a test group and removes them
// afterwards.
type ClientFixtures struct {
	registrar ClientRegistrar
	defaults  []oauth.ClientConfig
	registry  Registry[*oauth.Client]
	limit     int
	logger    *slog.Logger
}

// NewClientFixtures creates client fixtures registering with registrar.
// defaults are used by Setup when it is given nil.
func NewClientFixtures(registrar ClientRegistrar, defaults []oauth.ClientConfig, logger *slog.Logger) *ClientFixtures {
	return &ClientFixtures{
		registrar: registrar,
		defaults:  defaults,
		logger:    logging.OrNop(logger),
	}
}

// SetConcurrency bounds the number of concurrent registrations. Zero or less
// means no bound.
func (f *ClientFixtures) SetConcurrency(n int) {
	f.limit = n
}

// Setup registers specs concurrently. A nil specs registers the descriptor
// defaults; an empty non-nil specs registers nothing. Every successful
// registration is kept for Teardown even when Setup returns an error.
func (f *ClientFixtures) Setup(ctx context.Context, specs []oauth.ClientConfig) (*BatchResult[*oauth.Client], error) {
	if specs == nil {
		specs = f.defaults
	}

	b := &batch[oauth.ClientConfig, *oauth.Client]{
		kind:     KindClient,
		limit:    f.limit,
		ident:    func(c oauth.ClientConfig) string { return c.ClientID },
		register: f.registrar.Add,
		registry: &f.registry,
	}
	result := b.run(ctx, specs)

	if err := result.Err(); err != nil {
		f.logger.WarnContext(ctx, "client fixture setup failed",
			"requested", len(specs),
			"registered", len(result.Succeeded()),
			"error", err)
		return result, err
	}
	f.logger.DebugContext(ctx, "client fixtures registered", "count", len(specs))
	return result, nil
}

// Teardown removes every registered client. Clients that are already gone
// are logged and skipped; Teardown never fails.
func (f *ClientFixtures) Teardown(ctx context.Context) {
	for _, e := range f.registry.Drain() {
		id := e.Record.ClientID
		if !f.registrar.Remove(id) {
			f.logger.DebugContext(ctx, "client fixture teardown skipped",
				"error", &TeardownError{Kind: KindClient, Ident: id, Err: ErrAlreadyRemoved})
			continue
		}
		f.logger.DebugContext(ctx, "client fixture removed", "clientId", id)
	}
}

// Registered returns the registered clients in completion order.
func (f *ClientFixtures) Registered() []*oauth.Client {
	return f.registry.Records()
}

// Registry exposes the completion-ordered registry.
func (f *ClientFixtures) Registry() *Registry[*oauth.Client] {
	return &f.registry
}
