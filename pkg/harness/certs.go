package harness

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-jose/go-jose/v4"

	"github.com/getmockd/oidctest/pkg/keystore"
	"github.com/getmockd/oidctest/pkg/logging"
	"github.com/getmockd/oidctest/pkg/oauth"
)

// CertFixtures adds keys to the provider before a test group and removes
// them afterwards, restoring the advertised algorithm lists.
type CertFixtures struct {
	provider *oauth.Provider
	keys     keystore.KeyStore
	defaults []oauth.KeySpec
	registry Registry[*jose.JSONWebKey]
	limit    int
	logger   *slog.Logger

	mu       sync.Mutex
	snapshot *AlgSnapshot
}

// NewCertFixtures creates key fixtures for provider. Keys are removed
// through keys, which is normally the provider's key store delegate.
func NewCertFixtures(provider *oauth.Provider, keys keystore.KeyStore, defaults []oauth.KeySpec, logger *slog.Logger) *CertFixtures {
	return &CertFixtures{
		provider: provider,
		keys:     keys,
		defaults: defaults,
		logger:   logging.OrNop(logger),
	}
}

// SetConcurrency bounds the number of concurrent key additions. Zero or less
// means no bound.
func (f *CertFixtures) SetConcurrency(n int) {
	f.limit = n
}

// Setup snapshots the algorithm lists and adds specs concurrently. A nil
// specs adds the descriptor defaults. The snapshot is taken once per group:
// repeated Setup calls before Teardown keep the first one.
func (f *CertFixtures) Setup(ctx context.Context, specs []oauth.KeySpec) (*BatchResult[*jose.JSONWebKey], error) {
	if specs == nil {
		specs = f.defaults
	}

	f.mu.Lock()
	if f.snapshot == nil {
		f.snapshot = CaptureAlgs(f.provider)
	}
	f.mu.Unlock()

	b := &batch[oauth.KeySpec, *jose.JSONWebKey]{
		kind:     KindCert,
		limit:    f.limit,
		ident:    func(s oauth.KeySpec) string { return s.KeyID },
		register: f.provider.AddKey,
		registry: &f.registry,
	}
	result := b.run(ctx, specs)

	if err := result.Err(); err != nil {
		f.logger.WarnContext(ctx, "cert fixture setup failed",
			"requested", len(specs),
			"added", len(result.Succeeded()),
			"error", err)
		return result, err
	}
	f.logger.DebugContext(ctx, "cert fixtures added", "count", len(specs))
	return result, nil
}

// Teardown restores the algorithm snapshot, then removes every recorded key.
// It is safe to call more than once.
func (f *CertFixtures) Teardown(ctx context.Context) {
	f.mu.Lock()
	snapshot := f.snapshot
	f.snapshot = nil
	f.mu.Unlock()

	if snapshot != nil {
		snapshot.Restore(f.provider)
	}

	for _, e := range f.registry.Drain() {
		f.keys.Remove(e.Record)
		f.logger.DebugContext(ctx, "cert fixture removed", "kid", e.Record.KeyID)
	}
}

// Added returns the added keys in completion order.
func (f *CertFixtures) Added() []*jose.JSONWebKey {
	return f.registry.Records()
}

// Registry exposes the completion-ordered registry.
func (f *CertFixtures) Registry() *Registry[*jose.JSONWebKey] {
	return &f.registry
}
