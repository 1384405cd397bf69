package harness

import (
	"context"
	"testing"
)

// Group is a fixture set with before-group and after-group hooks.
type Group interface {
	BeginGroup(ctx context.Context) error
	EndGroup(ctx context.Context)
}

var (
	_ Group = (*ClientFixtures)(nil)
	_ Group = (*CertFixtures)(nil)
)

// BeginGroup registers the default clients.
func (f *ClientFixtures) BeginGroup(ctx context.Context) error {
	_, err := f.Setup(ctx, nil)
	return err
}

// EndGroup tears the clients down.
func (f *ClientFixtures) EndGroup(ctx context.Context) {
	f.Teardown(ctx)
}

// BeginGroup adds the default keys.
func (f *CertFixtures) BeginGroup(ctx context.Context) error {
	_, err := f.Setup(ctx, nil)
	return err
}

// EndGroup tears the keys down.
func (f *CertFixtures) EndGroup(ctx context.Context) {
	f.Teardown(ctx)
}

// Use runs g's before hook for t and schedules its after hook with
// t.Cleanup. The after hook is scheduled first so a partially successful
// setup is still torn down when the test fails.
func Use(t testing.TB, g Group) {
	t.Helper()

	t.Cleanup(func() { g.EndGroup(context.Background()) })
	if err := g.BeginGroup(context.Background()); err != nil {
		t.Fatalf("fixture setup failed: %v", err)
	}
}
