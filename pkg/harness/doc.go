// Package harness boots an in-process OIDC provider for a group of tests
// and manages the client and key fixtures the group needs.
//
// A group starts a harness from a fixture directory, registers fixtures,
// runs its tests and tears everything down again:
//
//	func TestAuthorizationCode(t *testing.T) {
//	    h := harness.New(t, "testdata/authorization_code")
//	    h.SetupCerts(t)
//	    h.SetupClients(t)
//
//	    resp, err := h.Agent.Get(ctx, "/.well-known/openid-configuration")
//	    ...
//	}
//
// The descriptor <dir>/<basename>.config.yaml supplies the provider
// configuration and the default fixtures. Fixture registrations within a
// batch run concurrently; the records that succeed are kept for teardown
// even when the batch as a whole fails. Teardown restores the advertised
// algorithm lists, removes every recorded key and client, and never fails.
package harness
