// Package oauth provides a small OpenID Connect provider used as the server
// under test by the fixture harness.
//
// The provider keeps its registered clients in a ClientRegistry, its keys in
// a keystore.KeyStore that callers may replace, and its options in a
// Configuration that AddKey updates as keys are added.
//
// # Basic Usage
//
//	provider, err := oauth.NewProvider("http://127.0.0.1", &oauth.Configuration{}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = provider.AddKey(ctx, oauth.KeySpec{Algorithm: "RS256"})
//	client, err := provider.Client.Add(ctx, oauth.ClientConfig{
//	    ClientID:     "svc",
//	    ClientSecret: "secret",
//	    GrantTypes:   []string{oauth.GrantTypeClientCredentials},
//	})
//
// # HTTP Handlers
//
// Provider.Handler serves:
//
//	GET  /.well-known/openid-configuration
//	GET  /.well-known/jwks.json
//	POST /token                (client_credentials only)
//
// Internal failures are answered with HTTP 500 and the body
// {"error":"server_error","error_description":"oops something went wrong"}.
package oauth
