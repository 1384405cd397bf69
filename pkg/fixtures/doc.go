// Package fixtures loads fixture-data descriptors.
//
// A descriptor is a YAML or JSON file named <basename>.config.yaml (or .yml,
// .json) holding three sections:
//
//	config:   provider Configuration
//	certs:    keys to add before a test group (oauth.KeySpec)
//	clients:  clients to register before a test group (oauth.ClientConfig)
//
// Descriptors are validated against an embedded JSON Schema before being
// decoded.
package fixtures
