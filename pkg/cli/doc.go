// Package cli provides the command-line interface for oidctest.
//
// Commands:
//   - serve: Start a provider from a fixture directory and register its
//     default keys and clients until interrupted
//   - validate: Check descriptor files and dry-run their fixtures
package cli
