package harness

import (
	"slices"

	"github.com/getmockd/oidctest/pkg/oauth"
)

// AlgSnapshot is a copy of the algorithm lists that key fixtures modify.
// A nil list stays nil across Capture and Restore.
type AlgSnapshot struct {
	RequestObjectEncryption []string
	IDTokenSigning          []string
	UserinfoSigning         []string
}

// CaptureAlgs copies the provider's current algorithm lists.
func CaptureAlgs(p *oauth.Provider) *AlgSnapshot {
	cfg := p.Configuration()
	return &AlgSnapshot{
		RequestObjectEncryption: cfg.RequestObjectEncryptionAlgValuesSupported,
		IDTokenSigning:          cfg.IDTokenSigningAlgValuesSupported,
		UserinfoSigning:         cfg.UserinfoSigningAlgValuesSupported,
	}
}

// Restore writes the snapshot back. The snapshot itself is not shared with
// the provider and can be restored again.
func (s *AlgSnapshot) Restore(p *oauth.Provider) {
	p.UpdateConfiguration(func(cfg *oauth.Configuration) {
		cfg.RequestObjectEncryptionAlgValuesSupported = slices.Clone(s.RequestObjectEncryption)
		cfg.IDTokenSigningAlgValuesSupported = slices.Clone(s.IDTokenSigning)
		cfg.UserinfoSigningAlgValuesSupported = slices.Clone(s.UserinfoSigning)
	})
}
