package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/getmockd/oidctest/pkg/fixtures"
	"github.com/getmockd/oidctest/pkg/harness"
	"github.com/getmockd/oidctest/pkg/oauth"
)

// ErrValidationFailed is returned when at least one descriptor is invalid.
var ErrValidationFailed = errors.New("validation failed")

func newValidateCommand(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate descriptor files",
		Long: `Validate descriptor files without starting a server.

Each file is checked against the descriptor schema, then its provider
configuration, keys and clients are registered against a throwaway
provider to catch errors the schema cannot express.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := root.logger(cmd.ErrOrStderr())
			failed := 0
			for _, path := range args {
				if err := validateDescriptor(cmd.Context(), path, logger); err != nil {
					failed++
					_, _ = fmt.Fprintf(out, "FAIL %s\n", path)
					printValidationError(out, err)
					continue
				}
				_, _ = fmt.Fprintf(out, "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d descriptors", ErrValidationFailed, failed, len(args))
			}
			return nil
		},
	}
}

// validateDescriptor loads path and registers its fixtures against a
// provider that is never served.
func validateDescriptor(ctx context.Context, path string, logger *slog.Logger) error {
	desc, err := fixtures.Load(path)
	if err != nil {
		return err
	}

	provider, err := oauth.NewProvider("http://127.0.0.1", desc.Config.Clone(), logger)
	if err != nil {
		return err
	}

	certs := harness.NewCertFixtures(provider, provider.KeyStore(), desc.Certs, logger)
	defer certs.Teardown(ctx)
	clients := harness.NewClientFixtures(provider.Client, desc.Clients, logger)
	defer clients.Teardown(ctx)

	return errors.Join(certs.BeginGroup(ctx), clients.BeginGroup(ctx))
}

func printValidationError(out io.Writer, err error) {
	var schemaErr *fixtures.SchemaError
	if errors.As(err, &schemaErr) {
		for _, p := range schemaErr.Problems {
			_, _ = fmt.Fprintf(out, "     %s\n", p)
		}
		return
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			printValidationError(out, e)
		}
		return
	}
	_, _ = fmt.Fprintf(out, "     %v\n", err)
}
