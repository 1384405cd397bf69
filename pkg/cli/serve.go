package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/oidctest/pkg/harness"
)

type serveFlags struct {
	dir         string
	name        string
	noCerts     bool
	noClients   bool
	concurrency int
	readyFile   string
}

func newServeCommand(root *rootFlags) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a provider from a fixture directory",
		Long: `Start a provider from a fixture directory and register the descriptor's
default keys and clients. Runs until interrupted, then tears the fixtures down.`,
		Example: `  # Serve testdata/authorization_code/authorization_code.config.yaml
  oidctest serve --dir testdata/authorization_code

  # Use a different descriptor basename, without clients
  oidctest serve --dir testdata --name shared --no-clients

  # Let a script wait for the provider, then read its issuer
  oidctest serve --dir testdata/client_credentials --ready-file issuer.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), root, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "Fixture directory")
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Descriptor basename (default: last element of --dir)")
	cmd.Flags().BoolVar(&flags.noCerts, "no-certs", false, "Do not add the descriptor's keys")
	cmd.Flags().BoolVar(&flags.noClients, "no-clients", false, "Do not register the descriptor's clients")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Maximum concurrent fixture registrations (0 = unbounded)")
	cmd.Flags().StringVar(&flags.readyFile, "ready-file", "", "Write the issuer to this file once fixtures are registered")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func runServe(ctx context.Context, out io.Writer, root *rootFlags, flags *serveFlags) error {
	logger := root.logger(os.Stderr)

	h, err := harness.Start(harness.Options{
		Dir:         flags.dir,
		Basename:    flags.name,
		Logger:      logger,
		Concurrency: flags.concurrency,
	})
	if err != nil {
		return err
	}
	defer h.Close()

	var groups []harness.Group
	if !flags.noCerts {
		groups = append(groups, h.CertFixtures)
	}
	if !flags.noClients {
		groups = append(groups, h.ClientFixtures)
	}
	defer func() {
		for i := len(groups) - 1; i >= 0; i-- {
			groups[i].EndGroup(context.Background())
		}
	}()
	for _, g := range groups {
		if err := g.BeginGroup(ctx); err != nil {
			return err
		}
	}

	printServeBanner(out, h)
	if flags.readyFile != "" {
		if err := os.WriteFile(flags.readyFile, []byte(h.Issuer+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write ready file: %w", err)
		}
	}

	<-ctx.Done()
	_, _ = fmt.Fprintln(out, "\nShutting down...")
	return nil
}

func printServeBanner(out io.Writer, h *harness.Harness) {
	_, _ = fmt.Fprintf(out, "Issuer:    %s\n", h.Issuer)
	_, _ = fmt.Fprintf(out, "Discovery: %s\n", h.Agent.URL("/.well-known/openid-configuration"))
	_, _ = fmt.Fprintf(out, "JWKS:      %s\n", h.Agent.URL("/.well-known/jwks.json"))
	_, _ = fmt.Fprintf(out, "Token:     %s\n", h.TokenURL())

	if keys := h.CertFixtures.Added(); len(keys) > 0 {
		_, _ = fmt.Fprintln(out, "\nKeys:")
		for _, k := range keys {
			_, _ = fmt.Fprintf(out, "  %-24s %-4s %s\n", k.KeyID, k.Use, k.Algorithm)
		}
	}
	if clients := h.ClientFixtures.Registered(); len(clients) > 0 {
		_, _ = fmt.Fprintln(out, "\nClients:")
		for _, c := range clients {
			_, _ = fmt.Fprintf(out, "  %-24s secret=%s grants=%v\n", c.ClientID, c.ClientSecret, c.GrantTypes)
		}
	}
	_, _ = fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
