package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zitadel/authserver/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "authserver",
		Short:        "OAuth 2.0 and OpenID Connect authorization server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	config.Flags(cmd.Flags())
	cmd.AddCommand(newCheckCmd())
	return cmd
}

// newCheckCmd validates the configuration and the directory
// without starting the server.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration, keys and directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			srv, err := newServer(cmd.Context(), cfg, discardLogger())
			if err != nil {
				return err
			}
			defer srv.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "configuration of %s is valid\n", cfg.Issuer)
			return nil
		},
	}
	config.Flags(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, logFile, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	defer logFile.Close()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "setup failed", "error", err)
		return err
	}
	defer srv.Close()
	return srv.Run(ctx)
}
