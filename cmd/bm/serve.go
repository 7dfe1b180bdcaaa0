package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bookmark API server",
		Long: `Serve the bookmark API for the accounts listed under server.accounts in
the config. Each account's data is kept in server.dataDir/<name>.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Server
			if listen != "" {
				cfg.Listen = listen
			}

			srv, err := server.New(cfg, a.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil {
					errCh <- fmt.Errorf("http server error: %w", err)
				}
			}()

			select {
			case <-ctx.Done():
				a.log.Info("shutting down")
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides server.listen)")
	return cmd
}
