package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathway/internal/cli"
	httpAdapter "github.com/aretw0/pathway/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes playback, module editing and Prometheus metrics as a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd, false)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if cmd.Flags().Changed("watch") {
			cfg.Modules.Watch, _ = cmd.Flags().GetBool("watch")
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		backend, err := cli.OpenBackend(sc, cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		engine, err := cli.NewEngine(cfg, backend, logger)
		if err != nil {
			return err
		}

		if cfg.Modules.Watch {
			if err := cli.WatchModules(sc, backend, logger, nil); err != nil {
				return err
			}
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpAdapter.NewHandler(engine, httpAdapter.WithLogger(logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting pathway server", "addr", srv.Addr, "modules_dir", cfg.Modules.Dir)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-sc.Done():
			logger.Info("shutting down", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("pathway server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload module documents when they change")
}
