package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"minirag/internal/devserver"
	"minirag/internal/logging"
)

func newDevServerCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory knowledge base speaking the same API, for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := logging.Open(a.cfg.Log.Level, a.cfg.Log.File, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			if addr == "" {
				addr = a.cfg.DevServer.Addr
			}
			srv := devserver.New(devserver.Options{
				ChunkSize:    a.cfg.DevServer.ChunkSize,
				ChunkOverlap: a.cfg.DevServer.ChunkOverlap,
				TopK:         a.cfg.DevServer.TopK,
			}, logger)
			httpSrv := &http.Server{Addr: addr, Handler: srv.Router(), ReadHeaderTimeout: 10 * time.Second}

			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(ctx)
			}()

			logger.WithField("addr", addr).Info("Starting development server")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to devserver.addr from config)")
	return cmd
}
