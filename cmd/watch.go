package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	watchPort   int
	watchNoHTTP bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the geofence monitor until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initMonitor(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Monitor.Start(ctx); err != nil {
			return eris.Wrap(err, "start monitoring")
		}
		defer e.Monitor.Stop()

		if watchNoHTTP {
			<-ctx.Done()
			return nil
		}

		port := watchPort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: e.Server.Router(),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchPort, "port", 0, "HTTP API port (default from config)")
	watchCmd.Flags().BoolVar(&watchNoHTTP, "no-http", false, "disable the HTTP API")
	rootCmd.AddCommand(watchCmd)
}
