package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/conorfennell/langdrill/internal/gitsource"
	"github.com/conorfennell/langdrill/internal/metrics"
	contentsync "github.com/conorfennell/langdrill/internal/sync"
	"github.com/conorfennell/langdrill/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the study API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if syncFirst, _ := cmd.Flags().GetBool("sync"); syncFirst {
			if _, err := contentsync.RunSync(ctx, a.cfg.Content, gitsource.New(a.log, nil), a.log); err != nil {
				a.log.WithError(err).Warn("content sync failed, serving existing content")
			}
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector := metrics.NewCollector(reg)

		registry, err := a.registry(collector)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              a.cfg.Server.Addr,
			Handler:           web.NewServer(registry, collector, reg, a.log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.WithField("addr", srv.Addr).Info("starting server")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = srv.Shutdown(shutdownCtx)
		case err = <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
		}
		registry.Wait()
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("sync", false, "sync content repositories before starting")
}
