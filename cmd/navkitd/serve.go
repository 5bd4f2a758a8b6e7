package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/navkit/observe"
	"github.com/jonwraymond/navkit/secret"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve navigation over HTTP",
		Long: `Serve GET /nav/menu, GET /nav/breadcrumbs, GET /sitemap.xml and
POST /nav/release, plus /healthz, /readyz and /health probes. The server
stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := loadSettings(ctx, v, secret.DefaultResolver())
			if err != nil {
				return err
			}
			a, err := newApp(ctx, s)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			ln, err := net.Listen("tcp", s.Listen)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln)
		},
	}
}

// serve runs the HTTP server on ln until ctx is done, then drains
// in-flight requests for up to ShutdownTimeout.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	if err := a.preload(ctx); err != nil {
		// A broken source should not keep the other hosts offline.
		a.logger.Warn(ctx, "sitemap preload failed", observe.F("error", err.Error()))
	}

	srv := &http.Server{
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info(gctx, "navkitd listening",
			observe.F("addr", ln.Addr().String()),
			observe.F("sets", a.strategy.Names()),
			observe.F("version", version),
		)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.settings.ShutdownTimeout)
		defer cancel()
		a.logger.Info(shutdownCtx, "navkitd shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
