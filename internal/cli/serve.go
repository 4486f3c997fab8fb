package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ALT-F4-LLC/docketd/internal/logger"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the HTTP API",
	Long:        "Run the HTTP API. The database is created on first start if it does not exist.",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getCfg(cmd)
		l := logger.New(cfg.Env, cfg.LogFormat, cmd.ErrOrStderr())

		conn, err := openStore(cfg)
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}
		defer conn.Close()

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           server.New(l, conn, cfg),
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			l.Info().Str("addr", srv.Addr).Str("db", cfg.DBPath).Msg("api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return cmdErr(fmt.Errorf("serving: %w", err), output.ErrGeneral)
		}
		l.Info().Msg("shutdown complete")
		return nil
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":8080", "Listen address")
	f.String("env", "dev", "Environment (dev enables debug logging)")
	f.String("log-format", "json", "Log format: json or console")
	f.String("cors-origin", "*", "Allowed CORS origin")
	f.Int("rate-limit", 600, "Requests per minute per client IP, 0 disables")
	f.Int("page-size", 50, "Default page size for issue listings")
	f.Int("max-page-size", 200, "Largest page size a client may request")
	f.Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")

	for _, key := range []string{"addr", "env", "log-format", "cors-origin", "rate-limit", "page-size", "max-page-size", "shutdown-timeout"} {
		bindFlag(key, f.Lookup(key))
	}

	rootCmd.AddCommand(serveCmd)
}
