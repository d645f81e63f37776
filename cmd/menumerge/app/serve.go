package app

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/menumerge"
	"github.com/agentstation/menumerge/internal/server"
	"github.com/agentstation/menumerge/pkg/constants"
)

// NewServeCommand creates the serve command.
func (a *App) NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the periodic merge",
		Long: `Start the HTTP API and the reconciliation scheduler.

Endpoints:
  POST /data-a                 submit the primary dataset
  GET  /data-c                 read the merged snapshot
  GET  /health                 liveness
  GET  /api/v1/ready           readiness (store ping)
  GET  /api/v1/status          scheduler status
  POST /api/v1/update          start a cycle now
  GET  /api/v1/updates/ws      WebSocket event stream
  GET  /api/v1/updates/stream  Server-Sent Events stream
  GET  /metrics                plain-text counters

SIGINT or SIGTERM stops the scheduler (an in-flight cycle finishes) and
drains HTTP connections.`,
		Example: `  # Serve with settings from .env
  menumerge serve

  # Custom port, CORS for one origin, no rate limit
  menumerge serve --port 9000 --cors-origins https://menu.example.com --rate-limit 0`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyServeFlags(cmd)
			return a.runServe(cmd.Context())
		},
	}

	cmd.Flags().IntP("port", "p", constants.DefaultPort, "Server port (APP_PORT)")
	cmd.Flags().String("host", constants.DefaultHost, "Bind address (APP_HOST)")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins, comma-separated (CORS_ORIGINS)")
	cmd.Flags().Int("rate-limit", constants.DefaultRateLimit, "Requests per minute per IP, 0 to disable (RATE_LIMIT)")
	cmd.Flags().Bool("metrics", true, "Enable the /metrics endpoint")
	cmd.Flags().StringSlice("kafka-brokers", nil, "Publish events to these Kafka brokers (KAFKA_BROKERS)")
	cmd.Flags().Bool("no-run-on-start", false, "Wait one interval before the first cycle")

	return cmd
}

// applyServeFlags overrides configuration with explicitly set flags.
func (a *App) applyServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		a.config.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("host") {
		a.config.Host, _ = flags.GetString("host")
	}
	if flags.Changed("cors-origins") {
		origins, _ := flags.GetStringSlice("cors-origins")
		a.config.CORSOrigins = splitList(origins)
	}
	if flags.Changed("rate-limit") {
		a.config.RateLimit, _ = flags.GetInt("rate-limit")
	}
	if flags.Changed("metrics") {
		a.config.MetricsEnabled, _ = flags.GetBool("metrics")
	}
	if flags.Changed("kafka-brokers") {
		brokers, _ := flags.GetStringSlice("kafka-brokers")
		a.config.KafkaBrokers = splitList(brokers)
	}
	if noRun, _ := flags.GetBool("no-run-on-start"); noRun {
		a.config.RunOnStart = false
	}
}

func (a *App) serverConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Host = a.config.Host
	cfg.Port = a.config.Port
	cfg.CORSEnabled = len(a.config.CORSOrigins) > 0
	cfg.CORSOrigins = a.config.CORSOrigins
	cfg.RateLimit = a.config.RateLimit
	cfg.MetricsEnabled = a.config.MetricsEnabled
	cfg.KafkaBrokers = a.config.KafkaBrokers
	cfg.KafkaTopic = a.config.KafkaTopic
	cfg.RetryAfter = max(a.config.RetryDelay, time.Second)
	return cfg
}

// runServe runs the API and the scheduler until ctx is cancelled.
func (a *App) runServe(ctx context.Context) error {
	client, err := a.Client(ctx, true)
	if err != nil {
		return err
	}

	srv, err := server.New(client, a.serverConfig(), a.logger)
	if err != nil {
		return err
	}
	srv.Start()

	httpServer := srv.HTTPServer()
	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return err
	}
	return a.serve(ctx, client, srv, httpServer, listener)
}

// serve runs until ctx is done, then shuts everything down in order:
// HTTP first, then the scheduler, then the realtime services.
func (a *App) serve(ctx context.Context, client menumerge.Client, srv *server.Server, httpServer *http.Server, listener net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().
			Str("addr", listener.Addr().String()).
			Str("database", redactURL(a.config.DatabaseURL)).
			Dur("interval", a.config.FetchInterval).
			Msg("Starting menumerge API server")
		if err := httpServer.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return client.AutoUpdatesOn(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := a.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := stderrors.Join(errs...); err != nil {
			a.logger.Error().Err(err).Msg("Shutdown incomplete")
			return err
		}
		a.logger.Info().Msg("Shutdown complete")
		return nil
	})

	return g.Wait()
}

// redactURL hides credentials in connection URLs before logging them.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
