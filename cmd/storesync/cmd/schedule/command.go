// Package schedule provides the schedule command, which runs reconciliation
// on a fixed interval until the process is interrupted.
package schedule

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/storesync"
	"github.com/agentstation/storesync/internal/cmd/application"
	"github.com/agentstation/storesync/internal/metrics"
	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/errors"
)

// Flags holds the schedule command flags.
type Flags struct {
	Interval    time.Duration
	MetricsAddr string
}

// NewCommand creates the schedule command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "schedule",
		GroupID: "core",
		Short:   "Run reconciliation on a fixed interval",
		Args:    cobra.NoArgs,
		Long: `Schedule performs a run immediately and then once every interval until
interrupted. A tick that arrives while a run is still executing is skipped.

On SIGINT or SIGTERM the in-flight run is canceled, its report is logged and
the command exits. With --metrics-addr, Prometheus metrics are served on
/metrics.`,
		Example: `  storesync schedule                              # Use the configured interval
  storesync schedule --interval 30m
  storesync schedule --metrics-addr :9090         # Expose /metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("interval") {
				flags.Interval = app.ScheduleInterval()
			}
			if !cmd.Flags().Changed("metrics-addr") {
				flags.MetricsAddr = app.MetricsAddr()
			}
			return Execute(cmd.Context(), app, flags)
		},
	}

	cmd.Flags().DurationVar(&flags.Interval, "interval", constants.DefaultScheduleInterval,
		"Time between runs")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

// Execute starts the interval loop and blocks until ctx is done.
func Execute(ctx context.Context, app application.Application, flags *Flags) error {
	logger := app.Logger()

	client, err := app.Client(storesync.WithAutoSyncInterval(flags.Interval))
	if err != nil {
		return &application.ExitError{Code: application.ExitCodeOf(err), Err: err}
	}

	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	recorder.Attach(client)

	var server *http.Server
	if flags.MetricsAddr != "" {
		server, err = serveMetrics(flags.MetricsAddr, recorder, logger)
		if err != nil {
			return err
		}
	}

	if err := client.AutoSyncOn(); err != nil {
		return &application.ExitError{Code: application.ExitCodeOf(err), Err: err}
	}
	logger.Info().Dur("interval", flags.Interval).Msg("Schedule started, press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Stopping schedule")

	if err := client.AutoSyncOff(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop schedule")
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.WrapIO("shutdown", "metrics server", err)
		}
	}

	logger.Info().Msg("Schedule stopped")
	return nil
}

// serveMetrics starts the metrics listener in the background. The listener
// is bound before returning so an unusable address fails the command.
func serveMetrics(addr string, recorder *metrics.Recorder, logger *zerolog.Logger) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.NewConfigError("metrics", "cannot listen on "+addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	logger.Info().Str("addr", listener.Addr().String()).Msg("Serving metrics on /metrics")
	return server, nil
}
