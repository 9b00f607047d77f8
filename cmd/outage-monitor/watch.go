package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/water-outage-monitor/internal/adapter/arcgis"
	"github.com/couchcryptid/water-outage-monitor/internal/adapter/console"
	httpadapter "github.com/couchcryptid/water-outage-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/water-outage-monitor/internal/adapter/kafka"
	smtpadapter "github.com/couchcryptid/water-outage-monitor/internal/adapter/smtp"
	"github.com/couchcryptid/water-outage-monitor/internal/config"
	"github.com/couchcryptid/water-outage-monitor/internal/monitor"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
	"github.com/couchcryptid/water-outage-monitor/internal/state"
)

func watchCmd() *cobra.Command {
	var flags monitorFlags

	// Environment problems surface when the command runs.
	env, envErr := config.Load()
	smtpEnv := config.SMTPConfig{Port: 587, SubjectPrefix: "[Water.ie]"}
	if envErr == nil {
		smtpEnv = env.SMTP
	}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new outages and send notifications",
		Long: `Poll the outage feed every --interval seconds. Outages not present in the
state file are emailed to --to in a single message per poll, then recorded.

Examples:
  outage-monitor watch --county Mayo --to me@example.ie
  outage-monitor watch --config mayo.yaml --location ballina`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			m, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), env, m, flags)
		},
	}

	bindFlags(cmd, &flags, smtpEnv)
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve /healthz, /readyz and /metrics on this address")
	return cmd
}

func runWatch(parent context.Context, cfg *config.Config, m config.Monitor, flags monitorFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := state.Open(m.StatePath, m.County)
	if err != nil {
		return err
	}
	defer store.Close()

	notifiers := monitor.MultiNotifier{
		console.NewPrinter(os.Stdout, m.Verbose, flags.noColor, m.RefNum, m.Location),
	}
	if m.SMTP.Enabled() {
		notifiers = append(notifiers, smtpadapter.NewMailer(m.SMTP, m.To, m.RefNum, m.Location, logger))
	} else {
		logger.Warn("SMTP host or sender not configured, email disabled")
	}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, clock, logger)
		notifiers = append(notifiers, publisher)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	client := arcgis.NewClient(cfg.ArcGISURL, cfg.ArcGISTimeout, metrics, logger)
	poller := monitor.New(monitor.Options{
		County:   m.County,
		RefNum:   m.RefNum,
		Location: m.Location,
		Interval: m.Interval,
		Baseline: m.Baseline,
	}, client, notifiers, store, clock, logger, metrics)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if flags.metricsAddr != "" {
		srv = httpadapter.NewServer(flags.metricsAddr, poller, nil, metrics, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	logger.Info("monitoring outages", "county", m.County, "to", m.To,
		"interval", m.Interval, "state", m.StatePath)
	runErr := poller.Run(ctx)

	shutdown(cfg, srv, publisher, logger)
	return runErr
}

func shutdown(cfg *config.Config, srv *httpadapter.Server, publisher *kafkaadapter.Publisher, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}
