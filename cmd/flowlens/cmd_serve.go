package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/flowlens/pkg/flowlens/analyzer"
	"github.com/randalmurphal/flowlens/pkg/flowlens/server"
	"github.com/randalmurphal/flowlens/pkg/flowlens/source"
)

const shutdownTimeout = 10 * time.Second

var serveFlags struct {
	addr  string
	flows string
	watch bool
	ai    bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API and refresh it in the background",
	Long: `Starts the HTTP API under /copilot-sidebar. The workspace is re-analyzed
every analysis.refresh_interval, on writes to the flows file when watching
is enabled, and on POST /copilot-sidebar/events/deploy.

Provider credentials are read from OPENAI_API_KEY and ANTHROPIC_API_KEY,
which may be placed in a .env file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "Listen address (default: server.addr)")
	f.StringVar(&serveFlags.flows, "flows", "", "Flows file (default: flows.path)")
	f.BoolVar(&serveFlags.watch, "watch", false, "Re-analyze when the flows file changes (default: flows.watch)")
	f.BoolVar(&serveFlags.ai, "ai", false, "Use the selected model for background passes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if serveFlags.addr != "" {
		settings.Server.Addr = serveFlags.addr
	}
	if serveFlags.flows != "" {
		settings.Flows.Path = serveFlags.flows
	}
	if cmd.Flags().Changed("watch") {
		settings.Flows.Watch = serveFlags.watch
	}
	if settings.Flows.Path == "" {
		return errors.New("no flows file: set flows.path or pass --flows")
	}

	logger := stderrLogger(settings)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStack(settings, source.NewFile(settings.Flows.Path, source.WithFileLogger(logger)), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var opts []server.Option
	opts = append(opts, server.WithBus(st.bus), server.WithLogger(logger))
	if st.metrics != nil {
		opts = append(opts, server.WithMetricsHandler(st.metrics))
	}
	srv := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           server.New(st.analyzer, st.dispatcher, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched := analyzer.NewScheduler(st.analyzer, analyzer.SchedulerConfig{
		Interval: settings.Analysis.RefreshInterval,
		AI:       serveFlags.ai,
		Bus:      st.bus,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(sched.Run(gctx))
	})
	if settings.Flows.Watch {
		w := source.NewWatcher(settings.Flows.Path, st.bus, source.WithLogger(logger))
		g.Go(func() error {
			return ignoreCanceled(w.Run(gctx))
		})
	}
	g.Go(func() error {
		logger.Info("flowlens listening",
			slog.String("addr", srv.Addr),
			slog.String("flows", settings.Flows.Path),
			slog.Bool("watch", settings.Flows.Watch),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
