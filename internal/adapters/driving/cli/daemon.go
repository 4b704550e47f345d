package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/notesync/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/notesync/internal/logger"
)

// shutdownTimeout bounds how long the daemon waits for a cancelled run.
const shutdownTimeout = 30 * time.Second

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the sync daemon",
	Long: `Run the background host: the control API, the scheduler, the local change
watcher and the memory pressure monitor.

The control API listens on daemon.listen and is used by start-sync,
cancel-sync, is-syncing and progress. Prometheus metrics are served at
/metrics. With --exit-when-idle the daemon starts one sync and exits
when it finishes.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&daemonAddr, "addr", "", "listen address (default from daemon.listen)")
	daemonCmd.Flags().BoolVar(&opts.ExitWhenIdle, "exit-when-idle", false, "start one sync and exit when it finishes")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	rt := active

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := daemonAddr
	if addr == "" {
		addr = rt.Settings.Daemon.Listen
	}

	var serverOpts []httpapi.ServerOption
	serverOpts = append(serverOpts, httpapi.WithMiddlewares(httpapi.LoggingMiddleware))
	if rt.Metrics != nil {
		serverOpts = append(serverOpts, httpapi.WithMetricsHandler(rt.Metrics))
	}
	handler := httpapi.NewServer(rt.Coordinator, rt.Progress, serverOpts...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpapi.ListenAndServe(gctx, addr, handler); err != nil {
			return fmt.Errorf("control api: %w", err)
		}
		return nil
	})

	if rt.Scheduler != nil {
		g.Go(func() error {
			err := rt.Scheduler.Start(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
	}

	for _, task := range rt.Background {
		g.Go(func() error {
			logger.Debug("daemon: starting %s", task.Name)
			if err := task.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", task.Name, err)
			}
			return nil
		})
	}

	if opts.ExitWhenIdle {
		rt.Coordinator.Start()
		g.Go(func() error {
			select {
			case <-rt.Released:
				logger.Info("daemon: sync finished, exiting")
				stop()
			case <-gctx.Done():
			}
			return nil
		})
	}

	<-gctx.Done()
	logger.Debug("daemon: shutting down")

	if rt.Scheduler != nil {
		if err := rt.Scheduler.Stop(); err != nil {
			logger.Warn("daemon: stop scheduler: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
	defer cancel()
	if err := rt.Coordinator.Shutdown(shutdownCtx); err != nil {
		logger.Warn("daemon: sync did not stop in time: %v", err)
	}

	return g.Wait()
}
