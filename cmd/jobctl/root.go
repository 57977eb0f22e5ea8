package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coreunit/jobengine/internal/config"
	"github.com/coreunit/jobengine/internal/engine"
	"github.com/coreunit/jobengine/internal/history"
	"github.com/coreunit/jobengine/internal/logging"
	"github.com/coreunit/jobengine/internal/metrics"
	"github.com/coreunit/jobengine/internal/notifybus"
)

// engineCtxKey is how the running Manager and its registry are threaded
// through cobra's command context, via the usual context.WithValue
// client-handoff idiom.
type engineCtxKey struct{}

// engineHandle bundles the pieces PersistentPreRunE wires up and that
// subcommands need: the Manager itself, its metrics collector (for
// serve-metrics), its history store (for the history command), and a
// registry of units installed this session (for install to resolve unit
// names back to execUnit values).
type engineHandle struct {
	manager *engine.Manager
	stop    context.CancelFunc
	done    chan struct{}

	metrics *metrics.Collector
	history *history.Store

	units map[string]*execUnit
}

var rootCmd = &cobra.Command{
	Use:   "jobctl",
	Short: "Operate an in-process job engine instance",
	Long: `jobctl drives a job engine Manager embedded in this same process.

There is no wire protocol in this repository (the engine is a library, not
a daemon), so every jobctl invocation starts a fresh Manager, and state
does not persist between invocations except through the history store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.Component(logging.New(viper.GetString(config.LOG_LEVEL.Key)), "jobctl")

		collector := metrics.NewCollector()
		store := history.NewStore(viper.GetString(config.HISTORY_PATH.Key))

		m := engine.New(
			engine.WithLogger(logger),
			engine.WithNotifier(notifybus.NewChanSink()),
			engine.WithHistory(store),
			engine.WithMetrics(collector),
			engine.WithDefaultJobTimeout(viper.GetDuration(config.DEFAULT_JOB_TIMEOUT.Key)),
		)

		ctx, cancel := context.WithCancel(cmd.Context())
		done := make(chan struct{})
		go func() {
			m.Run(ctx)
			close(done)
		}()
		// Give the dispatcher goroutine a moment to flip its running
		// flag before the first subcommand submits work.
		time.Sleep(time.Millisecond)

		h := &engineHandle{
			manager: m,
			stop:    cancel,
			done:    done,
			metrics: collector,
			history: store,
			units:   make(map[string]*execUnit),
		}

		cmd.SetContext(context.WithValue(ctx, engineCtxKey{}, h))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		h, ok := cmd.Context().Value(engineCtxKey{}).(*engineHandle)
		if !ok {
			return nil
		}
		h.stop()
		<-h.done
		return nil
	},
}

func handleFrom(cmd *cobra.Command) (*engineHandle, error) {
	h, ok := cmd.Context().Value(engineCtxKey{}).(*engineHandle)
	if !ok {
		return nil, fmt.Errorf("jobctl: no engine handle in context")
	}
	return h, nil
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, or empty to disable)")
	rootCmd.PersistentFlags().String("history-path", "", "bbolt history database path (overrides config default)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "listen address for serve-metrics (overrides config default)")
	if err := config.BindFlags(rootCmd.PersistentFlags()); err != nil {
		log.Fatal().Err(err).Msg("failed to bind flags")
	}

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
