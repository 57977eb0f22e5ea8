package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coreunit/jobengine/internal/config"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve this session's Prometheus metrics until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := handleFrom(cmd)
		if err != nil {
			return err
		}

		addr := viper.GetString(config.METRICS_ADDR.Key)

		mux := http.NewServeMux()
		mux.Handle("/metrics", h.metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}

		go func() {
			<-cmd.Context().Done()
			if sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
				log.Warn().Err(err).Msg("sd_notify STOPPING failed")
			} else if sent {
				log.Debug().Msg("sent sd_notify STOPPING")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "serving metrics on %s/metrics\n", addr)
		if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			log.Warn().Err(err).Msg("sd_notify READY failed")
		} else if sent {
			log.Debug().Msg("sent sd_notify READY")
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
			return err
		}
		return nil
	},
}
