// Package config holds the engine's tunables. Each setting is a viper key
// plus an environment variable fallback, bound once at init time.
package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Item describes one tunable: its viper key, default value, environment
// variable, and the typed viper getter used to read it back.
type Item[T any] struct {
	Key     string
	Default T
	Env     string
	Get     func(string) T
}

var (
	LOG_LEVEL = Item[string]{"options.log_level", "info", "JOBENGINE_LOG_LEVEL", viper.GetString}

	DISPATCH_TICK_JITTER = Item[time.Duration]{
		"engine.dispatch_tick_jitter", 0, "JOBENGINE_DISPATCH_TICK_JITTER", viper.GetDuration,
	}
	DEFAULT_JOB_TIMEOUT = Item[time.Duration]{
		"engine.default_job_timeout", 90 * time.Second, "JOBENGINE_DEFAULT_JOB_TIMEOUT", viper.GetDuration,
	}
	RUN_QUEUE_BUFFER = Item[int]{
		"engine.run_queue_buffer", 256, "JOBENGINE_RUN_QUEUE_BUFFER", viper.GetInt,
	}

	HISTORY_PATH = Item[string]{
		"history.path", "/var/lib/jobengine/history.db", "JOBENGINE_HISTORY_PATH", viper.GetString,
	}
	HISTORY_RETENTION = Item[time.Duration]{
		"history.retention", 7 * 24 * time.Hour, "JOBENGINE_HISTORY_RETENTION", viper.GetDuration,
	}

	METRICS_ADDR = Item[string]{
		"metrics.addr", ":9558", "JOBENGINE_METRICS_ADDR", viper.GetString,
	}

	DBUS_NAME = Item[string]{
		"notifybus.dbus_name", "org.coreunit.JobEngine1", "JOBENGINE_DBUS_NAME", viper.GetString,
	}
)

func init() {
	setDefaults()
	bindEnvVars()
}

func setDefaults() {
	viper.SetDefault(LOG_LEVEL.Key, LOG_LEVEL.Default)

	viper.SetDefault(DISPATCH_TICK_JITTER.Key, DISPATCH_TICK_JITTER.Default)
	viper.SetDefault(DEFAULT_JOB_TIMEOUT.Key, DEFAULT_JOB_TIMEOUT.Default)
	viper.SetDefault(RUN_QUEUE_BUFFER.Key, RUN_QUEUE_BUFFER.Default)

	viper.SetDefault(HISTORY_PATH.Key, HISTORY_PATH.Default)
	viper.SetDefault(HISTORY_RETENTION.Key, HISTORY_RETENTION.Default)

	viper.SetDefault(METRICS_ADDR.Key, METRICS_ADDR.Default)

	viper.SetDefault(DBUS_NAME.Key, DBUS_NAME.Default)
}

func bindEnvVars() {
	viper.BindEnv(LOG_LEVEL.Key, LOG_LEVEL.Env)

	viper.BindEnv(DISPATCH_TICK_JITTER.Key, DISPATCH_TICK_JITTER.Env)
	viper.BindEnv(DEFAULT_JOB_TIMEOUT.Key, DEFAULT_JOB_TIMEOUT.Env)
	viper.BindEnv(RUN_QUEUE_BUFFER.Key, RUN_QUEUE_BUFFER.Env)

	viper.BindEnv(HISTORY_PATH.Key, HISTORY_PATH.Env)
	viper.BindEnv(HISTORY_RETENTION.Key, HISTORY_RETENTION.Env)

	viper.BindEnv(METRICS_ADDR.Key, METRICS_ADDR.Env)

	viper.BindEnv(DBUS_NAME.Key, DBUS_NAME.Env)
}

// BindFlags wires the pflag flags jobctl exposes on its root command to
// the same viper keys, so CLI flags take priority over env vars and
// config-file values.
func BindFlags(flags *pflag.FlagSet) error {
	if f := flags.Lookup("log-level"); f != nil {
		if err := viper.BindPFlag(LOG_LEVEL.Key, f); err != nil {
			return err
		}
	}
	if f := flags.Lookup("history-path"); f != nil {
		if err := viper.BindPFlag(HISTORY_PATH.Key, f); err != nil {
			return err
		}
	}
	if f := flags.Lookup("metrics-addr"); f != nil {
		if err := viper.BindPFlag(METRICS_ADDR.Key, f); err != nil {
			return err
		}
	}
	return nil
}
