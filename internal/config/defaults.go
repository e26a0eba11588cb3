package config

const (
	defaultDataDir              = "~/.local/share/warden"
	defaultLogDir               = "~/.local/share/warden/logs"
	defaultMonitorInterval      = 5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultMetricsListen        = "127.0.0.1:9464"
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Monitor: Monitor{
			IntervalSeconds: defaultMonitorInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Metrics: Metrics{
			Listen: defaultMetricsListen,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Crashes:        true,
		},
	}
}
