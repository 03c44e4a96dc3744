package config

const (
	defaultDataDir = "~/.local/share/vetter"
	defaultLogDir  = "~/.local/share/vetter/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultSweepIntervalMin   = 10
	defaultSweepIntervalMax   = 20
	defaultErrorRetryInterval = 10
	defaultWaitTimeout        = 300
	defaultPollCap            = 5

	defaultJoinTimeout    = 60
	defaultAnalyzeTimeout = 300
	defaultSettleSeconds  = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Inspector: Inspector{
			JoinTimeout:    defaultJoinTimeout,
			AnalyzeTimeout: defaultAnalyzeTimeout,
			SettleSeconds:  defaultSettleSeconds,
			LeaveAfter:     true,
		},
		Workflow: Workflow{
			SweepIntervalMin:   defaultSweepIntervalMin,
			SweepIntervalMax:   defaultSweepIntervalMax,
			ErrorRetryInterval: defaultErrorRetryInterval,
			WaitTimeout:        defaultWaitTimeout,
			PollCap:            defaultPollCap,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
