package config

const (
	defaultConfigPath           = "~/.config/reelforge/config.toml"
	defaultBaseURL              = "http://127.0.0.1:8000/api"
	defaultTimeoutSeconds       = 30
	defaultLongTimeoutSeconds   = 300
	defaultStateDir             = "~/.local/share/reelforge"
	defaultLogDir               = "~/.local/share/reelforge/logs"
	defaultAdvanceDelayMsec     = 500
	defaultPollIntervalSeconds  = 2
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	envBaseURL                  = "REELFORGE_BASE_URL"
	envNtfyTopic                = "NTFY_TOPIC"
	maxTransportRetries         = 30
	maxAdvanceDelayMsec         = 10_000
	maxPollIntervalSeconds      = 300
	minTimeoutSeconds           = 1
)

// DefaultAssetSource is the provider used when none is chosen.
const DefaultAssetSource = "pexels"

// AssetSources lists the stock-footage providers accepted by the service.
var AssetSources = []string{"pexels", "pixabay", "youtube", "nasa", "wikimedia", "internet_archive"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Service: Service{
			BaseURL:            defaultBaseURL,
			TimeoutSeconds:     defaultTimeoutSeconds,
			LongTimeoutSeconds: defaultLongTimeoutSeconds,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Workflow: Workflow{
			AutoAdvance:      true,
			AdvanceDelayMsec: defaultAdvanceDelayMsec,
		},
		Poller: Poller{
			IntervalSeconds: defaultPollIntervalSeconds,
		},
		Assets: Assets{
			DefaultSource: DefaultAssetSource,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			SessionDone:    true,
			SessionFailed:  true,
			RenderStarted:  false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
