package config

const (
	defaultDataDir        = "~/.local/share/postscan"
	defaultLogDir         = "~/.local/share/postscan/logs"
	defaultBaseURL        = "http://localhost:8000"
	defaultRequestTimeout = 30
	defaultUploadTimeout  = 60
	defaultPollInterval   = 120
	defaultPageSize       = 50
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
			UploadTimeout:  defaultUploadTimeout,
		},
		Reconcile: Reconcile{
			PollInterval: defaultPollInterval,
			PageSize:     defaultPageSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
