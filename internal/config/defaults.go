package config

const (
	defaultDataDir            = "~/.local/share/reelsync"
	defaultLogDir             = "~/.local/share/reelsync/logs"
	defaultLetterboxdBaseURL  = "https://letterboxd.com"
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBLanguage       = "en-US"
	defaultTraktBaseURL       = "https://api.trakt.tv"
	defaultBatchSize          = 50
	defaultResolveWorkers     = 10
	defaultCheckpointInterval = 10
	defaultRequestDelayMS     = 200
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Letterboxd: Letterboxd{
			BaseURL: defaultLetterboxdBaseURL,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Trakt: Trakt{
			BaseURL: defaultTraktBaseURL,
		},
		Sync: Sync{
			BatchSize:          defaultBatchSize,
			ResolveWorkers:     defaultResolveWorkers,
			CheckpointInterval: defaultCheckpointInterval,
			RequestDelayMS:     defaultRequestDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
