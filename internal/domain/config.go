package domain

// Config holds the complete service configuration.
type Config struct {
	// Profile selects the default backing services
	Profile Profile `json:"profile"`

	Server   ServerConfig   `json:"server"`
	Dataset  DatasetConfig  `json:"dataset"`
	Analysis AnalysisConfig `json:"analysis"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`
	Predictor  PredictorConfig  `json:"predictor"`
	Worker     WorkerConfig     `json:"worker"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// Profile represents a deployment profile.
type Profile string

const (
	// ProfileStandalone runs everything in-process: SQLite, LRU cache, channel bus.
	ProfileStandalone Profile = "standalone"

	// ProfileDistributed uses PostgreSQL, Redis and NATS.
	ProfileDistributed Profile = "distributed"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// DatasetConfig tells the dataset provider where the rentals come from.
type DatasetConfig struct {
	// Source is "csv" or "database"
	Source string `json:"source"`

	// Path of the CSV export when Source is "csv"
	Path string `json:"path"`
}

// AnalysisConfig holds the threshold candidates offered to callers.
type AnalysisConfig struct {
	Thresholds       []float64 `json:"thresholds"`
	DefaultThreshold float64   `json:"defaultThreshold"`
	ReportTTL        int       `json:"reportTtl"` // seconds a cached report stays valid
}

// PredictorConfig holds settings for the remote price model.
type PredictorConfig struct {
	URL      string `json:"url"`
	Timeout  int    `json:"timeout"` // seconds
	Currency string `json:"currency"`
}

// WorkerConfig enables the async analysis worker.
type WorkerConfig struct {
	Enabled bool `json:"enabled"`
	JobTTL  int  `json:"jobTtl"` // seconds a finished job stays readable
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// DefaultConfig returns the standalone configuration.
func DefaultConfig() *Config {
	return &Config{
		Profile: ProfileStandalone,
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Dataset: DatasetConfig{
			Source: "csv",
			Path:   "./data/get_around_delay_analysis.csv",
		},
		Analysis: AnalysisConfig{
			Thresholds:       append([]float64(nil), DefaultThresholds...),
			DefaultThreshold: DefaultThresholds[0],
			ReportTTL:        3600,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./getaround.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     300,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Predictor: PredictorConfig{
			URL:      "https://yona-p-getaround-api.hf.space/predict",
			Timeout:  15,
			Currency: "EUR",
		},
		Worker: WorkerConfig{
			Enabled: true,
			JobTTL:  3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "getaround",
		},
	}
}

// DistributedConfig returns a configuration backed by PostgreSQL, Redis and NATS.
// The dataset is read from the database so every replica sees the same rows.
func DistributedConfig() *Config {
	cfg := DefaultConfig()
	cfg.Profile = ProfileDistributed
	cfg.Dataset.Source = "database"
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "getaround",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       300,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
