package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`
	}

	// Database configuration
	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/propcalc.db"`
	}

	// Fetch configuration
	Fetch struct {
		// HTTP timeout per request (in seconds)
		Timeout int `env:"FETCH_TIMEOUT" envDefault:"30"`

		// Maximum number of fetch attempts per source
		MaxRetries int `env:"FETCH_MAX_RETRIES" envDefault:"3"`

		// Base delay for exponential backoff (in milliseconds)
		BackoffBase int `env:"FETCH_BACKOFF_BASE_MS" envDefault:"500"`

		// Upper bound on a single backoff delay (in milliseconds)
		BackoffMax int `env:"FETCH_BACKOFF_MAX_MS" envDefault:"10000"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Number of records per bulk database write
		BatchSize int `env:"BATCH_SIZE" envDefault:"100"`

		// Number of concurrent batch processors draining the queue
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`

		// Retry a failed batch row by row so one bad row cannot sink it
		RowFallback bool `env:"BATCH_ROW_FALLBACK" envDefault:"false"`
	}

	// Ingestion configuration
	Ingestion struct {
		// Maximum number of sources ingested at the same time
		MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" envDefault:"3"`

		// Directory run reports are written to
		ReportDir string `env:"INGEST_REPORT_DIR" envDefault:"reports"`

		// Minutes between scheduled ingestion runs (0 disables the scheduler)
		Interval int `env:"INGEST_INTERVAL_MINUTES" envDefault:"1440"`
	}

	// Quality scoring configuration
	Quality struct {
		CompletenessWeight float64 `env:"QUALITY_COMPLETENESS_WEIGHT" envDefault:"0.4"`
		ConsistencyWeight  float64 `env:"QUALITY_CONSISTENCY_WEIGHT" envDefault:"0.3"`
		ValidityWeight     float64 `env:"QUALITY_VALIDITY_WEIGHT" envDefault:"0.3"`

		// Rows per scoring chunk; chunking bounds memory, not the result
		ChunkSize int `env:"QUALITY_CHUNK_SIZE" envDefault:"5000"`
	}

	// Telegram notification configuration (disabled unless both are set)
	Telegram struct {
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
