package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	DatasetSource string
	DatasetPath   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxRetries int

	PredictorMode      string
	ArtifactPath       string
	CacheArtifact      bool
	RemotePredictorURL string
	PredictTimeout     time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	PredictionCacheTTL time.Duration
}

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"

	ModeArtifact = "artifact"
	ModeRemote   = "remote"
)

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	// a missing .env is fine, system env vars still apply
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		HTTPAddr:  v.GetString("HTTP_ADDR"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		DatasetSource: strings.ToLower(v.GetString("DATASET_SOURCE")),
		DatasetPath:   v.GetString("DATASET_PATH"),

		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetString("POSTGRES_PORT"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		MaxRetries: v.GetInt("MAX_RETRIES"),

		PredictorMode:      strings.ToLower(v.GetString("PREDICTOR_MODE")),
		ArtifactPath:       v.GetString("ARTIFACT_PATH"),
		CacheArtifact:      v.GetBool("PREDICTOR_CACHE_ARTIFACT"),
		RemotePredictorURL: v.GetString("REMOTE_PREDICTOR_URL"),
		PredictTimeout:     v.GetDuration("PREDICT_TIMEOUT"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		PredictionCacheTTL: v.GetDuration("PREDICTION_CACHE_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DATASET_SOURCE", SourceCSV)
	v.SetDefault("DATASET_PATH", "./data/filtered_data.csv")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "cardekho")
	v.SetDefault("POSTGRES_PASSWORD", "cardekho123")
	v.SetDefault("POSTGRES_DB", "cardekho")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("MAX_RETRIES", 3)

	v.SetDefault("PREDICTOR_MODE", ModeArtifact)
	v.SetDefault("ARTIFACT_PATH", "./data/pipeline.json")
	v.SetDefault("PREDICTOR_CACHE_ARTIFACT", false)
	v.SetDefault("REMOTE_PREDICTOR_URL", "http://localhost:9000/predict")
	v.SetDefault("PREDICT_TIMEOUT", 10*time.Second)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PREDICTION_CACHE_TTL", time.Hour)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.DatasetSource {
	case SourceCSV, SourcePostgres:
	default:
		return fmt.Errorf("unknown DATASET_SOURCE %q", c.DatasetSource)
	}
	switch c.PredictorMode {
	case ModeArtifact, ModeRemote:
	default:
		return fmt.Errorf("unknown PREDICTOR_MODE %q", c.PredictorMode)
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
