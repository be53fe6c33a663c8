package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration for a service instance.
// It supports environment-based initialization, with sensible defaults.
type Config struct {
	ServiceName string // e.g. "trade-curator"
	Env         string // e.g. "dev", "uat", "prod"
	LogLevel    string // "debug", "info", etc.
	Port        int    // service HTTP port

	// Input files
	RawTradesCSV    string
	MappingCSV      string // source_field -> target_field mapping
	ProductMasterCSV string
	ClientMasterCSV string

	// Output directory for curated/exception/metrics artifacts
	OutcomeDir string

	// Infra
	NATSURL         string // e.g. nats://localhost:4222
	OutboundSubject string // NATS subject for run-completed events
	RedisAddr       string // e.g. localhost:6379
	RedisDB         int
	DatabaseURL     string
	MetricsTTL      time.Duration // TTL for cached latest-run metrics

	// Secrets
	SecretsMode string // "env" or "aws"
	AWSRegion   string
	DBSecretKey string // secrets-manager key holding the database DSN
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &Config{
		ServiceName:     GetEnv("SERVICE_NAME", "trade-curator"),
		Env:             GetEnv("ENV", "dev"),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		Port:            GetEnvInt("PORT", 9030),
		RawTradesCSV:    GetEnv("RAW_TRADES_CSV", "00_inbound/raw_trades.csv"),
		MappingCSV:      GetEnv("MAPPING_CSV", "00_inbound/source_to_target_mapping.csv"),
		ProductMasterCSV: GetEnv("PRODUCT_MASTER_CSV", "00_inbound/product_master.csv"),
		ClientMasterCSV: GetEnv("CLIENT_MASTER_CSV", "00_inbound/client_master.csv"),
		OutcomeDir:      GetEnv("OUTCOME_DIR", "20_outcome"),
		NATSURL:         GetEnv("NATS_URL", ""),
		OutboundSubject: GetEnv("OUTBOUND_SUBJECT", "evt.curation.run_completed.v1"),
		RedisAddr:       GetEnv("REDIS_ADDR", ""),
		RedisDB:         GetEnvInt("REDIS_DB", 0),
		DatabaseURL:     GetEnv("DATABASE_URL", ""),
		MetricsTTL:      GetEnvDuration("METRICS_TTL", 24*time.Hour),
		SecretsMode:     GetEnv("SECRETS_MODE", "env"),
		AWSRegion:       GetEnv("AWS_REGION", "us-east-2"),
		DBSecretKey:     GetEnv("DB_SECRET_KEY", "trade-curator/db"),
	}
}
