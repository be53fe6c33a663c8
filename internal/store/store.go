package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/pkg/model"
)

const latestMetricsKey = "curation:latest_metrics"

// Store defines the contract for caching and persisting run history.
type Store interface {
	SaveRun(ctx context.Context, res *model.RunResult) error
	LatestMetrics(ctx context.Context) (*model.RunMetrics, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
	HealthCheck(ctx context.Context) error
	Close() error
}

type HybridStore struct {
	redis      *redis.Client
	PG         *pgxpool.Pool
	metricsTTL time.Duration
	logger     *zap.Logger
}

type PGPoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewHybrid creates a Redis-first, Postgres-backed run-history store.
// Postgres is optional; without it, runs are cached but not persisted.
func NewHybrid(redisAddr string, redisDB int, pgURL string, pgPoolConfig PGPoolConfig, metricsTTL time.Duration, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	var pgPool *pgxpool.Pool
	if pgURL != "" {
		cfg, err := pgxpool.ParseConfig(pgURL)
		if err != nil {
			return nil, fmt.Errorf("invalid pg config: %w", err)
		}
		if pgPoolConfig.MaxConns > 0 {
			cfg.MaxConns = pgPoolConfig.MaxConns
		}
		if pgPoolConfig.MinConns > 0 {
			cfg.MinConns = pgPoolConfig.MinConns
		}
		if pgPoolConfig.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = pgPoolConfig.MaxConnLifetime
		}
		if pgPoolConfig.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = pgPoolConfig.MaxConnIdleTime
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	return &HybridStore{redis: rdb, PG: pgPool, metricsTTL: metricsTTL, logger: logger}, nil
}

// SaveRun caches the run metrics in Redis and, when Postgres is available,
// persists the run row plus one row per breach.
func (s *HybridStore) SaveRun(ctx context.Context, res *model.RunResult) error {
	if err := s.SetJSON(ctx, latestMetricsKey, res.Metrics, s.metricsTTL); err != nil {
		s.logger.Error("store.redis.cache_metrics_failed", zap.Error(err))
		return err
	}

	if s.PG == nil {
		return nil
	}

	m := res.Metrics
	_, err := s.PG.Exec(ctx, `
		INSERT INTO surveillance.curation_run (
			run_id, run_ts, input_rows, passed_rows, failed_rows,
			breach_count, pass_rate_pct
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.RunID, m.RunTS, m.InputRows, m.PassedRows, m.FailedRows,
		m.BreachCount, m.PassRatePct)
	if err != nil {
		s.logger.Error("store.pg.insert_run_failed", zap.Error(err))
		return err
	}

	for _, br := range res.Breaches {
		_, err := s.PG.Exec(ctx, `
			INSERT INTO surveillance.validation_breach (
				run_id, rule_id, severity, reason, row_index, keys
			)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, m.RunID, br.RuleID, br.Severity, br.Reason, br.RowIndex, br.Keys)
		if err != nil {
			s.logger.Error("store.pg.insert_breach_failed",
				zap.String("rule_id", br.RuleID), zap.Error(err))
			return err
		}
	}
	return nil
}

// LatestMetrics returns the most recent run metrics, Redis first, falling
// back to Postgres when the cache is cold.
func (s *HybridStore) LatestMetrics(ctx context.Context) (*model.RunMetrics, error) {
	var m model.RunMetrics
	err := s.GetJSON(ctx, latestMetricsKey, &m)
	if err == nil {
		return &m, nil
	}
	if err != redis.Nil {
		return nil, err
	}

	if s.PG == nil {
		return nil, fmt.Errorf("no run metrics recorded")
	}
	row := s.PG.QueryRow(ctx, `
		SELECT run_id, run_ts, input_rows, passed_rows, failed_rows,
		       breach_count, pass_rate_pct
		FROM surveillance.curation_run
		ORDER BY run_ts DESC
		LIMIT 1
	`)
	if err := row.Scan(&m.RunID, &m.RunTS, &m.InputRows, &m.PassedRows,
		&m.FailedRows, &m.BreachCount, &m.PassRatePct); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *HybridStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

func (s *HybridStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	return s.redis.Close()
}
