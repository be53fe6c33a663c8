package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/surveilops/trade-curator/internal/api"
	"github.com/surveilops/trade-curator/internal/jobs"
	"github.com/surveilops/trade-curator/internal/pipeline"
	"github.com/surveilops/trade-curator/internal/publisher"
	"github.com/surveilops/trade-curator/internal/store"
	"github.com/surveilops/trade-curator/pkg/config"
	"github.com/surveilops/trade-curator/pkg/logger"
	"github.com/surveilops/trade-curator/pkg/secrets"
	"github.com/surveilops/trade-curator/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [trade-curator]...")

	// --- Resolve database DSN (env or AWS Secrets Manager) ---
	dsn := cfg.DatabaseURL
	if cfg.SecretsMode == "aws" {
		provider, err := secrets.NewAWSProvider(cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to init AWS provider", "error", err)
		}
		secret, err := provider.GetSecret(ctx, cfg.DBSecretKey)
		if err != nil {
			logg.Fatalw("failed to resolve database secret", "error", err)
		}
		dsn = secret["dsn"]
	}
	if dsn != "" {
		logg.Info("connecting to DSN: ", utils.MaskDSN(dsn))
	}

	// --- Run-history store (optional) ---
	var st store.Store
	if cfg.RedisAddr != "" {
		var err error
		st, err = store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, dsn, store.PGPoolConfig{}, cfg.MetricsTTL, logger.L())
		if err != nil {
			logg.Fatalw("failed to init store", "error", err)
		}
		defer st.Close() //nolint:errcheck
	} else {
		logg.Warn("no REDIS_ADDR configured; run history disabled")
	}

	// --- Event sink (optional) ---
	var sink pipeline.EventSink
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		defer nc.Drain() //nolint:errcheck

		pub, err := publisher.New(nc, cfg.OutboundSubject, cfg.ServiceName)
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
		sink = pub
	} else {
		logg.Warn("no NATS_URL configured; run events disabled")
	}

	// --- Pipeline (core curation logic) ---
	pipe := pipeline.New(pipeline.Inputs{
		RawTradesCSV:     cfg.RawTradesCSV,
		MappingCSV:       cfg.MappingCSV,
		ProductMasterCSV: cfg.ProductMasterCSV,
		ClientMasterCSV:  cfg.ClientMasterCSV,
		OutcomeDir:       cfg.OutcomeDir,
	}, logger.L(), st, sink)

	// One-shot mode for batch schedulers: run once and exit.
	if config.GetEnvBool("ONE_SHOT", false) {
		if _, err := pipe.Execute(ctx); err != nil {
			logg.Fatalw("run failed", "error", err)
		}
		return
	}

	if config.GetEnvBool("RUN_ON_START", false) {
		if _, err := pipe.Execute(ctx); err != nil {
			logg.Errorw("initial run failed", "error", err)
		}
	}

	if interval := config.GetEnvDuration("RUN_INTERVAL", 0); interval > 0 {
		scheduler := jobs.NewRunScheduler(logger.L(), pipe, interval)
		go scheduler.Start(ctx)
	}

	// --- HTTP API ---
	app := fiber.New()
	h := &api.Handler{
		Logger:   logger.L(),
		Pipeline: pipe,
		Store:    st,
	}
	api.RegisterRoutes(app, st, h)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[trade-curator] running",
		"raw_trades", cfg.RawTradesCSV,
		"outcome_dir", cfg.OutcomeDir,
	)

	<-ctx.Done()
	stop()
	logg.Info("shutting down [trade-curator]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.ShutdownWithContext(shutdownCtx) //nolint:errcheck
}
