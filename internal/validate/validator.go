package validate

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/internal/rules"
	"github.com/surveilops/trade-curator/pkg/model"
)

// Orchestrator runs the rule battery over an enriched batch and partitions
// rows into passed and failed sets. It is the only component that assembles
// run results.
type Orchestrator struct {
	battery []rules.Rule
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{battery: rules.Battery(), logger: logger}
}

// Run evaluates every rule independently, unions the breaches, and splits
// the batch. A row fails iff it carries at least one breach; severity plays
// no part in the partition. Always completes — data quality is recorded,
// never raised.
func (o *Orchestrator) Run(batch *model.Batch) *model.RunResult {
	var breaches []model.Breach
	for _, rule := range o.battery {
		found := rule.Eval(batch)
		if len(found) > 0 {
			o.logger.Debug("rule breaches",
				zap.String("rule_id", rule.ID),
				zap.Int("count", len(found)),
			)
		}
		breaches = append(breaches, found...)
	}

	failedIdx := make(map[int]bool, len(breaches))
	for _, br := range breaches {
		failedIdx[br.RowIndex] = true
	}

	passed := make([]model.Record, 0, batch.Len())
	failed := make([]model.Record, 0, len(failedIdx))
	for i, rec := range batch.Records {
		if failedIdx[i] {
			failed = append(failed, rec)
		} else {
			passed = append(passed, rec)
		}
	}

	res := &model.RunResult{
		Metrics: model.RunMetrics{
			RunID:       uuid.New(),
			RunTS:       time.Now().UTC(),
			InputRows:   batch.Len(),
			PassedRows:  len(passed),
			FailedRows:  len(failed),
			BreachCount: len(breaches),
			PassRatePct: passRate(len(passed), batch.Len()),
		},
		Passed:   passed,
		Failed:   failed,
		Breaches: breaches,
	}

	o.logger.Info("validation complete",
		zap.Int("input", res.Metrics.InputRows),
		zap.Int("passed", res.Metrics.PassedRows),
		zap.Int("failed", res.Metrics.FailedRows),
		zap.Int("breaches", res.Metrics.BreachCount),
		zap.Float64("pass_rate_pct", res.Metrics.PassRatePct),
	)
	return res
}

// passRate is 100 × passed / input rounded to two decimals; an empty batch
// yields 0.0 rather than a division error.
func passRate(passed, input int) float64 {
	if input < 1 {
		input = 1
	}
	rate := 100.0 * float64(passed) / float64(input)
	return math.Round(rate*100) / 100
}
