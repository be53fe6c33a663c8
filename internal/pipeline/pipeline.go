package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/internal/ingest"
	"github.com/surveilops/trade-curator/internal/metrics"
	"github.com/surveilops/trade-curator/internal/refdata"
	"github.com/surveilops/trade-curator/internal/report"
	"github.com/surveilops/trade-curator/internal/store"
	"github.com/surveilops/trade-curator/internal/validate"
	"github.com/surveilops/trade-curator/pkg/model"
)

// EventSink receives run-completed notifications. The NATS publisher
// satisfies this; tests inject fakes.
type EventSink interface {
	PublishRunCompleted(ctx context.Context, m model.RunMetrics) error
}

// Inputs is the explicit run configuration: the files one run consumes and
// where its artifacts land. There is no ambient file-path state.
type Inputs struct {
	RawTradesCSV     string
	MappingCSV       string
	ProductMasterCSV string
	ClientMasterCSV  string
	OutcomeDir       string
}

// Pipeline wires ingestion, enrichment, validation and reporting into one
// entry point. Store and event sink are optional collaborators; a nil value
// means the concern is skipped, never failed.
type Pipeline struct {
	inputs Inputs
	logger *zap.Logger
	store  store.Store
	sink   EventSink

	mu   sync.Mutex // one run at a time
	last *model.RunMetrics
}

func New(inputs Inputs, logger *zap.Logger, st store.Store, sink EventSink) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{inputs: inputs, logger: logger, store: st, sink: sink}
}

// Execute performs one full run: ingest the raw batch, enrich it against the
// reference masters, evaluate the rule battery, write artifacts, persist and
// publish. Structural errors (missing files) abort with no partial output;
// data-quality problems never abort.
func (p *Pipeline) Execute(ctx context.Context) (*model.RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	p.logger.Info("run starting")

	mapping, err := ingest.LoadMapping(p.inputs.MappingCSV)
	if err != nil {
		return p.fail("mapping", err)
	}

	batch, err := ingest.New(mapping, p.logger).Ingest(p.inputs.RawTradesCSV)
	if err != nil {
		return p.fail("ingestion", err)
	}
	metrics.RowsIngested.Add(float64(batch.Len()))

	masters, err := refdata.LoadMasters(p.inputs.ProductMasterCSV, p.inputs.ClientMasterCSV, p.logger)
	if err != nil {
		return p.fail("refdata", err)
	}

	enriched := refdata.NewResolver(masters, p.logger).Enrich(batch)
	res := validate.New(p.logger).Run(enriched)

	if _, err := report.NewWriter(p.inputs.OutcomeDir, p.logger).WriteAll(res); err != nil {
		return p.fail("report", err)
	}

	for _, br := range res.Breaches {
		metrics.BreachesTotal.WithLabelValues(br.RuleID, string(br.Severity)).Inc()
	}

	if p.store != nil {
		if err := p.store.SaveRun(ctx, res); err != nil {
			// persistence is best-effort; artifacts are already on disk
			p.logger.Error("run history persist failed", zap.Error(err))
			metrics.IncError("pipeline", "persist_failed")
		}
	}

	if p.sink != nil {
		if err := p.sink.PublishRunCompleted(ctx, res.Metrics); err != nil {
			p.logger.Error("run event publish failed", zap.Error(err))
			metrics.IncError("pipeline", "publish_failed")
		}
	}

	p.last = &res.Metrics
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	metrics.LastRunTimestamp.Set(float64(res.Metrics.RunTS.Unix()))
	metrics.ObserveDuration(metrics.RunDuration, start)

	p.logger.Info("run complete",
		zap.String("run_id", res.Metrics.RunID.String()),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// LastMetrics returns the metrics of the most recent in-process run, if any.
func (p *Pipeline) LastMetrics() *model.RunMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Pipeline) fail(component string, err error) (*model.RunResult, error) {
	metrics.RunsTotal.WithLabelValues("error").Inc()
	metrics.IncError("pipeline", component)
	p.logger.Error("run aborted", zap.String("component", component), zap.Error(err))
	return nil, err
}
