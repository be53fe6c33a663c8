package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/pkg/model"
)

// Paths points at the artifacts one run produced.
type Paths struct {
	Curated    string `json:"curated_path"`
	Failed     string `json:"failed_path"`
	Exceptions string `json:"exceptions_path"`
	Metrics    string `json:"metrics_path"`
}

// Writer materializes run results as files under the outcome directory:
// curated and failed trade CSVs, the breach ledger as JSONL, and the run
// metrics as JSON. Downstream surface only, no decision logic.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, logger: logger}
}

// WriteAll writes every artifact for the run. Any write failure aborts with
// a wrapped error.
func (w *Writer) WriteAll(res *model.RunResult) (*Paths, error) {
	ts := Timestamp(res.Metrics.RunTS)

	paths := &Paths{
		Curated:    filepath.Join(w.dir, "curated", fmt.Sprintf("enriched_validated_trades_%s.csv", ts)),
		Failed:     filepath.Join(w.dir, "exceptions", fmt.Sprintf("failed_trades_%s.csv", ts)),
		Exceptions: filepath.Join(w.dir, "exceptions", fmt.Sprintf("validation_breaches_%s.jsonl", ts)),
		Metrics:    filepath.Join(w.dir, "metrics", fmt.Sprintf("validation_metrics_%s.json", ts)),
	}

	if err := w.writeCSV(paths.Curated, res.Passed); err != nil {
		return nil, fmt.Errorf("curated: %w", err)
	}
	if err := w.writeCSV(paths.Failed, res.Failed); err != nil {
		return nil, fmt.Errorf("failed trades: %w", err)
	}
	if err := w.writeJSONL(paths.Exceptions, res.Breaches); err != nil {
		return nil, fmt.Errorf("exceptions: %w", err)
	}
	if err := w.writeMetrics(paths.Metrics, res.Metrics); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	w.logger.Info("run artifacts written",
		zap.String("curated", paths.Curated),
		zap.String("exceptions", paths.Exceptions),
		zap.String("metrics", paths.Metrics),
	)
	return paths, nil
}

func (w *Writer) writeCSV(path string, records []model.Record) error {
	data, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// writeJSONL serializes one breach per line. An empty ledger produces an
// empty file, not an empty JSON array.
func (w *Writer) writeJSONL(path string, breaches []model.Breach) error {
	var buf []byte
	for _, br := range breaches {
		line, err := json.Marshal(br)
		if err != nil {
			return err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return writeFile(path, buf)
}

func (w *Writer) writeMetrics(path string, metrics model.RunMetrics) error {
	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Timestamp renders a run instant the way artifact names expect it.
func Timestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
