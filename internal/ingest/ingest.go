package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/pkg/model"
)

// Ingestor reads raw trade CSVs and shapes them to the canonical schema:
// source columns renamed through the mapping, values normalized, every
// canonical field made explicitly present. The raw file's headers are
// arbitrary until the mapping is applied, so rows are handled as generic
// string cells rather than struct-bound.
type Ingestor struct {
	mapping map[string]string
	logger  *zap.Logger
}

func New(mapping map[string]string, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{mapping: mapping, logger: logger}
}

// Ingest loads a raw trade file into a canonical batch. An unreadable file
// is a structural error; a value that fails coercion becomes a null field
// and is logged, never raised.
func (g *Ingestor) Ingest(path string) (*model.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw trades file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse raw trades file: %w", err)
	}
	if len(rows) == 0 {
		return &model.Batch{Columns: map[string]bool{}}, nil
	}

	header := g.canonicalHeader(rows[0])
	columns := make(map[string]bool, len(header))
	for _, col := range header {
		columns[col] = true
	}

	batch := &model.Batch{
		Records: make([]model.Record, 0, len(rows)-1),
		Columns: columns,
	}
	for rowNum, cells := range rows[1:] {
		rec := g.buildRecord(header, cells, rowNum)
		batch.Records = append(batch.Records, rec)
	}

	g.logger.Info("ingestion complete",
		zap.Int("rows", batch.Len()),
		zap.Int("columns", len(columns)),
	)
	return batch, nil
}

// canonicalHeader trims source column names and renames them through the
// mapping. Unmapped columns keep their source name and are dropped later by
// schema coercion.
func (g *Ingestor) canonicalHeader(raw []string) []string {
	out := make([]string, len(raw))
	for i, col := range raw {
		col = strings.TrimSpace(col)
		if target, ok := g.mapping[col]; ok {
			col = target
		}
		out[i] = col
	}
	return out
}

func (g *Ingestor) buildRecord(header, cells []string, rowNum int) model.Record {
	var rec model.Record
	for i, col := range header {
		if i >= len(cells) {
			break
		}
		val := strings.TrimSpace(cells[i])
		if val == "" {
			continue
		}
		g.setField(&rec, col, val, rowNum)
	}
	return rec
}

func (g *Ingestor) setField(rec *model.Record, col, val string, rowNum int) {
	switch col {
	case "trade_id":
		rec.TradeID = &val
	case "order_id":
		rec.OrderID = &val
	case "client_id":
		rec.ClientID = &val
	case "isin":
		rec.ISIN = &val
	case "cusip":
		rec.CUSIP = &val
	case "symbol":
		rec.Symbol = &val
	case "side":
		side := normalizeSide(val)
		rec.Side = &side
	case "quantity":
		rec.Quantity = g.coerceInt(col, val, rowNum)
	case "price":
		rec.Price = g.coerceFloat(col, val, rowNum)
	case "trade_date":
		rec.TradeDate = g.coerceDate(col, val, rowNum)
	case "trade_ts":
		rec.TradeTS = g.coerceTimestamp(col, val, rowNum)
	case "currency":
		rec.Currency = &val
	case "venue":
		rec.Venue = &val
	case "instrument_type":
		rec.InstrumentType = &val
	case "liquidity_bucket":
		rec.LiquidityBucket = &val
	case "desk":
		rec.Desk = &val
	case "source_system":
		rec.SourceSystem = &val
	case "risk_tier":
		rec.RiskTier = &val
	case "region":
		rec.Region = &val
	case "notional":
		rec.Notional = g.coerceFloat(col, val, rowNum)
	default:
		// unmapped source column, dropped by schema coercion
	}
}

func normalizeSide(val string) string {
	if norm, ok := model.SideNormalization[val]; ok {
		return norm
	}
	return val
}

func (g *Ingestor) coerceInt(col, val string, rowNum int) *int64 {
	if i, err := strconv.ParseInt(val, 10, 64); err == nil {
		return &i
	}
	// accept integral floats like "100.0"
	if f, err := strconv.ParseFloat(val, 64); err == nil && f == float64(int64(f)) {
		i := int64(f)
		return &i
	}
	g.warnCoercion(col, val, rowNum)
	return nil
}

func (g *Ingestor) coerceFloat(col, val string, rowNum int) *float64 {
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return &f
	}
	g.warnCoercion(col, val, rowNum)
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"01/02/2006",
}

func (g *Ingestor) coerceDate(col, val string, rowNum int) *string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			s := t.Format("2006-01-02")
			return &s
		}
	}
	g.warnCoercion(col, val, rowNum)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (g *Ingestor) coerceTimestamp(col, val string, rowNum int) *string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			s := t.UTC().Format("2006-01-02T15:04:05Z")
			return &s
		}
	}
	g.warnCoercion(col, val, rowNum)
	return nil
}

func (g *Ingestor) warnCoercion(col, val string, rowNum int) {
	g.logger.Warn("type coercion failed, field nulled",
		zap.String("column", col),
		zap.String("value", val),
		zap.Int("row", rowNum),
	)
}
