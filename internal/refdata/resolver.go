package refdata

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/pkg/model"
)

// Resolver enriches canonical batches against the reference masters. It owns
// no state across calls: Enrich is a pure function of the batch and masters.
type Resolver struct {
	masters *Masters
	logger  *zap.Logger
}

func NewResolver(masters *Masters, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{masters: masters, logger: logger}
}

// Enrich returns an enriched batch of the same cardinality and row order.
// No rows are added or dropped; the liq_rule_key hint is consumed internally
// and never appears on the output records.
func (r *Resolver) Enrich(batch *model.Batch) *model.Batch {
	out := &model.Batch{
		Records: make([]model.Record, len(batch.Records)),
		Columns: batch.Columns,
	}

	degraded := 0
	for i := range batch.Records {
		rec := batch.Records[i] // copy

		hint := r.resolveProduct(&rec)
		if !r.resolveClient(&rec) {
			degraded++
		}
		deriveNotional(&rec)
		rec.LiquidityBucket = deriveBucket(&rec, hint)

		out.Records[i] = rec
	}

	if !r.masters.ClientKeyed() && len(batch.Records) > 0 {
		r.logger.Warn("client enrichment degraded to nulls for entire batch",
			zap.Int("rows", degraded))
	}
	return out
}

// resolveProduct joins the record against the product master: primary on
// ISIN, falling back to CUSIP when the primary join yields no symbol.
// Reference values win when present; a known record value is never
// overwritten with a null. Returns the liq_rule_key hint for bucket
// derivation.
func (r *Resolver) resolveProduct(rec *model.Record) *string {
	var ref *model.ProductRef
	if rec.ISIN != nil {
		if p, ok := r.masters.Product(*rec.ISIN); ok {
			ref = p
		}
	}
	if (ref == nil || ref.Symbol == nil) && rec.CUSIP != nil {
		if p, ok := r.masters.ProductByCUSIP(*rec.CUSIP); ok {
			ref = p
		}
	}
	if ref == nil {
		return nil
	}

	if ref.Symbol != nil {
		rec.Symbol = ref.Symbol
	}
	if ref.InstrumentType != nil {
		rec.InstrumentType = ref.InstrumentType
	}
	return ref.LiqRuleKey
}

// resolveClient joins on client identifier. When the client master carries no
// recognizable key column, risk_tier and region are nulled for every row
// instead of failing the batch. Reports whether the join was degraded.
func (r *Resolver) resolveClient(rec *model.Record) bool {
	if !r.masters.ClientKeyed() {
		rec.RiskTier = nil
		rec.Region = nil
		return false
	}
	if rec.ClientID == nil {
		return true
	}
	ref, ok := r.masters.Client(*rec.ClientID)
	if !ok {
		return true
	}
	if ref.RiskTier != nil {
		rec.RiskTier = ref.RiskTier
	}
	if ref.Region != nil {
		rec.Region = ref.Region
	}
	return true
}

// deriveNotional always recomputes notional = quantity × price. A previously
// supplied notional is overwritten, and rows missing either input end up
// with a null notional.
func deriveNotional(rec *model.Record) {
	if rec.Quantity == nil || rec.Price == nil {
		rec.Notional = nil
		return
	}
	n := decimal.NewFromInt(*rec.Quantity).Mul(decimal.NewFromFloat(*rec.Price))
	v, _ := n.Float64()
	rec.Notional = &v
}

// bucketStep is one step of the liquidity precedence chain. A non-nil return
// short-circuits the remaining steps.
type bucketStep func(rec *model.Record, hint *string) *string

// Precedence: an existing bucket wins, then the master's liq_rule_key hint,
// then the instrument/notional threshold rule.
var bucketSteps = []bucketStep{
	func(rec *model.Record, _ *string) *string { return rec.LiquidityBucket },
	func(_ *model.Record, hint *string) *string { return hint },
	thresholdBucket,
}

func deriveBucket(rec *model.Record, hint *string) *string {
	for _, step := range bucketSteps {
		if b := step(rec, hint); b != nil {
			return b
		}
	}
	return nil
}

// Threshold boundaries are inclusive.
const (
	bondHighNotional  = 5_000_000
	bondMedNotional   = 1_000_000
	derivHighNotional = 10_000_000
	derivMedNotional  = 2_000_000
)

func thresholdBucket(rec *model.Record, _ *string) *string {
	if rec.InstrumentType == nil || rec.Notional == nil {
		return nil
	}
	n := *rec.Notional

	switch *rec.InstrumentType {
	case "BOND":
		return bucketFor(n, bondHighNotional, bondMedNotional)
	case "SWAP", "FUTURE", "OPTION", "REPO":
		return bucketFor(n, derivHighNotional, derivMedNotional)
	default:
		return nil
	}
}

func bucketFor(notional float64, high, med float64) *string {
	switch {
	case notional >= high:
		return model.Ptr("HIGH")
	case notional >= med:
		return model.Ptr("MED")
	default:
		return model.Ptr("LOW")
	}
}
