package model

// Record is the canonical trade shape every inbound row is mapped to before
// enrichment. Every declared field is always present; a missing value is an
// explicit nil, never an absent key, so downstream logic only ever does null
// checks instead of schema branching.
type Record struct {
	TradeID         *string  `json:"trade_id" csv:"trade_id"`
	OrderID         *string  `json:"order_id" csv:"order_id"`
	ClientID        *string  `json:"client_id" csv:"client_id"`
	ISIN            *string  `json:"isin" csv:"isin"`
	CUSIP           *string  `json:"cusip" csv:"cusip"`
	Symbol          *string  `json:"symbol" csv:"symbol"`
	Side            *string  `json:"side" csv:"side"`
	Quantity        *int64   `json:"quantity" csv:"quantity"`
	Price           *float64 `json:"price" csv:"price"`
	TradeDate       *string  `json:"trade_date" csv:"trade_date"` // YYYY-MM-DD
	TradeTS         *string  `json:"trade_ts" csv:"trade_ts"`     // RFC3339 UTC
	Currency        *string  `json:"currency" csv:"currency"`
	Venue           *string  `json:"venue" csv:"venue"`
	InstrumentType  *string  `json:"instrument_type" csv:"instrument_type"`
	LiquidityBucket *string  `json:"liquidity_bucket" csv:"liquidity_bucket"` // HIGH / MED / LOW
	Desk            *string  `json:"desk" csv:"desk"`
	SourceSystem    *string  `json:"source_system" csv:"source_system"`
	RiskTier        *string  `json:"risk_tier" csv:"risk_tier"`
	Region          *string  `json:"region" csv:"region"`
	Notional        *float64 `json:"notional" csv:"notional"`
}

// CanonicalOrder is the fixed column order of the canonical schema.
var CanonicalOrder = []string{
	"trade_id", "order_id", "client_id",
	"isin", "cusip", "symbol",
	"side", "quantity", "price",
	"trade_date", "trade_ts",
	"currency", "venue", "instrument_type",
	"liquidity_bucket", "desk", "source_system",
	"risk_tier", "region", "notional",
}

// MandatoryFields must be non-null for a trade to be valid.
var MandatoryFields = []string{
	"trade_id", "order_id", "client_id",
	"side", "quantity", "price", "trade_ts", "instrument_type",
}

// Enumerated domains for categorical validation.
var (
	EnumSide       = map[string]bool{"BUY": true, "SELL": true}
	EnumInstrument = map[string]bool{"BOND": true, "SWAP": true, "FUTURE": true, "OPTION": true, "REPO": true}
	EnumCurrency   = map[string]bool{"USD": true, "EUR": true, "GBP": true, "JPY": true}
	EnumLiquidity  = map[string]bool{"HIGH": true, "MED": true, "LOW": true}
)

// SideNormalization maps known sloppy side values to canonical ones.
var SideNormalization = map[string]string{
	"BUY":  "BUY",
	"BUY ": "BUY",
	"SEL":  "SELL",
	"SELL": "SELL",
}

// Batch is a canonical-shaped set of records plus the set of canonical
// columns that were genuinely present upstream. Ingestion pads absent
// columns with nulls; rules that care about structurally missing columns
// (not just null values) consult Columns.
type Batch struct {
	Records []Record
	Columns map[string]bool
}

// HasColumn reports whether a canonical column existed in the source data.
// Batches built programmatically (nil Columns) are treated as complete.
func (b *Batch) HasColumn(name string) bool {
	if b.Columns == nil {
		return true
	}
	return b.Columns[name]
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	return len(b.Records)
}

// IsNull reports whether the named canonical field is null on this record.
// Unknown field names are reported as null.
func (r *Record) IsNull(field string) bool {
	switch field {
	case "trade_id":
		return r.TradeID == nil
	case "order_id":
		return r.OrderID == nil
	case "client_id":
		return r.ClientID == nil
	case "isin":
		return r.ISIN == nil
	case "cusip":
		return r.CUSIP == nil
	case "symbol":
		return r.Symbol == nil
	case "side":
		return r.Side == nil
	case "quantity":
		return r.Quantity == nil
	case "price":
		return r.Price == nil
	case "trade_date":
		return r.TradeDate == nil
	case "trade_ts":
		return r.TradeTS == nil
	case "currency":
		return r.Currency == nil
	case "venue":
		return r.Venue == nil
	case "instrument_type":
		return r.InstrumentType == nil
	case "liquidity_bucket":
		return r.LiquidityBucket == nil
	case "desk":
		return r.Desk == nil
	case "source_system":
		return r.SourceSystem == nil
	case "risk_tier":
		return r.RiskTier == nil
	case "region":
		return r.Region == nil
	case "notional":
		return r.Notional == nil
	default:
		return true
	}
}

// Keys renders the traceability display string carried on breach records.
func (r *Record) Keys() string {
	t, o := "NA", "NA"
	if r.TradeID != nil {
		t = *r.TradeID
	}
	if r.OrderID != nil {
		o = *r.OrderID
	}
	return "trade_id=" + t + "|order_id=" + o
}

// Ptr returns a pointer to v. Convenience for building nullable fields.
func Ptr[T any](v T) *T {
	return &v
}
