package model

// ProductRef is one product master entry, keyed by ISIN with CUSIP as a
// fallback key. LiqRuleKey is a supplied liquidity hint, distinct from the
// final liquidity_bucket a record ends up with.
type ProductRef struct {
	ISIN           string  `csv:"isin"`
	CUSIP          string  `csv:"cusip"`
	Symbol         *string `csv:"symbol"`
	InstrumentType *string `csv:"instrument_type"`
	LiqRuleKey     *string `csv:"liq_rule_key"`
}

// ClientRef is one client master entry, keyed by client identifier.
type ClientRef struct {
	ClientID string  `csv:"customerID"`
	RiskTier *string `csv:"risk_tier"`
	Region   *string `csv:"region"`
}
