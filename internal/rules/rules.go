package rules

import (
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/surveilops/trade-curator/pkg/model"
)

// Rule is one independent data-quality check. Check returns the indices of
// offending rows; rules are pure functions of the batch, order-insensitive,
// and never error on bad data — a malformed value is a breach, not a failure.
type Rule struct {
	ID       string
	Severity model.Severity
	Reason   string
	Check    func(b *model.Batch) []int
}

// Eval runs the rule and materializes one breach record per offending row.
func (r Rule) Eval(b *model.Batch) []model.Breach {
	idx := r.Check(b)
	if len(idx) == 0 {
		return nil
	}
	breaches := make([]model.Breach, 0, len(idx))
	for _, i := range idx {
		breaches = append(breaches, model.Breach{
			RuleID:   r.ID,
			Severity: r.Severity,
			Reason:   r.Reason,
			RowIndex: i,
			Keys:     b.Records[i].Keys(),
		})
	}
	return breaches
}

// Battery returns the fixed rule set in stable order. New rules register
// here; the orchestrator never changes.
func Battery() []Rule {
	return []Rule{
		{
			ID:       "R001_MANDATORY",
			Severity: model.SeverityCritical,
			Reason:   "Mandatory fields must not be null",
			Check:    checkMandatory,
		},
		{
			ID:       "R002_ENUMS",
			Severity: model.SeverityHigh,
			Reason:   "Value not in allowed enumerations",
			Check:    checkEnums,
		},
		{
			ID:       "R003_POSITIVE",
			Severity: model.SeverityHigh,
			Reason:   "Quantity and Price must be > 0",
			Check:    checkPositive,
		},
		{
			ID:       "R004_ID_FORMAT",
			Severity: model.SeverityMedium,
			Reason:   "Invalid ISIN/CUSIP format",
			Check:    checkIdentifierFormat,
		},
		{
			ID:       "R005_TS_SANITY",
			Severity: model.SeverityMedium,
			Reason:   "trade_ts must be on/after trade_date",
			Check:    checkTimestampSanity,
		},
		{
			ID:       "R006_NOTIONAL",
			Severity: model.SeverityLow,
			Reason:   "Notional differs from quantity*price (tolerance 0.01)",
			Check:    checkNotionalConsistency,
		},
		{
			ID:       "R007_DUPLICATES",
			Severity: model.SeverityCritical,
			Reason:   "Duplicate trade_id or (order_id,trade_ts,quantity,price) collision",
			Check:    checkDuplicates,
		},
	}
}

// indexSet accumulates offending row indices across a rule's conditions,
// emitting each row at most once per rule.
type indexSet map[int]struct{}

func (s indexSet) add(i int) { s[i] = struct{}{} }

func (s indexSet) sorted() []int {
	if len(s) == 0 {
		return nil
	}
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func checkMandatory(b *model.Batch) []int {
	set := indexSet{}
	for _, field := range model.MandatoryFields {
		if !b.HasColumn(field) {
			// a structurally absent mandatory column fails every row
			all := make([]int, b.Len())
			for i := range all {
				all[i] = i
			}
			return all
		}
		for i := range b.Records {
			if b.Records[i].IsNull(field) {
				set.add(i)
			}
		}
	}
	return set.sorted()
}

func checkEnums(b *model.Batch) []int {
	set := indexSet{}
	for i := range b.Records {
		rec := &b.Records[i]
		if rec.Side != nil && !model.EnumSide[*rec.Side] {
			set.add(i)
		}
		if rec.InstrumentType != nil && !model.EnumInstrument[*rec.InstrumentType] {
			set.add(i)
		}
		if rec.Currency != nil && !model.EnumCurrency[*rec.Currency] {
			set.add(i)
		}
	}
	return set.sorted()
}

func checkPositive(b *model.Batch) []int {
	set := indexSet{}
	for i := range b.Records {
		rec := &b.Records[i]
		if rec.Quantity != nil && *rec.Quantity <= 0 {
			set.add(i)
		}
		if rec.Price != nil && *rec.Price <= 0 {
			set.add(i)
		}
	}
	return set.sorted()
}

// Checksum digits are not verified here, format only.
var (
	isinRe  = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)
	cusipRe = regexp.MustCompile(`^[A-Z0-9]{9}$`)
)

func checkIdentifierFormat(b *model.Batch) []int {
	set := indexSet{}
	for i := range b.Records {
		rec := &b.Records[i]
		if rec.ISIN != nil && !isinRe.MatchString(*rec.ISIN) {
			set.add(i)
		}
		if rec.CUSIP != nil && !cusipRe.MatchString(*rec.CUSIP) {
			set.add(i)
		}
	}
	return set.sorted()
}

func checkTimestampSanity(b *model.Batch) []int {
	set := indexSet{}
	for i := range b.Records {
		rec := &b.Records[i]
		if rec.TradeDate == nil || rec.TradeTS == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", *rec.TradeDate)
		if err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, *rec.TradeTS)
		if err != nil {
			continue
		}
		u := ts.UTC()
		tsDate := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		if tsDate.Before(date) {
			set.add(i)
		}
	}
	return set.sorted()
}

var notionalTolerance = decimal.NewFromFloat(0.01)

func checkNotionalConsistency(b *model.Batch) []int {
	set := indexSet{}
	for i := range b.Records {
		rec := &b.Records[i]
		if rec.Quantity == nil || rec.Price == nil || rec.Notional == nil {
			continue
		}
		calc := decimal.NewFromInt(*rec.Quantity).Mul(decimal.NewFromFloat(*rec.Price))
		diff := decimal.NewFromFloat(*rec.Notional).Sub(calc).Abs()
		if diff.GreaterThan(notionalTolerance) {
			set.add(i)
		}
	}
	return set.sorted()
}

// Null key components collide with each other, matching the duplicate
// semantics of the upstream feeds: two all-null soft keys count as a
// collision. Kept deliberately window-free.
const nullKey = "\x00"

func checkDuplicates(b *model.Batch) []int {
	set := indexSet{}

	byTradeID := make(map[string][]int)
	for i := range b.Records {
		if id := b.Records[i].TradeID; id != nil {
			byTradeID[*id] = append(byTradeID[*id], i)
		}
	}
	for _, group := range byTradeID {
		if len(group) > 1 {
			for _, i := range group {
				set.add(i)
			}
		}
	}

	bySoftKey := make(map[string][]int)
	for i := range b.Records {
		bySoftKey[softKey(&b.Records[i])] = append(bySoftKey[softKey(&b.Records[i])], i)
	}
	for _, group := range bySoftKey {
		if len(group) > 1 {
			for _, i := range group {
				set.add(i)
			}
		}
	}

	return set.sorted()
}

func softKey(rec *model.Record) string {
	parts := make([]string, 0, 4)
	for _, p := range []*string{rec.OrderID, rec.TradeTS} {
		if p == nil {
			parts = append(parts, nullKey)
		} else {
			parts = append(parts, *p)
		}
	}
	if rec.Quantity == nil {
		parts = append(parts, nullKey)
	} else {
		parts = append(parts, decimal.NewFromInt(*rec.Quantity).String())
	}
	if rec.Price == nil {
		parts = append(parts, nullKey)
	} else {
		parts = append(parts, decimal.NewFromFloat(*rec.Price).String())
	}
	return parts[0] + "|" + parts[1] + "|" + parts[2] + "|" + parts[3]
}
