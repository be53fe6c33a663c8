package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveilops/trade-curator/pkg/model"
)

func validRecord(tradeID, orderID string) model.Record {
	return model.Record{
		TradeID:        model.Ptr(tradeID),
		OrderID:        model.Ptr(orderID),
		ClientID:       model.Ptr("C100"),
		ISIN:           model.Ptr("US0378331005"),
		Side:           model.Ptr("BUY"),
		Quantity:       model.Ptr(int64(100)),
		Price:          model.Ptr(10.0),
		TradeDate:      model.Ptr("2024-03-01"),
		TradeTS:        model.Ptr("2024-03-01T14:30:00Z"),
		Currency:       model.Ptr("USD"),
		InstrumentType: model.Ptr("BOND"),
		Notional:       model.Ptr(1000.0),
	}
}

func TestRunCleanBatch(t *testing.T) {
	batch := &model.Batch{Records: []model.Record{
		validRecord("T1", "O1"),
		validRecord("T2", "O2"),
	}}
	batch.Records[1].Quantity = model.Ptr(int64(200))
	batch.Records[1].Notional = model.Ptr(2000.0)

	res := New(nil).Run(batch)

	assert.Equal(t, 2, res.Metrics.InputRows)
	assert.Equal(t, 2, res.Metrics.PassedRows)
	assert.Equal(t, 0, res.Metrics.FailedRows)
	assert.Equal(t, 0, res.Metrics.BreachCount)
	assert.Equal(t, 100.0, res.Metrics.PassRatePct)
	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Breaches)
}

func TestRunCompleteness(t *testing.T) {
	batch := &model.Batch{Records: []model.Record{
		validRecord("T1", "O1"),
		validRecord("T2", "O2"),
		validRecord("T3", "O3"),
	}}
	batch.Records[0].Price = model.Ptr(-1.0)
	batch.Records[2].Side = model.Ptr("HOLD")
	for i := range batch.Records {
		q := int64(100 + i)
		batch.Records[i].Quantity = &q
		n := float64(100+i) * 10.0
		batch.Records[i].Notional = &n
	}
	batch.Records[0].Notional = model.Ptr(-1000.0)

	res := New(nil).Run(batch)

	// passed + failed == input, and the sets are disjoint by construction
	assert.Equal(t, res.Metrics.InputRows, res.Metrics.PassedRows+res.Metrics.FailedRows)
	assert.Len(t, res.Passed, 1)
	assert.Len(t, res.Failed, 2)
	require.NotNil(t, res.Passed[0].TradeID)
	assert.Equal(t, "T2", *res.Passed[0].TradeID)
}

func TestRunSeverityDoesNotWeighPartition(t *testing.T) {
	// a single LOW breach fails a row exactly as a CRITICAL one does
	rec := validRecord("T1", "O1")
	rec.Notional = model.Ptr(9999.0) // R006, LOW
	batch := &model.Batch{Records: []model.Record{rec}}

	res := New(nil).Run(batch)

	require.Len(t, res.Breaches, 1)
	assert.Equal(t, model.SeverityLow, res.Breaches[0].Severity)
	assert.Equal(t, 0, res.Metrics.PassedRows)
	assert.Equal(t, 1, res.Metrics.FailedRows)
	assert.Equal(t, 0.0, res.Metrics.PassRatePct)
}

func TestRunEmptyBatch(t *testing.T) {
	res := New(nil).Run(&model.Batch{})

	assert.Equal(t, 0, res.Metrics.InputRows)
	assert.Equal(t, 0.0, res.Metrics.PassRatePct)
	assert.Empty(t, res.Passed)
	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Breaches)
}

func TestRunPassRateRounding(t *testing.T) {
	batch := &model.Batch{Records: []model.Record{
		validRecord("T1", "O1"),
		validRecord("T2", "O2"),
		validRecord("T3", "O3"),
	}}
	batch.Records[1].Quantity = model.Ptr(int64(200))
	batch.Records[1].Notional = model.Ptr(2000.0)
	batch.Records[2].Quantity = model.Ptr(int64(-3))
	batch.Records[2].Notional = model.Ptr(-30.0)

	res := New(nil).Run(batch)

	// 2/3 → 66.67 after two-decimal rounding
	assert.Equal(t, 66.67, res.Metrics.PassRatePct)
}

// The three-row scenario: A valid, B with a negative quantity, C duplicating
// A's trade_id. A and C fail on duplication, B on positivity; nothing passes.
func TestRunThreeRowScenario(t *testing.T) {
	a := validRecord("T1", "O1")
	b := validRecord("T2", "O2")
	b.Quantity = model.Ptr(int64(-5))
	b.Notional = model.Ptr(-50.0)
	c := validRecord("T1", "O3")
	c.TradeTS = model.Ptr("2024-03-01T16:45:00Z")
	batch := &model.Batch{Records: []model.Record{a, b, c}}

	res := New(nil).Run(batch)

	assert.Equal(t, 3, res.Metrics.InputRows)
	assert.Equal(t, 0, res.Metrics.PassedRows)
	assert.Equal(t, 3, res.Metrics.FailedRows)
	assert.Equal(t, 0.0, res.Metrics.PassRatePct)
	assert.Equal(t, 3, res.Metrics.BreachCount)

	byRule := map[string][]int{}
	for _, br := range res.Breaches {
		byRule[br.RuleID] = append(byRule[br.RuleID], br.RowIndex)
	}
	assert.Equal(t, []int{1}, byRule["R003_POSITIVE"])
	assert.Equal(t, []int{0, 2}, byRule["R007_DUPLICATES"])
}

func TestRunResultOrderPreserved(t *testing.T) {
	batch := &model.Batch{Records: []model.Record{
		validRecord("T3", "O3"),
		validRecord("T1", "O1"),
		validRecord("T2", "O2"),
	}}
	for i := range batch.Records {
		q := int64(10 * (i + 1))
		n := float64(10*(i+1)) * 10.0
		batch.Records[i].Quantity = &q
		batch.Records[i].Notional = &n
	}

	res := New(nil).Run(batch)

	require.Len(t, res.Passed, 3)
	for i, want := range []string{"T3", "T1", "T2"} {
		assert.Equal(t, want, *res.Passed[i].TradeID)
	}
}
