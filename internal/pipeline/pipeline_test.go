package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveilops/trade-curator/pkg/model"
)

type captureSink struct {
	published []model.RunMetrics
}

func (c *captureSink) PublishRunCompleted(_ context.Context, m model.RunMetrics) error {
	c.published = append(c.published, m)
	return nil
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixtureInputs(t *testing.T) Inputs {
	t.Helper()
	dir := t.TempDir()

	return Inputs{
		MappingCSV: writeFixture(t, dir, "mapping.csv",
			"source_field,target_field\n"+
				"TradeRef,trade_id\n"+
				"OrderRef,order_id\n"+
				"Customer,client_id\n"),
		RawTradesCSV: writeFixture(t, dir, "raw_trades.csv",
			"TradeRef,OrderRef,Customer,isin,side,quantity,price,trade_date,trade_ts,currency,instrument_type\n"+
				"T1,O1,C100,US0378331005,BUY,100,10.0,2024-03-01,2024-03-01T14:30:00Z,USD,BOND\n"+
				"T2,O2,C100,US0378331005,SEL,-5,10.0,2024-03-01,2024-03-01T14:31:00Z,USD,BOND\n"+
				"T1,O3,C200,US0378331005,BUY,100,10.0,2024-03-01,2024-03-01T14:32:00Z,USD,BOND\n"),
		ProductMasterCSV: writeFixture(t, dir, "product_master.csv",
			"isin,cusip,symbol,instrument_type,liq_rule_key\n"+
				"US0378331005,037833100,AAPL-B,BOND,MED\n"),
		ClientMasterCSV: writeFixture(t, dir, "client_master.csv",
			"customerID,risk_tier,region\n"+
				"C100,HIGH,EMEA\n"),
		OutcomeDir: filepath.Join(dir, "outcome"),
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	inputs := fixtureInputs(t)
	sink := &captureSink{}
	pipe := New(inputs, nil, nil, sink)

	res, err := pipe.Execute(context.Background())
	require.NoError(t, err)

	// row 1 fails R003, rows 0 and 2 collide on trade_id
	assert.Equal(t, 3, res.Metrics.InputRows)
	assert.Equal(t, 0, res.Metrics.PassedRows)
	assert.Equal(t, 3, res.Metrics.FailedRows)
	assert.Equal(t, 0.0, res.Metrics.PassRatePct)

	// enrichment happened before validation
	require.NotNil(t, res.Failed[0].Symbol)
	assert.Equal(t, "AAPL-B", *res.Failed[0].Symbol)
	require.NotNil(t, res.Failed[0].RiskTier)
	assert.Equal(t, "HIGH", *res.Failed[0].RiskTier)
	require.NotNil(t, res.Failed[0].LiquidityBucket)
	assert.Equal(t, "MED", *res.Failed[0].LiquidityBucket) // master hint

	// artifacts landed under the outcome dir
	entries, err := os.ReadDir(filepath.Join(inputs.OutcomeDir, "exceptions"))
	require.NoError(t, err)
	assert.Len(t, entries, 2) // failed trades CSV + breach ledger

	// sink saw the run
	require.Len(t, sink.published, 1)
	assert.Equal(t, res.Metrics.RunID, sink.published[0].RunID)

	// last-run metrics retained in process
	last := pipe.LastMetrics()
	require.NotNil(t, last)
	assert.Equal(t, res.Metrics.RunID, last.RunID)
}

func TestExecuteMissingMappingAborts(t *testing.T) {
	inputs := fixtureInputs(t)
	inputs.MappingCSV = filepath.Join(t.TempDir(), "absent.csv")
	pipe := New(inputs, nil, nil, nil)

	_, err := pipe.Execute(context.Background())
	require.Error(t, err)
	assert.Nil(t, pipe.LastMetrics())

	// structural failure produces no partial output
	_, statErr := os.Stat(inputs.OutcomeDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecuteMissingReferenceAborts(t *testing.T) {
	inputs := fixtureInputs(t)
	inputs.ProductMasterCSV = filepath.Join(t.TempDir(), "absent.csv")
	pipe := New(inputs, nil, nil, nil)

	_, err := pipe.Execute(context.Background())
	require.Error(t, err)
}
