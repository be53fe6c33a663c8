package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/internal/pipeline"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestApp(t *testing.T, inputs pipeline.Inputs) *fiber.App {
	t.Helper()
	app := fiber.New()
	h := &Handler{
		Logger:   zap.NewNop(),
		Pipeline: pipeline.New(inputs, zap.NewNop(), nil, nil),
	}
	RegisterRoutes(app, nil, h)
	return app
}

func fixtureInputs(t *testing.T) pipeline.Inputs {
	t.Helper()
	dir := t.TempDir()
	return pipeline.Inputs{
		MappingCSV: writeFixture(t, dir, "mapping.csv",
			"source_field,target_field\nTradeRef,trade_id\n"),
		RawTradesCSV: writeFixture(t, dir, "raw_trades.csv",
			"TradeRef,order_id,client_id,isin,side,quantity,price,trade_date,trade_ts,currency,instrument_type\n"+
				"T1,O1,C100,US0378331005,BUY,100,10.0,2024-03-01,2024-03-01T14:30:00Z,USD,BOND\n"),
		ProductMasterCSV: writeFixture(t, dir, "product_master.csv",
			"isin,cusip,symbol,instrument_type,liq_rule_key\n"+
				"US0378331005,037833100,AAPL-B,BOND,MED\n"),
		ClientMasterCSV: writeFixture(t, dir, "client_master.csv",
			"customerID,risk_tier,region\nC100,HIGH,EMEA\n"),
		OutcomeDir: filepath.Join(dir, "outcome"),
	}
}

func TestTriggerRunSuccess(t *testing.T) {
	app := newTestApp(t, fixtureInputs(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out struct {
		Status  string `json:"status"`
		Metrics struct {
			InputRows   int     `json:"input_rows"`
			PassedRows  int     `json:"passed_rows"`
			PassRatePct float64 `json:"pass_rate_pct"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, 1, out.Metrics.InputRows)
	assert.Equal(t, 1, out.Metrics.PassedRows)
	assert.Equal(t, 100.0, out.Metrics.PassRatePct)
}

func TestTriggerRunStructuralFailure(t *testing.T) {
	inputs := fixtureInputs(t)
	inputs.MappingCSV = filepath.Join(t.TempDir(), "absent.csv")
	app := newTestApp(t, inputs)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLatestRunBeforeAnyRun(t *testing.T) {
	app := newTestApp(t, fixtureInputs(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatestRunAfterRun(t *testing.T) {
	app := newTestApp(t, fixtureInputs(t))

	trigger := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	_, err := app.Test(trigger, -1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var m struct {
		InputRows int `json:"input_rows"`
	}
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, 1, m.InputRows)
}

func TestHealthWithoutStore(t *testing.T) {
	app := newTestApp(t, fixtureInputs(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
