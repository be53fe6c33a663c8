package refdata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/pkg/model"
)

// Header aliases accepted in reference masters. Upstream systems disagree on
// column names; we normalize before binding.
var productHeaderAliases = map[string]string{
	"liquidity_bucket": "liq_rule_key",
}

var clientHeaderAliases = map[string]string{
	"client_id": "customerID",
}

// Masters holds the product and client reference tables for one run,
// indexed for key joins. Read-only once loaded.
type Masters struct {
	byISIN  map[string]*model.ProductRef
	byCUSIP map[string]*model.ProductRef
	clients map[string]*model.ClientRef

	// clientKeyed is false when the client master carried no recognizable
	// key column; client enrichment then degrades to nulls instead of failing.
	clientKeyed bool

	logger *zap.Logger
}

// LoadMasters reads both reference masters from CSV. A missing or unreadable
// file is a structural error and aborts the run.
func LoadMasters(productPath, clientPath string, logger *zap.Logger) (*Masters, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Masters{
		byISIN:  make(map[string]*model.ProductRef),
		byCUSIP: make(map[string]*model.ProductRef),
		clients: make(map[string]*model.ClientRef),
		logger:  logger,
	}

	if err := m.loadProducts(productPath); err != nil {
		return nil, fmt.Errorf("product master: %w", err)
	}
	if err := m.loadClients(clientPath); err != nil {
		return nil, fmt.Errorf("client master: %w", err)
	}

	logger.Info("reference masters loaded",
		zap.Int("products", len(m.byISIN)),
		zap.Int("clients", len(m.clients)),
		zap.Bool("client_keyed", m.clientKeyed),
	)
	return m, nil
}

func (m *Masters) loadProducts(path string) error {
	data, _, err := normalizeHeader(path, productHeaderAliases)
	if err != nil {
		return err
	}

	var rows []*model.ProductRef
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal rows: %w", err)
	}

	for _, p := range rows {
		p.ISIN = strings.TrimSpace(p.ISIN)
		p.CUSIP = strings.TrimSpace(p.CUSIP)
		trimPtr(&p.Symbol)
		trimPtr(&p.InstrumentType)
		trimPtr(&p.LiqRuleKey)
		if p.ISIN != "" {
			m.byISIN[p.ISIN] = p
		}
		if p.CUSIP != "" {
			m.byCUSIP[p.CUSIP] = p
		}
	}
	return nil
}

func (m *Masters) loadClients(path string) error {
	data, header, err := normalizeHeader(path, clientHeaderAliases)
	if err != nil {
		return err
	}

	m.clientKeyed = false
	for _, col := range header {
		if col == "customerID" {
			m.clientKeyed = true
		}
	}
	if !m.clientKeyed {
		m.logger.Warn("client master has no recognizable key column; risk_tier/region will be null")
		return nil
	}

	var rows []*model.ClientRef
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal rows: %w", err)
	}

	for _, c := range rows {
		c.ClientID = strings.TrimSpace(c.ClientID)
		trimPtr(&c.RiskTier)
		trimPtr(&c.Region)
		if c.ClientID != "" {
			m.clients[c.ClientID] = c
		}
	}
	return nil
}

// Product returns the product entry for an ISIN, if any.
func (m *Masters) Product(isin string) (*model.ProductRef, bool) {
	p, ok := m.byISIN[isin]
	return p, ok
}

// ProductByCUSIP returns the product entry for a CUSIP, if any.
func (m *Masters) ProductByCUSIP(cusip string) (*model.ProductRef, bool) {
	p, ok := m.byCUSIP[cusip]
	return p, ok
}

// Client returns the client entry for a client ID, if any.
func (m *Masters) Client(id string) (*model.ClientRef, bool) {
	c, ok := m.clients[id]
	return c, ok
}

// ClientKeyed reports whether the client master carried a usable key column.
func (m *Masters) ClientKeyed() bool {
	return m.clientKeyed
}

// normalizeHeader reads a CSV file and rewrites its header row: names are
// trimmed and known aliases renamed, so gocsv tags bind regardless of which
// variant the upstream file used. Returns the rewritten bytes and the final
// header.
func normalizeHeader(path string, aliases map[string]string) ([]byte, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file %s is empty", path)
	}

	header := records[0]
	for i, col := range header {
		col = strings.TrimSpace(col)
		if canonical, ok := aliases[col]; ok {
			col = canonical
		}
		header[i] = col
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, nil, err
	}
	w.Flush()
	return buf.Bytes(), header, nil
}

func trimPtr(s **string) {
	if *s == nil {
		return
	}
	v := strings.TrimSpace(**s)
	if v == "" {
		*s = nil
		return
	}
	*s = &v
}
