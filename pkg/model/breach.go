package model

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades how serious a rule violation is.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Breach is one recorded violation of one rule by one record. A single row
// may accumulate breaches from several rules; breaches are immutable facts
// about one evaluation.
type Breach struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
	RowIndex int      `json:"row_index"`
	Keys     string   `json:"keys"`
}

// RunMetrics is the deterministic summary of one validation run.
type RunMetrics struct {
	RunID       uuid.UUID `json:"run_id"`
	RunTS       time.Time `json:"run_ts_utc"`
	InputRows   int       `json:"input_rows"`
	PassedRows  int       `json:"passed_rows"`
	FailedRows  int       `json:"failed_rows"`
	BreachCount int       `json:"breach_count"`
	PassRatePct float64   `json:"pass_rate_pct"`
}

// RunResult collects everything one validation run produced. It is built
// once by the orchestrator and never mutated afterwards.
type RunResult struct {
	Metrics  RunMetrics
	Passed   []Record
	Failed   []Record
	Breaches []Breach
}
