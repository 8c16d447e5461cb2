package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetricsCollector receives operation metrics from the engine.
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation string, result string)
	RecordBalanceChange(walletCode string, before, after decimal.Decimal)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOperationDuration(string, time.Duration)                {}
func (NoopMetricsCollector) RecordOperationResult(string, string)                         {}
func (NoopMetricsCollector) RecordBalanceChange(string, decimal.Decimal, decimal.Decimal) {}
