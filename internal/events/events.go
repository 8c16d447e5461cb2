// Package events carries diagnostic events emitted on every transaction
// failure path and every remote wallet exchange. Emission happens before an
// error is returned to the caller, so observability does not depend on how
// callers handle failures.
package events

import "time"

// Kind identifies an event variant.
type Kind string

const (
	// KindTransactionError reports a failed ledger operation with its full
	// argument set.
	KindTransactionError Kind = "transaction_error"
	// KindSeamlessStats reports timing metadata for one remote wallet
	// exchange, success or failure.
	KindSeamlessStats Kind = "seamless_request"
	// KindOrderTimeout reports a timed-out order for best-effort side
	// logging.
	KindOrderTimeout Kind = "order_timeout"
)

// TransferStats captures connection metadata for one HTTP exchange with a
// remote wallet.
type TransferStats struct {
	Host       string        `json:"host"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
	Attempts   int           `json:"attempts"`
	Err        string        `json:"err,omitempty"`
}

// Event is one diagnostic record.
type Event struct {
	Kind  Kind                   `json:"kind"`
	Op    string                 `json:"op,omitempty"`
	Args  map[string]interface{} `json:"args,omitempty"`
	Err   string                 `json:"err,omitempty"`
	Stats *TransferStats         `json:"stats,omitempty"`
	At    time.Time              `json:"at"`
}

// NewTransactionError builds a transaction-error event for op with its
// argument set.
func NewTransactionError(op string, args map[string]interface{}, err error) Event {
	ev := Event{Kind: KindTransactionError, Op: op, Args: args, At: time.Now()}
	if err != nil {
		ev.Err = err.Error()
	}
	return ev
}

// NewSeamlessStats builds a transfer-statistics event.
func NewSeamlessStats(stats TransferStats) Event {
	return Event{Kind: KindSeamlessStats, Stats: &stats, At: time.Now()}
}

// NewOrderTimeout builds an order-timeout event.
func NewOrderTimeout(args map[string]interface{}) Event {
	return Event{Kind: KindOrderTimeout, Args: args, At: time.Now()}
}
