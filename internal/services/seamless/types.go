package seamless

import (
	"time"

	"github.com/shopspring/decimal"
)

// Remote wallet paths. Each wallet operation maps to a fixed path on the
// operator's host.
const (
	PathTransferIn      = "/sw/transfer-in"
	PathTransferOut     = "/sw/transfer-out"
	PathGameTransferIn  = "/sw/game-transfer-in"
	PathGameTransferOut = "/sw/game-transfer-out"
	PathGameStake       = "/sw/game-stake"
	PathGamePayoff      = "/sw/game-payoff"
	PathCancelStake     = "/sw/cancel-stake"
	PathCancelPayoff    = "/sw/cancel-payoff"
	PathAdjustBalance   = "/sw/adjust-balance"
	PathPlayerBalance   = "/sw/player-balance"
	PathQueryTransLog   = "/sw/query-translog"
)

// Request is the payload shape shared by all transactional remote calls.
type Request struct {
	TransType     string          `json:"trans_type"`
	MemberAccount string          `json:"member_account"`
	VendorCode    string          `json:"vendor_code"`
	Amount        decimal.Decimal `json:"amount"`
	TraceID       string          `json:"trace_id"`
	BetID         string          `json:"bet_id,omitempty"`
}

// balanceRequest queries the remote balance for one member/vendor pair.
type balanceRequest struct {
	MemberAccount string `json:"member_account"`
	VendorCode    string `json:"vendor_code"`
}

// logRequest queries the remote transaction log by trace id.
type logRequest struct {
	MemberAccount string `json:"member_account"`
	TraceID       string `json:"trace_id"`
}

// Result is the remote wallet's view after an operation.
type Result struct {
	MemberAccount string          `json:"member_account"`
	VendorCode    string          `json:"vendor_code"`
	Balance       decimal.Decimal `json:"balance"`
	TransType     string          `json:"trans_type,omitempty"`
	TraceID       string          `json:"trace_id,omitempty"`
}

// LogEntry is one remote transaction-log record.
type LogEntry struct {
	TransType   string          `json:"trans_type"`
	Amount      decimal.Decimal `json:"amount"`
	TraceID     string          `json:"trace_id"`
	BetID       string          `json:"bet_id,omitempty"`
	CreatedTime time.Time       `json:"created_time"`
}
