package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransTypeStake             = "stake"
	TransTypePayoff            = "payoff"
	TransTypeGameTransferIn    = "game_transfer_in"
	TransTypeGameTransferOut   = "game_transfer_out"
	TransTypeTransferIn        = "transfer_in"
	TransTypeTransferOut       = "transfer_out"
	TransTypeCancelStake       = "cancel_stake"
	TransTypeCancelPayoff      = "cancel_payoff"
	TransTypeWalletTransferIn  = "wallet_transfer_in"
	TransTypeWalletTransferOut = "wallet_transfer_out"
	TransTypeAdjust            = "adjust"
)

// Transaction is an immutable, append-only ledger entry. One row is written
// per successful balance mutation, in the same database transaction as the
// wallet update. Rows are never updated or deleted.
type Transaction struct {
	ID            uint            `gorm:"primarykey" json:"-"`
	TransType     string          `gorm:"column:trans_type;not null;index" json:"trans_type"`
	PlayerName    string          `gorm:"column:player_name;not null;index:idx_tx_wallet" json:"player_name"`
	WalletCode    string          `gorm:"column:wallet_code;not null;index:idx_tx_wallet" json:"wallet_code"`
	BeforeBalance decimal.Decimal `gorm:"column:before_balance;type:numeric(20,2);not null" json:"before_balance"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	Balance       decimal.Decimal `gorm:"column:balance;type:numeric(20,2);not null" json:"balance"`
	TraceID       string          `gorm:"column:trace_id;not null;index" json:"trace_id"`
	BetID         string          `gorm:"column:bet_id" json:"bet_id,omitempty"`
	CreatedTime   time.Time       `gorm:"column:created_time;not null" json:"created_time"`
	BelongDate    string          `gorm:"column:belong_date;not null;index" json:"belong_date"`
}

func (Transaction) TableName() string { return "transactions" }
