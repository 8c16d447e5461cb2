package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberWallet is one player's balance for one vendor wallet, stored in the
// owning operator's ledger database. Balance is only ever mutated through a
// logged Transaction.
type MemberWallet struct {
	ID         uint            `gorm:"primarykey" json:"-"`
	PlayerName string          `gorm:"column:player_name;uniqueIndex:idx_player_wallet;not null" json:"player_name"`
	WalletCode string          `gorm:"column:wallet_code;uniqueIndex:idx_player_wallet;not null" json:"wallet_code"`
	Balance    decimal.Decimal `gorm:"column:balance;type:numeric(20,2);not null;default:0" json:"balance"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (MemberWallet) TableName() string { return "member_wallets" }

// WalletSnapshot is the post-operation view returned to callers.
type WalletSnapshot struct {
	PlayerName string          `json:"player_name"`
	WalletCode string          `json:"wallet_code"`
	Balance    decimal.Decimal `json:"balance"`
	TransType  string          `json:"trans_type,omitempty"`
	TraceID    string          `json:"trace_id,omitempty"`
}
