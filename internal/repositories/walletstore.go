package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamepay/internal/models"
	"gamepay/internal/services/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletStore is the ledger store for one operator's database. Mutations run
// inside repeatable-read transactions; the wallet row lock serializes
// concurrent operations on the same wallet.
type WalletStore struct {
	db *gorm.DB
}

func NewWalletStore(db *gorm.DB) *WalletStore {
	return &WalletStore{db: db}
}

// EnsureWallet inserts a zero-balance row if the wallet does not exist yet.
// The unique (player_name, wallet_code) key makes the insert race-free.
func (s *WalletStore) EnsureWallet(ctx context.Context, playerName, walletCode string) error {
	w := models.MemberWallet{
		PlayerName: playerName,
		WalletCode: walletCode,
		Balance:    decimal.Zero,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_name"}, {Name: "wallet_code"}},
			DoNothing: true,
		}).
		Create(&w).Error
}

// GetWallet reads the wallet row without locking it.
func (s *WalletStore) GetWallet(ctx context.Context, playerName, walletCode string) (*models.MemberWallet, error) {
	var w models.MemberWallet
	err := s.db.WithContext(ctx).
		Where("player_name = ? AND wallet_code = ?", playerName, walletCode).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("wallet %s/%s not found", playerName, walletCode)
		}
		return nil, err
	}
	return &w, nil
}

// InTransaction runs fn inside a repeatable-read transaction. Any error from
// fn rolls the whole transaction back, including the row lock.
func (s *WalletStore) InTransaction(ctx context.Context, fn func(tx ledger.StoreTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&walletTx{tx: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
}

// TransactionsByTrace returns the committed ledger entries for a trace id in
// insertion order.
func (s *WalletStore) TransactionsByTrace(ctx context.Context, playerName, traceID string) ([]models.Transaction, error) {
	var recs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("player_name = ? AND trace_id = ?", playerName, traceID).
		Order("id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

type walletTx struct {
	tx *gorm.DB
}

// LockWallet takes the row lock (SELECT ... FOR UPDATE) on the wallet.
func (t *walletTx) LockWallet(playerName, walletCode string) (*models.MemberWallet, error) {
	var w models.MemberWallet
	err := t.tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("player_name = ? AND wallet_code = ?", playerName, walletCode).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (t *walletTx) InsertTransaction(rec *models.Transaction) error {
	return t.tx.Create(rec).Error
}

func (t *walletTx) UpdateBalance(walletID uint, balance decimal.Decimal) error {
	return t.tx.Model(&models.MemberWallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		}).Error
}
