package ledger

import (
	"context"

	"gamepay/internal/models"
	"gamepay/internal/services/seamless"

	"github.com/shopspring/decimal"
)

// ConfigReader serves operator and vendor configuration snapshots. Snapshots
// are read-only and time-bounded; invalidation happens elsewhere.
type ConfigReader interface {
	Operator(ctx context.Context, code string) (*models.Operator, error)
	Vendor(ctx context.Context, code string) (*models.Vendor, error)
}

// Store is one operator's ledger store. Implementations must never share
// connections across operators.
type Store interface {
	// EnsureWallet inserts a zero-balance wallet row if none exists.
	EnsureWallet(ctx context.Context, playerName, walletCode string) error
	// GetWallet reads the wallet row without locking it.
	GetWallet(ctx context.Context, playerName, walletCode string) (*models.MemberWallet, error)
	// InTransaction runs fn inside a repeatable-read transaction. Any error
	// from fn rolls the whole transaction back.
	InTransaction(ctx context.Context, fn func(tx StoreTx) error) error
	// TransactionsByTrace returns the committed ledger entries for a trace id.
	TransactionsByTrace(ctx context.Context, playerName, traceID string) ([]models.Transaction, error)
}

// StoreTx is the in-transaction view of a Store. LockWallet must take a row
// lock that serializes concurrent mutations of the same wallet.
type StoreTx interface {
	LockWallet(playerName, walletCode string) (*models.MemberWallet, error)
	InsertTransaction(rec *models.Transaction) error
	UpdateBalance(walletID uint, balance decimal.Decimal) error
}

// StoreResolver maps an operator code to that operator's ledger store.
type StoreResolver interface {
	LedgerStore(ctx context.Context, operatorCode string) (Store, error)
}

// RemoteWallet forwards wallet operations to an operator-hosted wallet.
// Retry policy lives behind this interface; the engine never retries.
type RemoteWallet interface {
	Transact(ctx context.Context, path string, req seamless.Request) (*seamless.Result, error)
	Balance(ctx context.Context, memberAccount, vendorCode string) (*seamless.Result, error)
	QueryLog(ctx context.Context, memberAccount, traceID string) ([]seamless.LogEntry, error)
}

// RemoteFactory builds a remote wallet client from an operator's seamless
// settings.
type RemoteFactory func(setting models.SeamlessSetting) RemoteWallet
