package ledger

import (
	"time"

	"gamepay/internal/events"
	"gamepay/internal/models"
)

// Deps carries the engine's collaborators. All of them are injected; the
// engine holds no process-wide state.
type Deps struct {
	Config  ConfigReader
	Stores  StoreResolver
	Remote  RemoteFactory
	Sink    events.Sink
	Metrics MetricsCollector

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Engine executes balance-changing operations for exactly one
// (player, operator, wallet) triple. Instances are request-scoped: construct,
// use for any number of operations, discard.
type Engine struct {
	deps Deps

	operator   *models.Operator
	playerName string
	walletCode string
	vendorCode string
	rate       models.CurrencyRate

	seamless bool
	remote   RemoteWallet
	store    Store
}

// Operator returns the resolved operator snapshot.
func (e *Engine) Operator() *models.Operator { return e.operator }

// PlayerName returns the player account the engine is scoped to.
func (e *Engine) PlayerName() string { return e.playerName }

// VendorCode returns the vendor embedded in the wallet code.
func (e *Engine) VendorCode() string { return e.vendorCode }

// Seamless reports whether operations delegate to the operator's remote
// wallet.
func (e *Engine) Seamless() bool { return e.seamless }

func (e *Engine) now() time.Time {
	if e.deps.Now != nil {
		return e.deps.Now()
	}
	return time.Now()
}
