package ledger

// AccountDelimiter separates the player name from the operator code in a
// composite account ("alice_GOP").
const AccountDelimiter = "_"

// WalletDelimiter separates the vendor code from the wallet suffix in a
// wallet code ("bng_wallet").
const WalletDelimiter = "_"

// BelongDateLayout buckets transactions into settlement days.
const BelongDateLayout = "2006-01-02"

// Operation names used in diagnostics and trace IDs.
const (
	opInit            = "init"
	opTransferIn      = "transfer_in"
	opTransferOut     = "transfer_out"
	opGameTransferIn  = "game_transfer_in"
	opGameTransferOut = "game_transfer_out"
	opStake           = "stake"
	opPayoff          = "payoff"
	opCancelStake     = "cancel_stake"
	opCancelPayoff    = "cancel_payoff"
	opAdjust          = "adjust"
	opGetBalance      = "get_balance"
	opQueryTransLog   = "query_translog"
)
