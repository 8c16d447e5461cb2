/*
Package ledger is the wallet ledger engine: it executes balance-changing
operations for one player/operator/wallet triple with strict consistency
guarantees.

An Engine is request-scoped. Construction resolves the operator, checks the
vendor is enabled, resolves the currency rate, and either confirms a local
zero-balance wallet row or binds the operator's remote ("seamless") wallet:

	eng, err := ledger.New(ctx, deps, "alice_GOP", "bng_wallet")
	if err != nil {
	    // typed *ledger.Error, classified by code
	}
	snap, err := eng.Stake(ctx, amount, traceID, betID, false)

Local mutations run inside a repeatable-read transaction with a row lock on
the wallet, so concurrent operations on the same wallet serialize at the
store. A non-forced debit never drives a balance negative. One immutable
transaction record is appended per successful mutation, in the same database
transaction as the balance update.

The engine never retries a mutation; a replay risks double settlement.
Bounded retries live in the remote wallet client and the connection router.

Every failure path emits a diagnostic event to the injected sink before the
error is returned, so observability does not depend on callers.
*/
package ledger
