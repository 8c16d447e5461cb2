package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamepay/internal/currency"
	"gamepay/internal/events"
	"gamepay/internal/models"
	"gamepay/internal/services/seamless"
	"gamepay/internal/utils"

	"github.com/shopspring/decimal"
)

// New runs the construction protocol and returns a request-scoped engine.
// Construction fails fast: operator status, vendor enablement, currency rate
// and wallet initialization are all checked before any operation can run.
func New(ctx context.Context, deps Deps, compositeAccount, walletCode string) (*Engine, error) {
	if deps.Metrics == nil {
		deps.Metrics = NoopMetricsCollector{}
	}

	e := &Engine{deps: deps, walletCode: walletCode}

	playerName, opCode := utils.SplitMemberCode(compositeAccount, AccountDelimiter)
	if playerName == "" || opCode == "" {
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeInvalidAccount, opInit, fmt.Errorf("composite account %q", compositeAccount)))
	}
	e.playerName = playerName
	e.vendorCode = vendorOf(walletCode)

	op, err := deps.Config.Operator(ctx, opCode)
	if err != nil {
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeTenantNotConfigured, opInit, err))
	}
	switch op.Status {
	case models.OperatorOnline:
	case models.OperatorMaintain:
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeOperatorMaintain, opInit, nil))
	default:
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeOperatorDecommission, opInit, nil))
	}
	e.operator = op

	vendor, ok := op.VendorFor(e.vendorCode)
	if !ok || !vendor.Enabled {
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeProductNotEnabled, opInit, fmt.Errorf("vendor %q", e.vendorCode)))
	}

	// The per-operator switch is authoritative; a platform-wide vendor
	// record, when present, can still take the vendor offline for everyone.
	if v, err := deps.Config.Vendor(ctx, e.vendorCode); err == nil && v.Status != "" && v.Status != models.VendorOnline {
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeProductNotEnabled, opInit, fmt.Errorf("vendor %q is %s", e.vendorCode, v.Status)))
	}

	rate, ok := op.RateFor(e.vendorCode)
	if !ok {
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeCurrencyRateMissing, opInit, fmt.Errorf("vendor %q", e.vendorCode)))
	}
	e.rate = rate

	if vendor.Seamless {
		if op.Seamless.Host == "" {
			return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
				newError(CodeSeamlessMisconfigured, opInit, nil))
		}
		e.seamless = true
		e.remote = deps.Remote(op.Seamless)
		return e, nil
	}

	store, err := deps.Stores.LedgerStore(ctx, op.Code)
	if err != nil {
		if CodeOf(err) == "" {
			err = newError(CodeTenantConnection, opInit, err)
		}
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode), err)
	}
	e.store = store

	if err := store.EnsureWallet(ctx, e.playerName, e.walletCode); err != nil {
		return nil, e.fail(opInit, initArgs(compositeAccount, walletCode),
			newError(CodeWalletInitFailed, opInit, err))
	}
	return e, nil
}

// TransferIn credits the wallet from the operator's main balance.
func (e *Engine) TransferIn(ctx context.Context, amount decimal.Decimal, traceID, betID string) (*models.WalletSnapshot, error) {
	return e.credit(ctx, opTransferIn, models.TransTypeTransferIn, seamless.PathTransferIn, amount, traceID, betID, false)
}

// TransferOut debits the wallet back to the operator's main balance. A
// forced transfer bypasses the insufficient-balance check.
func (e *Engine) TransferOut(ctx context.Context, amount decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	return e.debit(ctx, opTransferOut, models.TransTypeTransferOut, seamless.PathTransferOut, amount, traceID, betID, force)
}

// GameTransferIn credits the wallet on entry into a game session.
func (e *Engine) GameTransferIn(ctx context.Context, amount decimal.Decimal, traceID, betID string) (*models.WalletSnapshot, error) {
	return e.credit(ctx, opGameTransferIn, models.TransTypeGameTransferIn, seamless.PathGameTransferIn, amount, traceID, betID, false)
}

// GameTransferOut debits the wallet on exit from a game session.
func (e *Engine) GameTransferOut(ctx context.Context, amount decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	return e.debit(ctx, opGameTransferOut, models.TransTypeGameTransferOut, seamless.PathGameTransferOut, amount, traceID, betID, force)
}

// Stake debits a bet amount.
func (e *Engine) Stake(ctx context.Context, amount decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	return e.debit(ctx, opStake, models.TransTypeStake, seamless.PathGameStake, amount, traceID, betID, force)
}

// Payoff credits a win amount.
func (e *Engine) Payoff(ctx context.Context, amount decimal.Decimal, traceID, betID string) (*models.WalletSnapshot, error) {
	return e.credit(ctx, opPayoff, models.TransTypePayoff, seamless.PathGamePayoff, amount, traceID, betID, false)
}

// CancelStake refunds a stake. The refund is forced, since a stake taken
// before other forced movements may leave the balance negative.
func (e *Engine) CancelStake(ctx context.Context, amount decimal.Decimal, traceID, betID string) (*models.WalletSnapshot, error) {
	return e.credit(ctx, opCancelStake, models.TransTypeCancelStake, seamless.PathCancelStake, amount, traceID, betID, true)
}

// CancelPayoff reverses a payoff. The reversal is forced and may drive the
// balance negative.
func (e *Engine) CancelPayoff(ctx context.Context, amount decimal.Decimal, traceID, betID string) (*models.WalletSnapshot, error) {
	return e.debit(ctx, opCancelPayoff, models.TransTypeCancelPayoff, seamless.PathCancelPayoff, amount, traceID, betID, true)
}

// Adjust applies a caller-signed corrective movement. Adjustments are always
// forced.
func (e *Engine) Adjust(ctx context.Context, amount decimal.Decimal, traceID, betID string) (*models.WalletSnapshot, error) {
	if amount.IsZero() {
		err := newError(CodeInvalidAmount, opAdjust, errors.New("zero adjustment"))
		return nil, e.fail(opAdjust, e.opArgs(models.TransTypeAdjust, amount, traceID, betID), err)
	}
	converted, err := e.convert(opAdjust, amount)
	if err != nil {
		return nil, e.fail(opAdjust, e.opArgs(models.TransTypeAdjust, amount, traceID, betID), err)
	}
	return e.execute(ctx, opAdjust, models.TransTypeAdjust, seamless.PathAdjustBalance, converted, converted, traceID, betID, true)
}

// GetBalance returns the current wallet snapshot. Local wallets are read
// without locking; seamless wallets ask the remote side.
func (e *Engine) GetBalance(ctx context.Context) (*models.WalletSnapshot, error) {
	if e.seamless {
		res, err := e.remote.Balance(ctx, e.playerName, strings.ToUpper(e.vendorCode))
		if err != nil {
			return nil, e.fail(opGetBalance, e.opArgs("", decimal.Zero, "", ""), e.classifyRemote(opGetBalance, err))
		}
		return &models.WalletSnapshot{
			PlayerName: e.playerName,
			WalletCode: e.walletCode,
			Balance:    res.Balance,
		}, nil
	}

	w, err := e.store.GetWallet(ctx, e.playerName, e.walletCode)
	if err != nil {
		return nil, e.fail(opGetBalance, e.opArgs("", decimal.Zero, "", ""),
			newError(CodeWalletNotFound, opGetBalance, err))
	}
	return &models.WalletSnapshot{
		PlayerName: e.playerName,
		WalletCode: e.walletCode,
		Balance:    w.Balance,
	}, nil
}

// QueryTransactionLog returns the committed ledger entries for a trace id.
func (e *Engine) QueryTransactionLog(ctx context.Context, traceID string) ([]models.Transaction, error) {
	if e.seamless {
		entries, err := e.remote.QueryLog(ctx, e.playerName, traceID)
		if err != nil {
			return nil, e.fail(opQueryTransLog, e.opArgs("", decimal.Zero, traceID, ""), e.classifyRemote(opQueryTransLog, err))
		}
		out := make([]models.Transaction, 0, len(entries))
		for _, le := range entries {
			out = append(out, models.Transaction{
				TransType:   le.TransType,
				PlayerName:  e.playerName,
				WalletCode:  e.walletCode,
				Amount:      le.Amount,
				TraceID:     le.TraceID,
				BetID:       le.BetID,
				CreatedTime: le.CreatedTime,
			})
		}
		return out, nil
	}

	recs, err := e.store.TransactionsByTrace(ctx, e.playerName, traceID)
	if err != nil {
		return nil, e.fail(opQueryTransLog, e.opArgs("", decimal.Zero, traceID, ""),
			newError(CodeTransactionFailed, opQueryTransLog, err))
	}
	return recs, nil
}

// credit validates a positive amount and applies it as a positive delta.
func (e *Engine) credit(ctx context.Context, op, transType, path string, amount decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	if !amount.IsPositive() {
		err := newError(CodeInvalidAmount, op, fmt.Errorf("amount %s must be positive", amount))
		return nil, e.fail(op, e.opArgs(transType, amount, traceID, betID), err)
	}
	converted, err := e.convert(op, amount)
	if err != nil {
		return nil, e.fail(op, e.opArgs(transType, amount, traceID, betID), err)
	}
	return e.execute(ctx, op, transType, path, converted, converted, traceID, betID, force)
}

// debit validates a positive amount and applies it as a negative delta.
func (e *Engine) debit(ctx context.Context, op, transType, path string, amount decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	if !amount.IsPositive() {
		err := newError(CodeInvalidAmount, op, fmt.Errorf("amount %s must be positive", amount))
		return nil, e.fail(op, e.opArgs(transType, amount, traceID, betID), err)
	}
	converted, err := e.convert(op, amount)
	if err != nil {
		return nil, e.fail(op, e.opArgs(transType, amount, traceID, betID), err)
	}
	return e.execute(ctx, op, transType, path, converted, converted.Neg(), traceID, betID, force)
}

// convert turns a vendor-denominated amount into the operator's settlement
// currency at the resolved rate.
func (e *Engine) convert(op string, amount decimal.Decimal) (decimal.Decimal, error) {
	out, err := currency.Convert(amount, e.rate.Rate, currency.Multiply, e.rate.Scale)
	if err != nil {
		return decimal.Zero, newError(CodeCurrencyRateMissing, op, err)
	}
	return out, nil
}

// execute routes the operation to the remote wallet or the local atomic
// mutation. amount is the converted value as the caller signed it; delta is
// the sign-normalized form the local ledger applies.
func (e *Engine) execute(ctx context.Context, op, transType, path string, amount, delta decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	start := e.now()
	snap, err := e.dispatch(ctx, op, transType, path, amount, delta, traceID, betID, force)
	e.deps.Metrics.RecordOperationDuration(op, time.Since(start))
	if err != nil {
		e.deps.Metrics.RecordOperationResult(op, "failure")
		return nil, err
	}
	e.deps.Metrics.RecordOperationResult(op, "success")
	return snap, nil
}

func (e *Engine) dispatch(ctx context.Context, op, transType, path string, amount, delta decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	if e.seamless {
		return e.delegate(ctx, op, transType, path, amount, delta, traceID, betID)
	}
	return e.mutate(ctx, op, transType, delta, traceID, betID, force)
}

// delegate forwards the operation to the operator's remote wallet. The wire
// amount keeps the caller's sign; direction is carried by trans_type, and the
// vendor code travels uppercase. The remote side owns the ledger; its result
// is returned as-is, annotated with the trace id.
func (e *Engine) delegate(ctx context.Context, op, transType, path string, amount, delta decimal.Decimal, traceID, betID string) (*models.WalletSnapshot, error) {
	req := seamless.Request{
		TransType:     transType,
		MemberAccount: e.playerName,
		VendorCode:    strings.ToUpper(e.vendorCode),
		Amount:        amount,
		TraceID:       traceID,
		BetID:         betID,
	}
	res, err := e.remote.Transact(ctx, path, req)
	if err != nil {
		return nil, e.fail(op, e.opArgs(transType, delta, traceID, betID), e.classifyRemote(op, err))
	}
	return &models.WalletSnapshot{
		PlayerName: e.playerName,
		WalletCode: e.walletCode,
		Balance:    res.Balance,
		TransType:  transType,
		TraceID:    traceID,
	}, nil
}

// mutate is the atomic local mutation: row-lock the wallet, check the
// balance invariant, append the transaction record and update the balance in
// one database transaction.
func (e *Engine) mutate(ctx context.Context, op, transType string, delta decimal.Decimal, traceID, betID string, force bool) (*models.WalletSnapshot, error) {
	var snap *models.WalletSnapshot
	var before, after decimal.Decimal

	err := e.store.InTransaction(ctx, func(tx StoreTx) error {
		w, err := tx.LockWallet(e.playerName, e.walletCode)
		if err != nil {
			return newError(CodeWalletNotFound, op, err)
		}

		before = w.Balance
		after = w.Balance.Add(delta)
		if !force && delta.IsNegative() && after.IsNegative() {
			return newError(CodeInsufficientBalance, op,
				fmt.Errorf("balance %s, delta %s", w.Balance, delta))
		}

		now := e.now()
		rec := &models.Transaction{
			TransType:     transType,
			PlayerName:    e.playerName,
			WalletCode:    e.walletCode,
			BeforeBalance: w.Balance,
			Amount:        delta,
			Balance:       after,
			TraceID:       traceID,
			BetID:         betID,
			CreatedTime:   now,
			BelongDate:    now.Format(BelongDateLayout),
		}
		if err := tx.InsertTransaction(rec); err != nil {
			return err
		}
		if err := tx.UpdateBalance(w.ID, after); err != nil {
			return err
		}

		snap = &models.WalletSnapshot{
			PlayerName: e.playerName,
			WalletCode: e.walletCode,
			Balance:    after,
			TransType:  transType,
			TraceID:    traceID,
		}
		return nil
	})
	if err != nil {
		if CodeOf(err) == "" {
			err = newError(CodeTransactionFailed, op, err)
		}
		return nil, e.fail(op, e.opArgs(transType, delta, traceID, betID), err)
	}

	e.deps.Metrics.RecordBalanceChange(e.walletCode, before, after)
	return snap, nil
}

// fail emits a diagnostic event and returns err. Emission always happens
// before the error reaches the caller.
func (e *Engine) fail(op string, args map[string]interface{}, err error) error {
	if e.deps.Sink != nil {
		_ = e.deps.Sink.Emit(context.Background(), events.NewTransactionError(op, args, err))
	}
	return err
}

// classifyRemote maps remote wallet failures onto ledger error codes.
func (e *Engine) classifyRemote(op string, err error) error {
	if errors.Is(err, seamless.ErrRemoteUnavailable) {
		return newError(CodeRemoteUnavailable, op, err)
	}
	return newError(CodeTransactionFailed, op, err)
}

func (e *Engine) opArgs(transType string, amount decimal.Decimal, traceID, betID string) map[string]interface{} {
	args := map[string]interface{}{
		"player_name": e.playerName,
		"wallet_code": e.walletCode,
		"vendor_code": e.vendorCode,
	}
	if transType != "" {
		args["trans_type"] = transType
	}
	if !amount.IsZero() {
		args["amount"] = amount.String()
	}
	if traceID != "" {
		args["trace_id"] = traceID
	}
	if betID != "" {
		args["bet_id"] = betID
	}
	return args
}

func initArgs(compositeAccount, walletCode string) map[string]interface{} {
	return map[string]interface{}{
		"member_account": compositeAccount,
		"wallet_code":    walletCode,
	}
}

// vendorOf extracts the vendor code prefix from a wallet code
// ("bng_wallet" -> "bng").
func vendorOf(walletCode string) string {
	if idx := strings.Index(walletCode, WalletDelimiter); idx > 0 {
		return walletCode[:idx]
	}
	return walletCode
}
