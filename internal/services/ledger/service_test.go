package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gamepay/internal/events"
	"gamepay/internal/models"
	"gamepay/internal/services/seamless"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store whose InTransaction serializes callers the
// way a row lock does, so the concurrency test exercises real contention.
type memStore struct {
	mu      sync.Mutex
	wallets map[string]*models.MemberWallet
	txs     []models.Transaction
	nextID  uint

	ensureCalls int
	failInsert  error
}

func newMemStore() *memStore {
	return &memStore{wallets: make(map[string]*models.MemberWallet)}
}

func walletKey(player, code string) string { return player + "|" + code }

func (s *memStore) EnsureWallet(_ context.Context, player, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCalls++
	if _, ok := s.wallets[walletKey(player, code)]; !ok {
		s.nextID++
		s.wallets[walletKey(player, code)] = &models.MemberWallet{
			ID:         s.nextID,
			PlayerName: player,
			WalletCode: code,
			Balance:    decimal.Zero,
		}
	}
	return nil
}

func (s *memStore) GetWallet(_ context.Context, player, code string) (*models.MemberWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletKey(player, code)]
	if !ok {
		return nil, errors.New("wallet not found")
	}
	cp := *w
	return &cp, nil
}

func (s *memStore) InTransaction(_ context.Context, fn func(tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn := &memTx{s: s}
	if err := fn(txn); err != nil {
		return err
	}
	txn.commit()
	return nil
}

func (s *memStore) TransactionsByTrace(_ context.Context, player, traceID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, tx := range s.txs {
		if tx.PlayerName == player && tx.TraceID == traceID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *memStore) balance(player, code string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[walletKey(player, code)].Balance
}

func (s *memStore) setBalance(player, code string, b decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[walletKey(player, code)].Balance = b
}

func (s *memStore) records() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.txs...)
}

// memTx stages writes and applies them only on commit, so a returned error
// rolls everything back.
type memTx struct {
	s        *memStore
	pending  []models.Transaction
	balances map[uint]decimal.Decimal
}

func (t *memTx) LockWallet(player, code string) (*models.MemberWallet, error) {
	w, ok := t.s.wallets[walletKey(player, code)]
	if !ok {
		return nil, errors.New("wallet not found")
	}
	cp := *w
	return &cp, nil
}

func (t *memTx) InsertTransaction(rec *models.Transaction) error {
	if t.s.failInsert != nil {
		return t.s.failInsert
	}
	t.pending = append(t.pending, *rec)
	return nil
}

func (t *memTx) UpdateBalance(walletID uint, balance decimal.Decimal) error {
	if t.balances == nil {
		t.balances = make(map[uint]decimal.Decimal)
	}
	t.balances[walletID] = balance
	return nil
}

func (t *memTx) commit() {
	t.s.txs = append(t.s.txs, t.pending...)
	for id, b := range t.balances {
		for _, w := range t.s.wallets {
			if w.ID == id {
				w.Balance = b
			}
		}
	}
}

type fakeResolver struct {
	store Store
	err   error
	calls int
}

func (r *fakeResolver) LedgerStore(context.Context, string) (Store, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.store, nil
}

type fakeConfig struct {
	operators map[string]*models.Operator
	vendors   map[string]*models.Vendor
}

func (c *fakeConfig) Operator(_ context.Context, code string) (*models.Operator, error) {
	op, ok := c.operators[code]
	if !ok {
		return nil, errors.New("operator not found")
	}
	return op, nil
}

func (c *fakeConfig) Vendor(_ context.Context, code string) (*models.Vendor, error) {
	v, ok := c.vendors[code]
	if !ok {
		return nil, errors.New("vendor not found")
	}
	return v, nil
}

type fakeRemote struct {
	lastPath   string
	lastReq    seamless.Request
	lastVendor string
	result     *seamless.Result
	err        error
}

func (r *fakeRemote) Transact(_ context.Context, path string, req seamless.Request) (*seamless.Result, error) {
	r.lastPath = path
	r.lastReq = req
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *fakeRemote) Balance(_ context.Context, _, vendorCode string) (*seamless.Result, error) {
	r.lastVendor = vendorCode
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *fakeRemote) QueryLog(context.Context, string, string) ([]seamless.LogEntry, error) {
	return nil, r.err
}

type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *captureSink) Emit(_ context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) all() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testOperator() *models.Operator {
	return &models.Operator{
		Code:   "GOP",
		Status: models.OperatorOnline,
		VendorSwitch: map[string]models.VendorSetting{
			"bng": {Enabled: true},
		},
		CurrencyRates: map[string]models.CurrencyRate{
			"bng": {Rate: decimal.NewFromInt(1), Scale: 2},
		},
	}
}

func testDeps(op *models.Operator, store Store) Deps {
	return Deps{
		Config: &fakeConfig{operators: map[string]*models.Operator{op.Code: op}},
		Stores: &fakeResolver{store: store},
		Remote: func(models.SeamlessSetting) RemoteWallet { return &fakeRemote{} },
		Sink:   nil,
	}
}

func newLocalEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	eng, err := New(context.Background(), testDeps(testOperator(), store), "alice_GOP", "bng_wallet")
	require.NoError(t, err)
	return eng, store
}

func TestNew_ConstructionProtocol(t *testing.T) {
	tests := []struct {
		name     string
		account  string
		wallet   string
		mutate   func(*models.Operator)
		wantCode Code
	}{
		{
			name:     "account without operator code",
			account:  "alice",
			wallet:   "bng_wallet",
			wantCode: CodeInvalidAccount,
		},
		{
			name:     "unknown operator",
			account:  "alice_NOPE",
			wallet:   "bng_wallet",
			wantCode: CodeTenantNotConfigured,
		},
		{
			name:     "operator in maintenance",
			account:  "alice_GOP",
			wallet:   "bng_wallet",
			mutate:   func(op *models.Operator) { op.Status = models.OperatorMaintain },
			wantCode: CodeOperatorMaintain,
		},
		{
			name:     "operator decommissioned",
			account:  "alice_GOP",
			wallet:   "bng_wallet",
			mutate:   func(op *models.Operator) { op.Status = models.OperatorDecommission },
			wantCode: CodeOperatorDecommission,
		},
		{
			name:    "vendor disabled",
			account: "alice_GOP",
			wallet:  "bng_wallet",
			mutate: func(op *models.Operator) {
				op.VendorSwitch["bng"] = models.VendorSetting{Enabled: false}
			},
			wantCode: CodeProductNotEnabled,
		},
		{
			name:     "vendor unknown to operator",
			account:  "alice_GOP",
			wallet:   "pgs_wallet",
			wantCode: CodeProductNotEnabled,
		},
		{
			name:    "currency rate missing",
			account: "alice_GOP",
			wallet:  "bng_wallet",
			mutate: func(op *models.Operator) {
				delete(op.CurrencyRates, "bng")
			},
			wantCode: CodeCurrencyRateMissing,
		},
		{
			name:    "seamless without host",
			account: "alice_GOP",
			wallet:  "bng_wallet",
			mutate: func(op *models.Operator) {
				op.VendorSwitch["bng"] = models.VendorSetting{Enabled: true, Seamless: true}
			},
			wantCode: CodeSeamlessMisconfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := testOperator()
			if tt.mutate != nil {
				tt.mutate(op)
			}
			store := newMemStore()
			_, err := New(context.Background(), testDeps(op, store), tt.account, tt.wallet)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, CodeOf(err))
			// construction failures never touch the ledger store
			assert.Zero(t, store.ensureCalls)
		})
	}
}

func TestNew_VendorGloballyOffline(t *testing.T) {
	store := newMemStore()
	deps := testDeps(testOperator(), store)
	deps.Config.(*fakeConfig).vendors = map[string]*models.Vendor{
		"bng": {Code: "bng", Status: "maintain"},
	}

	_, err := New(context.Background(), deps, "alice_GOP", "bng_wallet")
	require.Error(t, err)
	assert.Equal(t, CodeProductNotEnabled, CodeOf(err))
	assert.Zero(t, store.ensureCalls)
}

func TestNew_InitializesZeroBalanceWallet(t *testing.T) {
	eng, store := newLocalEngine(t)
	assert.Equal(t, 1, store.ensureCalls)
	assert.False(t, eng.Seamless())

	snap, err := eng.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Balance.IsZero())
}

func TestTransferIn_CreditsWallet(t *testing.T) {
	eng, store := newLocalEngine(t)

	snap, err := eng.TransferIn(context.Background(), dec("50.00"), "trace-1", "")
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("50.00")))
	assert.Equal(t, models.TransTypeTransferIn, snap.TransType)
	assert.Equal(t, "trace-1", snap.TraceID)

	recs := store.records()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].BeforeBalance.IsZero())
	assert.True(t, recs[0].Amount.Equal(dec("50.00")))
	assert.True(t, recs[0].Balance.Equal(dec("50.00")))
	assert.NotEmpty(t, recs[0].BelongDate)
}

func TestTransferOut_InsufficientBalance(t *testing.T) {
	eng, store := newLocalEngine(t)
	store.setBalance("alice", "bng_wallet", dec("100.00"))

	_, err := eng.TransferOut(context.Background(), dec("150.00"), "trace-1", "", false)
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientBalance, CodeOf(err))

	// rejected debit leaves no trace: no record, no balance change
	assert.Empty(t, store.records())
	assert.True(t, store.balance("alice", "bng_wallet").Equal(dec("100.00")))
}

func TestTransferOut_ForcedBypassesBalanceCheck(t *testing.T) {
	eng, store := newLocalEngine(t)
	store.setBalance("alice", "bng_wallet", dec("100.00"))

	snap, err := eng.TransferOut(context.Background(), dec("150.00"), "trace-1", "", true)
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("-50.00")))
}

func TestCancelStake_ForcedCreditOnNegativeBalance(t *testing.T) {
	eng, store := newLocalEngine(t)
	store.setBalance("alice", "bng_wallet", dec("-10.00"))

	snap, err := eng.CancelStake(context.Background(), dec("30.00"), "trace-1", "bet-9")
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("20.00")))
}

func TestCancelPayoff_ForcedDebit(t *testing.T) {
	eng, store := newLocalEngine(t)
	store.setBalance("alice", "bng_wallet", dec("10.00"))

	snap, err := eng.CancelPayoff(context.Background(), dec("25.00"), "trace-1", "bet-9")
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("-15.00")))
}

func TestAdjust_CallerSignedAndForced(t *testing.T) {
	eng, store := newLocalEngine(t)

	snap, err := eng.Adjust(context.Background(), dec("-40.00"), "trace-adj", "")
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("-40.00")))
	assert.True(t, store.balance("alice", "bng_wallet").Equal(dec("-40.00")))

	_, err = eng.Adjust(context.Background(), decimal.Zero, "trace-adj-2", "")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidAmount, CodeOf(err))
}

func TestOperations_RejectNonPositiveAmounts(t *testing.T) {
	eng, store := newLocalEngine(t)

	_, err := eng.TransferIn(context.Background(), dec("-5.00"), "t", "")
	assert.Equal(t, CodeInvalidAmount, CodeOf(err))

	_, err = eng.Stake(context.Background(), decimal.Zero, "t", "", false)
	assert.Equal(t, CodeInvalidAmount, CodeOf(err))

	// validation failures never reach storage
	assert.Empty(t, store.records())
}

func TestCurrencyConversionAppliedToDelta(t *testing.T) {
	op := testOperator()
	op.CurrencyRates["bng"] = models.CurrencyRate{Rate: dec("2"), Scale: 2}
	store := newMemStore()
	eng, err := New(context.Background(), testDeps(op, store), "alice_GOP", "bng_wallet")
	require.NoError(t, err)

	snap, err := eng.TransferIn(context.Background(), dec("10.00"), "t", "")
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("20.00")))

	_, err = eng.Stake(context.Background(), dec("7.50"), "t2", "bet", false)
	require.NoError(t, err)
	assert.True(t, store.balance("alice", "bng_wallet").Equal(dec("5.00")))
}

func TestBalanceEqualsSumOfCommittedDeltas(t *testing.T) {
	eng, store := newLocalEngine(t)
	ctx := context.Background()

	_, err := eng.TransferIn(ctx, dec("100.00"), "t1", "")
	require.NoError(t, err)
	_, err = eng.Stake(ctx, dec("30.00"), "t2", "b1", false)
	require.NoError(t, err)
	_, err = eng.Payoff(ctx, dec("45.50"), "t3", "b1")
	require.NoError(t, err)
	_, err = eng.CancelStake(ctx, dec("30.00"), "t4", "b1")
	require.NoError(t, err)
	_, err = eng.TransferOut(ctx, dec("200.00"), "t5", "", false)
	require.Error(t, err) // over balance, rejected

	sum := decimal.Zero
	for _, rec := range store.records() {
		sum = sum.Add(rec.Amount)
		assert.True(t, rec.Balance.Equal(rec.BeforeBalance.Add(rec.Amount)))
	}
	assert.True(t, store.balance("alice", "bng_wallet").Equal(sum))
}

func TestConcurrentDebits_NoLostUpdate(t *testing.T) {
	eng, store := newLocalEngine(t)
	ctx := context.Background()

	const n = 10
	_, err := eng.TransferIn(ctx, dec("100.00"), "seed", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Stake(ctx, dec("10.00"), fmt.Sprintf("trace-%d", i), "", false)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "debit %d", i)
	}
	assert.True(t, store.balance("alice", "bng_wallet").IsZero())
	assert.Len(t, store.records(), n+1)
}

// Replaying a trace id double-posts today; storage does not enforce
// uniqueness. This pins the current behavior so a future constraint shows up
// as a deliberate change.
func TestTraceReplay_DoublePosts(t *testing.T) {
	eng, store := newLocalEngine(t)
	ctx := context.Background()

	_, err := eng.TransferIn(ctx, dec("50.00"), "same-trace", "")
	require.NoError(t, err)
	_, err = eng.TransferIn(ctx, dec("50.00"), "same-trace", "")
	require.NoError(t, err)

	recs, err := store.TransactionsByTrace(ctx, "alice", "same-trace")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.True(t, store.balance("alice", "bng_wallet").Equal(dec("100.00")))
}

func TestMutationFailure_RollsBackAndClassifies(t *testing.T) {
	eng, store := newLocalEngine(t)
	store.setBalance("alice", "bng_wallet", dec("100.00"))
	store.failInsert = errors.New("disk full")

	_, err := eng.Stake(context.Background(), dec("10.00"), "t", "", false)
	require.Error(t, err)
	assert.Equal(t, CodeTransactionFailed, CodeOf(err))
	assert.True(t, store.balance("alice", "bng_wallet").Equal(dec("100.00")))
	assert.Empty(t, store.records())
}

func seamlessOperator() *models.Operator {
	op := testOperator()
	op.VendorSwitch["bng"] = models.VendorSetting{Enabled: true, Seamless: true}
	op.Seamless = models.SeamlessSetting{Host: "http://wallet.operator.example", WToken: "tok"}
	return op
}

func newSeamlessEngine(t *testing.T, remote *fakeRemote) *Engine {
	t.Helper()
	deps := testDeps(seamlessOperator(), nil)
	deps.Stores = &fakeResolver{err: errors.New("must not be used")}
	deps.Remote = func(s models.SeamlessSetting) RemoteWallet {
		require.Equal(t, "http://wallet.operator.example", s.Host)
		return remote
	}
	eng, err := New(context.Background(), deps, "alice_GOP", "bng_wallet")
	require.NoError(t, err)
	return eng
}

// The wire contract remote wallets were built against: the converted amount
// keeps the caller's sign (direction travels in trans_type) and the vendor
// code is uppercased.
func TestSeamless_WirePayloadMatchesRemoteContract(t *testing.T) {
	remote := &fakeRemote{result: &seamless.Result{Balance: dec("70.00")}}
	eng := newSeamlessEngine(t, remote)
	require.True(t, eng.Seamless())

	snap, err := eng.Stake(context.Background(), dec("30.00"), "trace-s", "bet-1", false)
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("70.00")))

	assert.Equal(t, seamless.PathGameStake, remote.lastPath)
	assert.Equal(t, models.TransTypeStake, remote.lastReq.TransType)
	assert.Equal(t, "alice", remote.lastReq.MemberAccount)
	assert.Equal(t, "BNG", remote.lastReq.VendorCode)
	assert.True(t, remote.lastReq.Amount.Equal(dec("30.00")),
		"debit amount must stay positive on the wire, got %s", remote.lastReq.Amount)
	assert.Equal(t, "trace-s", remote.lastReq.TraceID)
	assert.Equal(t, "bet-1", remote.lastReq.BetID)
}

func TestSeamless_AdjustKeepsCallerSign(t *testing.T) {
	remote := &fakeRemote{result: &seamless.Result{Balance: dec("10.00")}}
	eng := newSeamlessEngine(t, remote)

	_, err := eng.Adjust(context.Background(), dec("-40.00"), "trace-a", "")
	require.NoError(t, err)
	assert.Equal(t, seamless.PathAdjustBalance, remote.lastPath)
	assert.True(t, remote.lastReq.Amount.Equal(dec("-40.00")))
}

func TestSeamless_BalanceQueryUppercasesVendor(t *testing.T) {
	remote := &fakeRemote{result: &seamless.Result{Balance: dec("5.00")}}
	eng := newSeamlessEngine(t, remote)

	snap, err := eng.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("5.00")))
	assert.Equal(t, "BNG", remote.lastVendor)
}

func TestSeamless_CancelPayoffUsesCancelPath(t *testing.T) {
	remote := &fakeRemote{result: &seamless.Result{Balance: dec("0.00")}}
	eng := newSeamlessEngine(t, remote)

	_, err := eng.CancelPayoff(context.Background(), dec("10.00"), "trace-c", "")
	require.NoError(t, err)
	assert.Equal(t, seamless.PathCancelPayoff, remote.lastPath)
}

func TestSeamless_RemoteUnavailable(t *testing.T) {
	remote := &fakeRemote{err: fmt.Errorf("%w: connect refused", seamless.ErrRemoteUnavailable)}
	eng := newSeamlessEngine(t, remote)

	_, err := eng.TransferIn(context.Background(), dec("10.00"), "t", "")
	require.Error(t, err)
	assert.Equal(t, CodeRemoteUnavailable, CodeOf(err))

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.True(t, le.Retryable())
}

func TestFailures_EmitDiagnosticEvents(t *testing.T) {
	sink := &captureSink{}
	store := newMemStore()
	deps := testDeps(testOperator(), store)
	deps.Sink = sink
	eng, err := New(context.Background(), deps, "alice_GOP", "bng_wallet")
	require.NoError(t, err)

	_, err = eng.TransferOut(context.Background(), dec("1.00"), "trace-e", "", false)
	require.Error(t, err)

	evs := sink.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindTransactionError, evs[0].Kind)
	assert.Equal(t, "transfer_out", evs[0].Op)
	assert.Equal(t, "trace-e", evs[0].Args["trace_id"])
	assert.Contains(t, evs[0].Err, string(CodeInsufficientBalance))
}

func TestErrorClassification(t *testing.T) {
	assert.Equal(t, ClassValidation, newError(CodeInvalidAmount, "x", nil).Class())
	assert.Equal(t, ClassConsistency, newError(CodeInsufficientBalance, "x", nil).Class())
	assert.Equal(t, ClassConfiguration, newError(CodeProductNotEnabled, "x", nil).Class())
	assert.Equal(t, ClassInfrastructure, newError(CodeTenantConnection, "x", nil).Class())

	assert.False(t, newError(CodeInsufficientBalance, "x", nil).Retryable())
	assert.False(t, newError(CodeTransactionFailed, "x", nil).Retryable())
	assert.True(t, newError(CodeTenantConnection, "x", nil).Retryable())
}
