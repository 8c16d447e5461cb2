package handlers

import (
	"errors"
	"strings"

	"gamepay/internal/models"
	"gamepay/internal/services/ledger"
	"gamepay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// WalletHandler maps the operator-facing transaction API onto ledger engine
// operations. A fresh engine is constructed per request; engines are
// request-scoped by design.
type WalletHandler struct {
	deps ledger.Deps
}

func NewWalletHandler(deps ledger.Deps) *WalletHandler {
	return &WalletHandler{deps: deps}
}

type operationRequest struct {
	MemberAccount string          `json:"member_account"`
	WalletCode    string          `json:"wallet_code"`
	Amount        decimal.Decimal `json:"amount"`
	TraceID       string          `json:"trace_id"`
	BetID         string          `json:"bet_id"`
	Force         bool            `json:"force"`
}

func (r *operationRequest) validate() error {
	if r.MemberAccount == "" || r.WalletCode == "" {
		return errors.New("member_account and wallet_code are required")
	}
	return nil
}

type operation func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error)

// handle parses the request, constructs the engine and runs op, filling in a
// generated trace id when the caller did not supply one.
func (h *WalletHandler) handle(c *fiber.Ctx, action string, op operation) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	eng, err := ledger.New(c.Context(), h.deps, req.MemberAccount, req.WalletCode)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if req.TraceID == "" {
		req.TraceID = utils.BuildTraceID(eng.PlayerName(), eng.VendorCode(), action, utils.VendorUniqueID(), true)
	}

	snap, err := op(eng, c, &req)
	if err != nil {
		return respondLedgerError(c, err)
	}
	return utils.Success(c, snap)
}

func (h *WalletHandler) TransferIn(c *fiber.Ctx) error {
	return h.handle(c, "transfer_in", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.TransferIn(c.Context(), req.Amount, req.TraceID, req.BetID)
	})
}

func (h *WalletHandler) TransferOut(c *fiber.Ctx) error {
	return h.handle(c, "transfer_out", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.TransferOut(c.Context(), req.Amount, req.TraceID, req.BetID, req.Force)
	})
}

func (h *WalletHandler) GameTransferIn(c *fiber.Ctx) error {
	return h.handle(c, "game_transfer_in", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.GameTransferIn(c.Context(), req.Amount, req.TraceID, req.BetID)
	})
}

func (h *WalletHandler) GameTransferOut(c *fiber.Ctx) error {
	return h.handle(c, "game_transfer_out", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.GameTransferOut(c.Context(), req.Amount, req.TraceID, req.BetID, req.Force)
	})
}

func (h *WalletHandler) Stake(c *fiber.Ctx) error {
	return h.handle(c, "stake", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.Stake(c.Context(), req.Amount, req.TraceID, req.BetID, req.Force)
	})
}

func (h *WalletHandler) Payoff(c *fiber.Ctx) error {
	return h.handle(c, "payoff", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.Payoff(c.Context(), req.Amount, req.TraceID, req.BetID)
	})
}

func (h *WalletHandler) CancelStake(c *fiber.Ctx) error {
	return h.handle(c, "cancel_stake", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.CancelStake(c.Context(), req.Amount, req.TraceID, req.BetID)
	})
}

func (h *WalletHandler) CancelPayoff(c *fiber.Ctx) error {
	return h.handle(c, "cancel_payoff", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.CancelPayoff(c.Context(), req.Amount, req.TraceID, req.BetID)
	})
}

func (h *WalletHandler) Adjust(c *fiber.Ctx) error {
	return h.handle(c, "adjust", func(eng *ledger.Engine, c *fiber.Ctx, req *operationRequest) (*models.WalletSnapshot, error) {
		return eng.Adjust(c.Context(), req.Amount, req.TraceID, req.BetID)
	})
}

// GetBalance reads the wallet snapshot without locking.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	memberAccount := c.Query("member_account")
	walletCode := c.Query("wallet_code")
	if memberAccount == "" || walletCode == "" {
		return utils.BadRequest(c, "member_account and wallet_code are required")
	}

	eng, err := ledger.New(c.Context(), h.deps, memberAccount, walletCode)
	if err != nil {
		return respondLedgerError(c, err)
	}
	snap, err := eng.GetBalance(c.Context())
	if err != nil {
		return respondLedgerError(c, err)
	}
	return utils.Success(c, snap)
}

// QueryTransLog returns the ledger entries recorded for a trace id.
func (h *WalletHandler) QueryTransLog(c *fiber.Ctx) error {
	memberAccount := c.Query("member_account")
	walletCode := c.Query("wallet_code")
	traceID := c.Query("trace_id")
	if memberAccount == "" || walletCode == "" || traceID == "" {
		return utils.BadRequest(c, "member_account, wallet_code and trace_id are required")
	}

	eng, err := ledger.New(c.Context(), h.deps, memberAccount, walletCode)
	if err != nil {
		return respondLedgerError(c, err)
	}
	recs, err := eng.QueryTransactionLog(c.Context(), traceID)
	if err != nil {
		return respondLedgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"transactions": recs})
}

// respondLedgerError maps classified ledger failures onto HTTP statuses.
// Retryable failures get 5xx so operator integrations know a retry is safe.
func respondLedgerError(c *fiber.Ctx, err error) error {
	var le *ledger.Error
	if !errors.As(err, &le) {
		return utils.InternalError(c, "internal error")
	}

	body := fiber.Map{
		"error": strings.TrimSpace(le.Error()),
		"code":  le.Code,
		"class": le.Class(),
	}

	switch le.Code {
	case ledger.CodeWalletNotFound, ledger.CodeTenantNotConfigured:
		return utils.Respond(c, fiber.StatusNotFound, body)
	case ledger.CodeOperatorMaintain, ledger.CodeOperatorDecommission, ledger.CodeProductNotEnabled:
		return utils.Respond(c, fiber.StatusForbidden, body)
	case ledger.CodeInsufficientBalance:
		return utils.Respond(c, fiber.StatusConflict, body)
	case ledger.CodeRemoteUnavailable, ledger.CodeTenantConnection:
		return utils.Respond(c, fiber.StatusServiceUnavailable, body)
	case ledger.CodeTransactionFailed, ledger.CodeWalletInitFailed:
		return utils.Respond(c, fiber.StatusInternalServerError, body)
	default:
		return utils.Respond(c, fiber.StatusBadRequest, body)
	}
}
