package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"purse/internal/models"
	"purse/internal/services/wallet"
	"purse/internal/utils"
	"purse/internal/utils/validation"
)

// IdempotencyKeyHeader carries a client-chosen reference that makes a
// mutation safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

type fundRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type transferRequest struct {
	ToUserID uint            `json:"to_user_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type withdrawRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required,gt=0"`
	AccountNumber string          `json:"account_number" validate:"required,numeric"`
	BankCode      string          `json:"bank_code" validate:"required"`
}

// parseBody decodes and validates the request body into dst. It writes the
// 400 response itself and reports whether the handler may continue.
func parseBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(dst); err != nil {
		if verrs, ok := err.(validation.Errors); ok {
			return false, utils.Respond(c, fiber.StatusBadRequest, fiber.Map{
				"error":  "Validation failed",
				"fields": verrs,
			})
		}
		return false, utils.BadRequest(c, err.Error())
	}
	return true, nil
}

func operationOptions(c *fiber.Ctx) []wallet.OperationOption {
	if key := c.Get(IdempotencyKeyHeader); key != "" {
		return []wallet.OperationOption{wallet.WithReference(key)}
	}
	return nil
}

// InitiateFunding returns a hosted payment link. The wallet is credited
// later, when the gateway notification arrives.
func (h *WalletHandler) InitiateFunding(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input fundRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	link, err := h.walletService.InitiateFunding(c.UserContext(), claims.UserID, claims.Email, input.Amount)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.Success(c, "Payment link created", fiber.Map{
		"payment_link": link,
	})
}

func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input transferRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	result, err := h.walletService.Transfer(c.UserContext(), claims.UserID, input.ToUserID, input.Amount, operationOptions(c)...)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.Success(c, "Transfer successful", result.Debit)
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input withdrawRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	tx, err := h.walletService.Withdraw(c.UserContext(), claims.UserID, wallet.WithdrawRequest{
		Amount:        input.Amount,
		AccountNumber: input.AccountNumber,
		BankCode:      input.BankCode,
	}, operationOptions(c)...)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.Success(c, "Withdrawal successful", tx)
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	balance, err := h.walletService.GetBalance(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.Success(c, "Balance retrieved", fiber.Map{
		"balance": balance,
	})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, wallet.DefaultHistoryLimit)
	if p.Limit > wallet.MaxHistoryLimit {
		p.Limit = wallet.MaxHistoryLimit
		p.Offset = (p.Page - 1) * p.Limit
	}

	txs, err := h.walletService.GetTransactionHistory(c.UserContext(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.HandleError(c, err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	return c.JSON(utils.NewPaginatedResponse(txs, p))
}

func (h *WalletHandler) ListBanks(c *fiber.Ctx) error {
	banks, err := h.walletService.ListBanks(c.UserContext())
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, "Banks retrieved", banks)
}

func (h *WalletHandler) ResolveAccount(c *fiber.Ctx) error {
	bankCode := c.Query("bank_code")
	accountNumber := c.Query("account_number")
	if bankCode == "" || accountNumber == "" {
		return utils.BadRequest(c, "bank_code and account_number are required")
	}

	details, err := h.walletService.ResolveAccount(c.UserContext(), bankCode, accountNumber)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, "Account resolved", details)
}
