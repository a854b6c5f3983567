package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"purse/internal/config"
	apperrors "purse/internal/errors"
)

const defaultFlutterwaveTimeout = 15 * time.Second

type flutterwave struct {
	cfg      config.FlutterwaveConfig
	currency string
}

// flwEnvelope is the common Flutterwave v3 response shape.
type flwEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewFlutterwave(cfg config.FlutterwaveConfig, currency string) Gateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultFlutterwaveTimeout
	}
	if cfg.Country == "" {
		cfg.Country = "NG"
	}
	return &flutterwave{cfg: cfg, currency: currency}
}

func (f *flutterwave) InitiatePayment(ctx context.Context, amount decimal.Decimal, userID uint, email string) (string, error) {
	txRef := NewFundingTxRef(userID, time.Now())
	body := fiber.Map{
		"tx_ref":       txRef,
		"amount":       amount.StringFixed(2),
		"currency":     f.currency,
		"redirect_url": f.cfg.RedirectURL,
		"customer":     fiber.Map{"email": email},
		"meta":         fiber.Map{"consumer_id": userID},
	}

	var data struct {
		Link string `json:"link"`
	}
	if err := f.do(ctx, f.post("/payments", body), &data); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrFailedToInitiatePayment, err)
	}
	if data.Link == "" {
		return "", fmt.Errorf("%w: empty payment link", apperrors.ErrFailedToInitiatePayment)
	}

	log.Info().Uint("user_id", userID).Str("tx_ref", txRef).Msg("payment link created")
	return data.Link, nil
}

func (f *flutterwave) VerifyPayment(ctx context.Context, txRef string) (Verification, error) {
	var data struct {
		Status string          `json:"status"`
		TxRef  string          `json:"tx_ref"`
		Amount decimal.Decimal `json:"amount"`
	}
	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	if err := f.do(ctx, f.get(path), &data); err != nil {
		return Verification{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToVerifyPayment, err)
	}
	return Verification{Paid: data.Status == "successful", Amount: data.Amount}, nil
}

func (f *flutterwave) InitiatePayout(ctx context.Context, req PayoutRequest) (bool, error) {
	if f.cfg.TestMode {
		log.Info().
			Uint("user_id", req.UserID).
			Str("amount", req.Amount.StringFixed(2)).
			Msg("simulated payout: no real transfer occurred")
		return true, nil
	}

	if _, err := f.ResolveAccount(ctx, req.BankCode, req.AccountNumber); err != nil {
		return false, err
	}

	reference := req.Reference
	if reference == "" {
		reference = fmt.Sprintf("withdrawal-%d", time.Now().UnixNano())
	}
	narration := req.Narration
	if narration == "" {
		narration = "Wallet withdrawal"
	}
	body := fiber.Map{
		"account_bank":   req.BankCode,
		"account_number": req.AccountNumber,
		"amount":         req.Amount.StringFixed(2),
		"currency":       f.currency,
		"narration":      narration,
		"reference":      reference,
		"callback_url":   f.cfg.CallbackURL,
		"debit_currency": f.currency,
	}

	if err := f.do(ctx, f.post("/transfers", body), nil); err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrPayoutFailed, err)
	}
	return true, nil
}

func (f *flutterwave) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*AccountDetails, error) {
	body := fiber.Map{
		"account_bank":   bankCode,
		"account_number": accountNumber,
	}
	var details AccountDetails
	if err := f.do(ctx, f.post("/accounts/resolve", body), &details); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidAccountDetails, err)
	}
	details.BankCode = bankCode
	return &details, nil
}

func (f *flutterwave) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := f.do(ctx, f.get("/banks/"+f.cfg.Country), &banks); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, err)
	}
	return banks, nil
}

func (f *flutterwave) post(path string, body interface{}) *fiber.Agent {
	return f.authorize(fiber.Post(f.cfg.BaseURL + path)).JSON(body)
}

func (f *flutterwave) get(path string) *fiber.Agent {
	return f.authorize(fiber.Get(f.cfg.BaseURL + path))
}

func (f *flutterwave) authorize(a *fiber.Agent) *fiber.Agent {
	return a.
		Set(fiber.HeaderAuthorization, "Bearer "+f.cfg.SecretKey).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
}

// do sends the request and decodes the envelope's data field into out.
// A non-2xx status or an envelope status other than "success" is an error.
func (f *flutterwave) do(ctx context.Context, a *fiber.Agent, out interface{}) error {
	timeout := f.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ctx.Err()
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	var env flwEnvelope
	code, _, errs := a.Timeout(timeout).Struct(&env)
	if len(errs) > 0 {
		return fmt.Errorf("flutterwave request failed: %v", errs[0])
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("flutterwave returned %d: %s", code, env.Message)
	}
	if env.Status != "success" {
		return fmt.Errorf("flutterwave status %q: %s", env.Status, env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode flutterwave data: %w", err)
	}
	return nil
}
