// Package gateway talks to the external payment provider: payment links,
// payment verification, bank payouts and bank directory lookups.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"purse/internal/config"
)

// Supported providers.
const (
	ProviderFlutterwave = "flutterwave"
	ProviderStripe      = "stripe"
)

// Gateway is the payout and payment collaborator of the ledger.
type Gateway interface {
	// InitiatePayment returns a hosted payment link for funding a wallet.
	InitiatePayment(ctx context.Context, amount decimal.Decimal, userID uint, email string) (string, error)
	VerifyPayment(ctx context.Context, txRef string) (Verification, error)
	InitiatePayout(ctx context.Context, req PayoutRequest) (bool, error)
	ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*AccountDetails, error)
	ListBanks(ctx context.Context) ([]Bank, error)
}

// Verification is the provider's view of a collected payment. Amount is the
// amount the provider actually settled, in major units.
type Verification struct {
	Paid   bool
	Amount decimal.Decimal
}

type PayoutRequest struct {
	UserID        uint
	Amount        decimal.Decimal
	AccountNumber string
	BankCode      string
	Reference     string
	Narration     string
}

type AccountDetails struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankCode      string `json:"bank_code,omitempty"`
}

type Bank struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewFundingTxRef builds the provider reference for a funding payment. The
// webhook handler recovers the user id from it.
func NewFundingTxRef(userID uint, now time.Time) string {
	return fmt.Sprintf("fund-%d-%d", userID, now.UnixMilli())
}

// New builds the gateway selected by cfg.PaymentProvider. refs is only used
// by the Stripe provider.
func New(cfg *config.Config, refs RefStore) (Gateway, error) {
	switch cfg.PaymentProvider {
	case "", ProviderFlutterwave:
		return NewFlutterwave(cfg.Flutterwave, cfg.Ledger.Currency), nil
	case ProviderStripe:
		if refs == nil {
			return nil, fmt.Errorf("stripe provider requires a reference store")
		}
		return NewStripe(cfg.Stripe, cfg.Ledger.Currency, refs), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}
