package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/payout"

	"purse/internal/config"
	apperrors "purse/internal/errors"
)

const stripeRefTTL = 7 * 24 * time.Hour

// RefStore keeps the mapping from funding txRef to Stripe checkout session.
type RefStore interface {
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
}

type stripeGateway struct {
	cfg      config.StripeConfig
	currency string
	refs     RefStore
}

func NewStripe(cfg config.StripeConfig, currency string, refs RefStore) Gateway {
	stripe.Key = cfg.SecretKey
	return &stripeGateway{cfg: cfg, currency: strings.ToLower(currency), refs: refs}
}

func stripeRefKey(txRef string) string {
	return "stripe:session:" + txRef
}

// minorUnits converts a two-decimal amount to the smallest currency unit.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}

func (g *stripeGateway) InitiatePayment(ctx context.Context, amount decimal.Decimal, userID uint, email string) (string, error) {
	txRef := NewFundingTxRef(userID, time.Now())
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ClientReferenceID:  stripe.String(txRef),
		CustomerEmail:      stripe.String(email),
		SuccessURL:         stripe.String(g.cfg.SuccessURL),
		CancelURL:          stripe.String(g.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(minorUnits(amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Wallet funding"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("consumer_id", fmt.Sprint(userID))

	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrFailedToInitiatePayment, err)
	}
	if err := g.refs.SetWithTTL(ctx, stripeRefKey(txRef), s.ID, stripeRefTTL); err != nil {
		return "", fmt.Errorf("%w: failed to store session reference: %v", apperrors.ErrFailedToInitiatePayment, err)
	}

	log.Info().Uint("user_id", userID).Str("tx_ref", txRef).Str("session_id", s.ID).Msg("checkout session created")
	return s.URL, nil
}

func (g *stripeGateway) VerifyPayment(ctx context.Context, txRef string) (Verification, error) {
	var sessionID string
	found, err := g.refs.Get(ctx, stripeRefKey(txRef), &sessionID)
	if err != nil {
		return Verification{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToVerifyPayment, err)
	}
	if !found {
		return Verification{}, nil
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(sessionID, params)
	if err != nil {
		return Verification{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToVerifyPayment, err)
	}
	return Verification{
		Paid:   s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Amount: decimal.New(s.AmountTotal, -2),
	}, nil
}

func (g *stripeGateway) InitiatePayout(ctx context.Context, req PayoutRequest) (bool, error) {
	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(minorUnits(req.Amount)),
		Currency:    stripe.String(g.currency),
		Destination: stripe.String(req.AccountNumber),
	}
	params.Context = ctx
	if req.Narration != "" {
		params.Description = stripe.String(req.Narration)
	}
	if req.Reference != "" {
		params.SetIdempotencyKey(req.Reference)
	}

	p, err := payout.New(params)
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrPayoutFailed, err)
	}
	if p.Status == stripe.PayoutStatusFailed || p.Status == stripe.PayoutStatusCanceled {
		return false, nil
	}
	return true, nil
}

func (g *stripeGateway) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*AccountDetails, error) {
	return nil, fmt.Errorf("%w: account resolution on stripe", apperrors.ErrUnsupported)
}

func (g *stripeGateway) ListBanks(ctx context.Context) ([]Bank, error) {
	return nil, fmt.Errorf("%w: bank listing on stripe", apperrors.ErrUnsupported)
}
