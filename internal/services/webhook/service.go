// Package webhook reconciles gateway payment notifications with the ledger.
package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	apperrors "purse/internal/errors"
	"purse/internal/models"
	"purse/internal/repositories"
	"purse/internal/services/gateway"
	"purse/internal/services/wallet"
)

const (
	StatusSuccessful = "successful"

	claimPrefix     = "webhook:"
	defaultDedupTTL = 72 * time.Hour
)

type Outcome string

const (
	OutcomeFunded             Outcome = "funded"
	OutcomeRefunded           Outcome = "refunded"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeVerificationFailed Outcome = "verification_failed"
)

// Notification is a decoded payment notification.
type Notification struct {
	TxRef  string
	Status string
	Amount decimal.Decimal
}

type Config struct {
	// SecretHash, when set, must match the verif-hash header.
	SecretHash     string
	VerifyPayments bool
	DedupTTL       time.Duration
}

type Service interface {
	ProcessPaymentWebhook(ctx context.Context, n Notification, signature string) (Outcome, error)
}

// Ledger is the part of the ledger engine a notification can drive.
type Ledger interface {
	Fund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...wallet.OperationOption) (*models.Transaction, error)
	Refund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...wallet.OperationOption) (*models.Transaction, error)
}

// Verifier confirms a payment with the provider. A notification is only
// credited when the provider reports it paid for the notified amount.
type Verifier interface {
	VerifyPayment(ctx context.Context, txRef string) (gateway.Verification, error)
}

type service struct {
	ledger   Ledger
	failures repositories.FailedTransactionRepository
	verifier Verifier
	claims   wallet.Locker
	config   Config
}

func NewService(
	ledger Ledger,
	failures repositories.FailedTransactionRepository,
	verifier Verifier,
	claims wallet.Locker,
	config Config,
) Service {
	if ledger == nil || failures == nil {
		panic("ledger and failed transaction repository are required")
	}
	if verifier == nil && config.VerifyPayments {
		panic("verifier is required when payment verification is enabled")
	}
	if claims == nil {
		claims = wallet.NewMemoryLocker()
	}
	if config.DedupTTL == 0 {
		config.DedupTTL = defaultDedupTTL
	}
	return &service{
		ledger:   ledger,
		failures: failures,
		verifier: verifier,
		claims:   claims,
		config:   config,
	}
}

func (s *service) ProcessPaymentWebhook(ctx context.Context, n Notification, signature string) (Outcome, error) {
	if s.config.SecretHash != "" &&
		subtle.ConstantTimeCompare([]byte(signature), []byte(s.config.SecretHash)) != 1 {
		log.Warn().Str("tx_ref", n.TxRef).Msg("webhook signature mismatch")
		return "", apperrors.ErrInvalidSignature
	}

	if n.TxRef == "" || n.Status == "" {
		s.logFailure(ctx, n, nil, "webhook", "Invalid webhook data: missing txRef or status")
		return "", apperrors.ErrInvalidWebhookData
	}

	userID, err := ParseTxRef(n.TxRef)
	if err != nil || !n.Amount.IsPositive() {
		s.logFailure(ctx, n, nil, "webhook", "Invalid transaction details")
		return "", apperrors.ErrInvalidTransactionDetails
	}

	effect := models.TransactionTypeFund
	if n.Status != StatusSuccessful {
		effect = models.TransactionTypeRefund
	}

	key := claimPrefix + models.ReferenceKey(effect, userID, n.TxRef)
	claimed, err := s.claims.Claim(ctx, key, s.config.DedupTTL)
	if err != nil {
		// The processed-reference table still rejects a second application.
		log.Warn().Err(err).Str("tx_ref", n.TxRef).Msg("webhook claim unavailable, relying on store dedup")
		claimed = true
	}
	if !claimed {
		log.Info().Str("tx_ref", n.TxRef).Str("effect", string(effect)).Msg("duplicate webhook ignored")
		return OutcomeDuplicate, nil
	}

	outcome, err := s.apply(ctx, n, userID, effect)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateReference) {
			log.Info().Str("tx_ref", n.TxRef).Msg("webhook already applied")
			return OutcomeDuplicate, nil
		}
		if rerr := s.claims.Release(context.WithoutCancel(ctx), key); rerr != nil {
			log.Warn().Err(rerr).Str("key", key).Msg("failed to release webhook claim")
		}
		return "", err
	}

	log.Info().
		Str("tx_ref", n.TxRef).
		Uint("user_id", userID).
		Str("status", n.Status).
		Str("outcome", string(outcome)).
		Msg("webhook processed")
	return outcome, nil
}

func (s *service) apply(ctx context.Context, n Notification, userID uint, effect models.TransactionType) (Outcome, error) {
	if effect == models.TransactionTypeRefund {
		if _, err := s.ledger.Refund(ctx, userID, n.Amount,
			wallet.WithReference(n.TxRef),
			wallet.WithDescription("Refund for payment "+n.TxRef),
		); err != nil {
			return "", err
		}
		s.logFailure(ctx, n, &userID, "fund", "Payment status: "+n.Status)
		return OutcomeRefunded, nil
	}

	if s.config.VerifyPayments {
		v, err := s.verifier.VerifyPayment(ctx, n.TxRef)
		if err != nil {
			s.logFailure(ctx, n, &userID, "fund", "Verification failed: "+err.Error())
			return "", fmt.Errorf("%w: %w", apperrors.ErrFailedToVerifyPayment, err)
		}
		if !v.Paid {
			s.logFailure(ctx, n, &userID, "fund", "Verification failed")
			return OutcomeVerificationFailed, nil
		}
		if !v.Amount.Equal(n.Amount) {
			log.Warn().
				Str("tx_ref", n.TxRef).
				Str("notified", n.Amount.String()).
				Str("verified", v.Amount.String()).
				Msg("webhook amount does not match verified payment")
			s.logFailure(ctx, n, &userID, "fund", "Verification failed: amount mismatch")
			return OutcomeVerificationFailed, nil
		}
	}

	if _, err := s.ledger.Fund(ctx, userID, n.Amount,
		wallet.WithReference(n.TxRef),
		wallet.WithDescription("Wallet funding"),
	); err != nil {
		return "", err
	}
	return OutcomeFunded, nil
}

func (s *service) logFailure(ctx context.Context, n Notification, userID *uint, txType, reason string) {
	entry := &models.FailedTransaction{
		TxRef:  n.TxRef,
		UserID: userID,
		Amount: n.Amount,
		Type:   txType,
		Reason: reason,
	}
	if err := s.failures.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Str("tx_ref", n.TxRef).Str("reason", reason).Msg("failed to write failed transaction log")
	}
}
