package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	apperrors "purse/internal/errors"
	"purse/internal/models"
	"purse/internal/repositories"
	"purse/internal/services/gateway"
)

type service struct {
	repo      repositories.WalletRepository
	failures  repositories.FailedTransactionRepository
	gateway   gateway.Gateway
	locker    Locker
	publisher EventPublisher
	config    Config
	metrics   MetricsCollector
}

// NewService creates a new ledger engine
func NewService(
	repo repositories.WalletRepository,
	failures repositories.FailedTransactionRepository,
	gw gateway.Gateway,
	locker Locker,
	publisher EventPublisher,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if failures == nil {
		panic("failed transaction repository is required")
	}
	if gw == nil {
		panic("gateway is required")
	}

	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if config.OperationTimeout == 0 {
		config.OperationTimeout = DefaultTimeout
	}

	// Optional collaborators fall back to process-local or no-op versions
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:      repo,
		failures:  failures,
		gateway:   gw,
		locker:    locker,
		publisher: publisher,
		config:    config,
		metrics:   metrics,
	}
}

func (s *service) Fund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...OperationOption) (record *models.Transaction, err error) {
	defer s.track(opFund, time.Now(), &err)

	if err = validateAmount(amount); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	record, err = s.credit(ctx, userID, FundEntry{Amount: amount}, applyOptions(opts))
	if err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", userID).Str("amount", amount.StringFixed(2)).Str("reference", record.Reference).Msg("wallet funded")
	return record, nil
}

func (s *service) Refund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...OperationOption) (record *models.Transaction, err error) {
	defer s.track(opRefund, time.Now(), &err)

	if err = validateAmount(amount); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	o := applyOptions(opts)
	record, err = s.credit(ctx, userID, RefundEntry{Amount: amount, TxRef: o.reference}, o)
	if err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", userID).Str("amount", amount.StringFixed(2)).Str("reference", record.Reference).Msg("wallet refunded")
	return record, nil
}

// credit applies a positive entry to the user's wallet, creating the wallet
// on first use.
func (s *service) credit(ctx context.Context, userID uint, e Entry, o operationOptions) (*models.Transaction, error) {
	var record *models.Transaction
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		w, err := tx.GetOrCreateForUpdate(ctx, userID, s.config.Currency)
		if err != nil {
			return err
		}
		if err := claimReference(ctx, tx, e.TransactionType(), userID, o.reference, w.ID); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, w.ID, w.Balance.Add(e.SignedAmount())); err != nil {
			return err
		}

		record = newTransaction(w.ID, e, o, "")
		return tx.CreateTransaction(ctx, record)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.metrics.RecordTransaction(string(record.Type), record.Amount.InexactFloat64())
	s.publishCreated(ctx, userID, record)
	return record, nil
}

func (s *service) Withdraw(ctx context.Context, userID uint, req WithdrawRequest, opts ...OperationOption) (record *models.Transaction, err error) {
	defer s.track(opWithdraw, time.Now(), &err)

	if err = validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.AccountNumber) == "" || strings.TrimSpace(req.BankCode) == "" {
		return nil, fmt.Errorf("%w: account number and bank code are required", ErrInvalidAccount)
	}

	o := applyOptions(opts)
	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	if o.reference != "" {
		seen, err := s.repo.HasReference(ctx, models.ReferenceKey(models.TransactionTypeWithdraw, userID, o.reference))
		if err != nil {
			return nil, storeErr(err)
		}
		if seen {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReference, o.reference)
		}
	}

	// One withdrawal per user at a time.
	lockKey := WithdrawLockPrefix + strconv.FormatUint(uint64(userID), 10)
	claimed, err := s.locker.Claim(ctx, lockKey, s.config.OperationTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: withdrawal claim: %v", apperrors.ErrStoreUnavailable, err)
	}
	if !claimed {
		return nil, ErrWithdrawalInProgress
	}
	defer func() {
		if rerr := s.locker.Release(context.WithoutCancel(ctx), lockKey); rerr != nil {
			log.Warn().Err(rerr).Uint("user_id", userID).Msg("failed to release withdrawal claim")
		}
	}()

	// Reserve the amount before the payout leaves, so no other debit can
	// spend it while the gateway call is in flight.
	if err = s.hold(ctx, userID, req.Amount); err != nil {
		return nil, err
	}

	payoutRef := o.reference
	if payoutRef == "" {
		payoutRef = "withdrawal-" + uuid.NewString()
	}
	narration := o.description
	if narration == "" {
		narration = "Wallet withdrawal"
	}

	paid, perr := s.gateway.InitiatePayout(ctx, gateway.PayoutRequest{
		UserID:        userID,
		Amount:        req.Amount,
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
		Reference:     payoutRef,
		Narration:     narration,
	})
	if perr != nil || !paid {
		s.releaseHold(ctx, userID, req.Amount)
		reason := "Payout failed: declined by gateway"
		if perr != nil {
			reason = "Payout failed: " + perr.Error()
		}
		s.recordFailure(ctx, opWithdraw, userID, payoutRef, req.Amount, reason)
		if perr != nil {
			return nil, fmt.Errorf("%w: %w", ErrPayoutFailed, perr)
		}
		return nil, ErrPayoutFailed
	}

	entry := WithdrawEntry{
		Amount:          req.Amount,
		AccountNumber:   req.AccountNumber,
		BankCode:        req.BankCode,
		PayoutReference: payoutRef,
	}
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		w, err := tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := claimReference(ctx, tx, models.TransactionTypeWithdraw, userID, o.reference, w.ID); err != nil {
			return err
		}
		// The hold covers the debit, so the check constraints cannot trip here.
		if err := tx.UpdateHeld(ctx, w.ID, w.Held.Sub(req.Amount)); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, w.ID, w.Balance.Sub(req.Amount)); err != nil {
			return err
		}

		record = newTransaction(w.ID, entry, o, "")
		return tx.CreateTransaction(ctx, record)
	})
	if err != nil {
		// The money has left; the hold stays so it cannot be spent twice.
		err = storeErr(err)
		log.Error().Err(err).Uint("user_id", userID).Str("payout_reference", payoutRef).Msg("payout sent but debit not settled")
		s.recordFailure(ctx, opWithdraw, userID, payoutRef, req.Amount, "Payout sent but debit not settled: "+err.Error())
		return nil, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}

	s.metrics.RecordTransaction(string(record.Type), record.Amount.InexactFloat64())
	s.publishCreated(ctx, userID, record)
	log.Info().Uint("user_id", userID).Str("amount", req.Amount.StringFixed(2)).Str("payout_reference", payoutRef).Msg("withdrawal settled")
	return record, nil
}

func (s *service) Transfer(ctx context.Context, fromUserID, toUserID uint, amount decimal.Decimal, opts ...OperationOption) (result *TransferResult, err error) {
	defer s.track(opTransfer, time.Now(), &err)

	if err = validateAmount(amount); err != nil {
		return nil, err
	}
	if fromUserID == 0 || toUserID == 0 {
		return nil, fmt.Errorf("%w: both user ids are required", ErrInvalidTransfer)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot transfer to self", ErrInvalidTransfer)
	}

	o := applyOptions(opts)
	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		// Lock in ascending user id order so opposite transfers cannot deadlock.
		first, second := fromUserID, toUserID
		if second < first {
			first, second = second, first
		}
		locked := make(map[uint]*models.Wallet, 2)
		for _, uid := range []uint{first, second} {
			w, err := tx.GetOrCreateForUpdate(ctx, uid, s.config.Currency)
			if err != nil {
				return err
			}
			locked[uid] = w
		}
		sender, receiver := locked[fromUserID], locked[toUserID]

		if !sender.HasSufficientFunds(amount) {
			return ErrInsufficientBalance
		}
		if err := claimReference(ctx, tx, models.TransactionTypeTransfer, fromUserID, o.reference, sender.ID); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, sender.ID, sender.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, receiver.ID, receiver.Balance.Add(amount)); err != nil {
			return err
		}

		senderWalletID, receiverWalletID := sender.ID, receiver.ID
		groupID := uuid.NewString()

		debit := newTransaction(sender.ID, TransferEntry{Amount: amount, CounterpartyUserID: toUserID, Direction: DirectionDebit}, o, groupID)
		debit.CounterpartyWalletID = &receiverWalletID
		credit := newTransaction(receiver.ID, TransferEntry{Amount: amount, CounterpartyUserID: fromUserID, Direction: DirectionCredit}, o, groupID)
		credit.CounterpartyWalletID = &senderWalletID

		if err := tx.CreateTransaction(ctx, debit); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, credit); err != nil {
			return err
		}
		result = &TransferResult{Debit: debit, Credit: credit}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.metrics.RecordTransaction(string(models.TransactionTypeTransfer), amount.InexactFloat64())
	s.publishCreated(ctx, fromUserID, result.Debit)
	s.publishCreated(ctx, toUserID, result.Credit)
	log.Info().
		Uint("from_user_id", fromUserID).
		Uint("to_user_id", toUserID).
		Str("amount", amount.StringFixed(2)).
		Str("group_id", result.Debit.GroupID).
		Msg("transfer completed")
	return result, nil
}

func (s *service) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	w, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrWalletNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, storeErr(err)
	}
	return w.Balance, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	w, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrWalletNotFound) {
			return []models.Transaction{}, nil
		}
		return nil, storeErr(err)
	}

	history, err := s.repo.GetTransactionHistory(ctx, w.ID, limit, offset)
	if err != nil {
		return nil, storeErr(err)
	}
	return history, nil
}

// InitiateFunding returns a payment link. The wallet is credited later, when
// the gateway reports the payment through the webhook.
func (s *service) InitiateFunding(ctx context.Context, userID uint, email string, amount decimal.Decimal) (string, error) {
	if err := validateAmount(amount); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()

	link, err := s.gateway.InitiatePayment(ctx, amount, userID, email)
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("failed to initiate payment")
		return "", err
	}
	return link, nil
}

func (s *service) ListBanks(ctx context.Context) ([]gateway.Bank, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()
	return s.gateway.ListBanks(ctx)
}

func (s *service) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*gateway.AccountDetails, error) {
	if strings.TrimSpace(bankCode) == "" || strings.TrimSpace(accountNumber) == "" {
		return nil, fmt.Errorf("%w: account number and bank code are required", ErrInvalidAccount)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.OperationTimeout)
	defer cancel()
	return s.gateway.ResolveAccount(ctx, bankCode, accountNumber)
}

// Helper methods

// validateAmount accepts positive amounts with at most two decimal places.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}
	return nil
}

func claimReference(ctx context.Context, tx repositories.WalletRepository, op models.TransactionType, userID uint, ref string, walletID uint) error {
	if ref == "" {
		return nil
	}
	return tx.ClaimReference(ctx, &models.ProcessedReference{
		Key:       models.ReferenceKey(op, userID, ref),
		Operation: string(op),
		WalletID:  walletID,
	})
}

// hold reserves amount of the user's unreserved balance.
func (s *service) hold(ctx context.Context, userID uint, amount decimal.Decimal) error {
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		w, err := tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrWalletNotFound) {
				return ErrInsufficientBalance
			}
			return err
		}
		if !w.HasSufficientFunds(amount) {
			return ErrInsufficientBalance
		}
		return tx.UpdateHeld(ctx, w.ID, w.Held.Add(amount))
	})
	return storeErr(err)
}

// releaseHold returns a reservation after a failed payout. It runs even when
// the caller's context is done.
func (s *service) releaseHold(ctx context.Context, userID uint, amount decimal.Decimal) {
	ctx = context.WithoutCancel(ctx)
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		w, err := tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		return tx.UpdateHeld(ctx, w.ID, decimal.Max(w.Held.Sub(amount), decimal.Zero))
	})
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Str("amount", amount.StringFixed(2)).Msg("failed to release withdrawal hold")
	}
}

// storeErr passes domain errors through and reports anything else as an
// unavailable store.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
}

func (s *service) track(operation string, start time.Time, errp *error) {
	s.metrics.RecordOperationDuration(operation, time.Since(start))

	err := *errp
	if err == nil {
		s.metrics.RecordOperationResult(operation, "success")
		return
	}

	code := "internal"
	if de, ok := apperrors.As(err); ok {
		code = de.Code
	}
	s.metrics.RecordError(operation, code)
	s.metrics.RecordOperationResult(operation, "failure")
}

func (s *service) recordFailure(ctx context.Context, operation string, userID uint, txRef string, amount decimal.Decimal, reason string) {
	ctx = context.WithoutCancel(ctx)
	uid := userID

	entry := &models.FailedTransaction{
		TxRef:  txRef,
		UserID: &uid,
		Amount: amount,
		Type:   operation,
		Reason: reason,
	}
	if err := s.failures.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("tx_ref", txRef).Str("reason", reason).Msg("failed to write failed transaction log")
	}

	s.publish(ctx, models.LedgerEvent{
		EventID:     uuid.NewString(),
		Type:        models.EventTransactionFailed,
		Operation:   operation,
		UserID:      userID,
		ExternalRef: txRef,
		Amount:      amount.StringFixed(2),
		Status:      string(models.TransactionStatusFailed),
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
}

func (s *service) publishCreated(ctx context.Context, userID uint, record *models.Transaction) {
	s.publish(ctx, models.LedgerEvent{
		EventID:     uuid.NewString(),
		Type:        models.EventTransactionCreated,
		Operation:   string(record.Type),
		UserID:      userID,
		WalletID:    record.WalletID,
		Reference:   record.Reference,
		GroupID:     record.GroupID,
		ExternalRef: record.ExternalRef,
		Amount:      record.Amount.StringFixed(2),
		Status:      string(record.Status),
		OccurredAt:  time.Now().UTC(),
	})
}

// publish is best effort: the ledger has already committed.
func (s *service) publish(ctx context.Context, event models.LedgerEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_type", event.Type).Str("reference", event.Reference).Msg("failed to publish ledger event")
	}
}
