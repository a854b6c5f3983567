package wallet

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"purse/internal/models"
)

// Entry is one ledger movement on a single wallet. Each variant carries the
// fields only its transaction type needs.
type Entry interface {
	TransactionType() models.TransactionType
	// SignedAmount is positive for credits and negative for debits.
	SignedAmount() decimal.Decimal
	Metadata() map[string]interface{}
}

type FundEntry struct {
	Amount decimal.Decimal
}

func (e FundEntry) TransactionType() models.TransactionType { return models.TransactionTypeFund }
func (e FundEntry) SignedAmount() decimal.Decimal            { return e.Amount }
func (e FundEntry) Metadata() map[string]interface{}         { return nil }

type WithdrawEntry struct {
	Amount          decimal.Decimal
	AccountNumber   string
	BankCode        string
	PayoutReference string
}

func (e WithdrawEntry) TransactionType() models.TransactionType { return models.TransactionTypeWithdraw }
func (e WithdrawEntry) SignedAmount() decimal.Decimal            { return e.Amount.Neg() }
func (e WithdrawEntry) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"account_number":   e.AccountNumber,
		"bank_code":        e.BankCode,
		"payout_reference": e.PayoutReference,
	}
}

type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

type TransferEntry struct {
	Amount             decimal.Decimal
	CounterpartyUserID uint
	Direction          Direction
}

func (e TransferEntry) TransactionType() models.TransactionType { return models.TransactionTypeTransfer }

func (e TransferEntry) SignedAmount() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

func (e TransferEntry) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"counterparty_user_id": e.CounterpartyUserID,
		"direction":            string(e.Direction),
	}
}

type RefundEntry struct {
	Amount decimal.Decimal
	TxRef  string
}

func (e RefundEntry) TransactionType() models.TransactionType { return models.TransactionTypeRefund }
func (e RefundEntry) SignedAmount() decimal.Decimal            { return e.Amount }
func (e RefundEntry) Metadata() map[string]interface{} {
	if e.TxRef == "" {
		return nil
	}
	return map[string]interface{}{"tx_ref": e.TxRef}
}

// newTransaction builds the immutable record for e. An empty groupID makes
// the record its own group.
func newTransaction(walletID uint, e Entry, o operationOptions, groupID string) *models.Transaction {
	ref := uuid.NewString()
	if groupID == "" {
		groupID = ref
	}

	tx := &models.Transaction{
		WalletID:    walletID,
		Type:        e.TransactionType(),
		Amount:      e.SignedAmount(),
		Status:      models.TransactionStatusSuccessful,
		Reference:   ref,
		GroupID:     groupID,
		ExternalRef: o.reference,
		Description: o.description,
	}
	if meta := e.Metadata(); meta != nil {
		tx.Metadata = models.NewJSON(meta)
	}
	return tx
}
