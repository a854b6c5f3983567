package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"purse/internal/models"
)

func TestEntrySignConvention(t *testing.T) {
	amount := dec("12.50")

	tests := []struct {
		name     string
		entry    Entry
		wantType models.TransactionType
		want     string
	}{
		{"fund credits", FundEntry{Amount: amount}, models.TransactionTypeFund, "12.5"},
		{"refund credits", RefundEntry{Amount: amount}, models.TransactionTypeRefund, "12.5"},
		{"withdraw debits", WithdrawEntry{Amount: amount}, models.TransactionTypeWithdraw, "-12.5"},
		{"transfer out debits", TransferEntry{Amount: amount, Direction: DirectionDebit}, models.TransactionTypeTransfer, "-12.5"},
		{"transfer in credits", TransferEntry{Amount: amount, Direction: DirectionCredit}, models.TransactionTypeTransfer, "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.entry.TransactionType())
			assert.True(t, tt.entry.SignedAmount().Equal(dec(tt.want)))
		})
	}
}

func TestNewTransaction(t *testing.T) {
	o := operationOptions{reference: "fund-1-1", description: "top up"}

	single := newTransaction(7, RefundEntry{Amount: dec("5"), TxRef: "fund-1-1"}, o, "")
	assert.Equal(t, uint(7), single.WalletID)
	assert.Equal(t, single.Reference, single.GroupID)
	assert.Equal(t, "fund-1-1", single.ExternalRef)
	assert.Equal(t, "top up", single.Description)
	assert.Equal(t, "fund-1-1", single.Metadata["tx_ref"])

	leg := newTransaction(7, TransferEntry{Amount: dec("5"), Direction: DirectionDebit}, operationOptions{}, "group-1")
	assert.Equal(t, "group-1", leg.GroupID)
	assert.NotEqual(t, leg.GroupID, leg.Reference)
}

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()

	ok, err := l.Claim(context.Background(), "k", 0)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Claim(context.Background(), "k", 0)
	assert.False(t, ok)

	assert.NoError(t, l.Release(context.Background(), "k"))
	ok, _ = l.Claim(context.Background(), "k", 0)
	assert.True(t, ok)
}
