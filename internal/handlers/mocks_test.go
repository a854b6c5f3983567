package handlers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"purse/internal/models"
	"purse/internal/services/gateway"
	"purse/internal/services/wallet"
	"purse/internal/services/webhook"
)

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Fund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...wallet.OperationOption) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, len(opts))
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *MockWalletService) Withdraw(ctx context.Context, userID uint, req wallet.WithdrawRequest, opts ...wallet.OperationOption) (*models.Transaction, error) {
	args := m.Called(ctx, userID, req, len(opts))
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *MockWalletService) Transfer(ctx context.Context, fromUserID, toUserID uint, amount decimal.Decimal, opts ...wallet.OperationOption) (*wallet.TransferResult, error) {
	args := m.Called(ctx, fromUserID, toUserID, amount, len(opts))
	res, _ := args.Get(0).(*wallet.TransferResult)
	return res, args.Error(1)
}

func (m *MockWalletService) Refund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...wallet.OperationOption) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, len(opts))
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletService) GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

func (m *MockWalletService) InitiateFunding(ctx context.Context, userID uint, email string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, userID, email, amount)
	return args.String(0), args.Error(1)
}

func (m *MockWalletService) ListBanks(ctx context.Context) ([]gateway.Bank, error) {
	args := m.Called(ctx)
	banks, _ := args.Get(0).([]gateway.Bank)
	return banks, args.Error(1)
}

func (m *MockWalletService) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*gateway.AccountDetails, error) {
	args := m.Called(ctx, bankCode, accountNumber)
	d, _ := args.Get(0).(*gateway.AccountDetails)
	return d, args.Error(1)
}

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) ProcessPaymentWebhook(ctx context.Context, n webhook.Notification, signature string) (webhook.Outcome, error) {
	args := m.Called(ctx, n, signature)
	return args.Get(0).(webhook.Outcome), args.Error(1)
}
