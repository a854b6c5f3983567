package webhook

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "purse/internal/errors"
	"purse/internal/models"
	"purse/internal/services/gateway"
	"purse/internal/services/wallet"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Fund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...wallet.OperationOption) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedger) Refund(ctx context.Context, userID uint, amount decimal.Decimal, opts ...wallet.OperationOption) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyPayment(ctx context.Context, txRef string) (gateway.Verification, error) {
	args := m.Called(ctx, txRef)
	return args.Get(0).(gateway.Verification), args.Error(1)
}

func paid(amount decimal.Decimal) gateway.Verification {
	return gateway.Verification{Paid: true, Amount: amount}
}

type memFailures struct {
	mu      sync.Mutex
	entries []models.FailedTransaction
}

func (m *memFailures) Create(ctx context.Context, entry *models.FailedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

type fixture struct {
	svc      Service
	ledger   *MockLedger
	verifier *MockVerifier
	failures *memFailures
	claims   *wallet.MemoryLocker
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		ledger:   new(MockLedger),
		verifier: new(MockVerifier),
		failures: &memFailures{},
		claims:   wallet.NewMemoryLocker(),
	}
	f.svc = NewService(f.ledger, f.failures, f.verifier, f.claims, cfg)
	return f
}

var hundred = decimal.NewFromInt(100)

func TestProcessPaymentWebhook_SuccessfulPayment(t *testing.T) {
	f := newFixture(Config{VerifyPayments: true})
	f.verifier.On("VerifyPayment", mock.Anything, "fund-7-1700000000000").Return(paid(hundred), nil).Once()
	f.ledger.On("Fund", mock.Anything, uint(7), hundred).Return(&models.Transaction{}, nil).Once()

	outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), Notification{
		TxRef:  "fund-7-1700000000000",
		Status: "successful",
		Amount: hundred,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFunded, outcome)
	assert.Empty(t, f.failures.entries)

	f.verifier.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestProcessPaymentWebhook_DuplicateDelivery(t *testing.T) {
	f := newFixture(Config{})
	f.ledger.On("Fund", mock.Anything, uint(7), hundred).Return(&models.Transaction{}, nil).Once()

	n := Notification{TxRef: "fund-7-1700000000000", Status: "successful", Amount: hundred}

	outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFunded, outcome)

	outcome, err = f.svc.ProcessPaymentWebhook(context.Background(), n, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	f.ledger.AssertNumberOfCalls(t, "Fund", 1)
}

func TestProcessPaymentWebhook_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(Config{})
	f.ledger.On("Fund", mock.Anything, uint(7), hundred).Return(&models.Transaction{}, nil).Once()

	n := Notification{TxRef: "fund-7-1700000000000", Status: "successful", Amount: hundred}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f.ledger.AssertNumberOfCalls(t, "Fund", 1)
}

func TestProcessPaymentWebhook_StoreDedupWins(t *testing.T) {
	f := newFixture(Config{})
	f.ledger.On("Fund", mock.Anything, uint(7), hundred).
		Return(nil, apperrors.ErrDuplicateReference).Once()

	outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), Notification{
		TxRef:  "fund-7-1700000000000",
		Status: "successful",
		Amount: hundred,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
}

func TestProcessPaymentWebhook_Verification(t *testing.T) {
	n := Notification{TxRef: "fund-7-1700000000000", Status: "successful", Amount: hundred}

	t.Run("unverified payment is logged and not funded", func(t *testing.T) {
		f := newFixture(Config{VerifyPayments: true})
		f.verifier.On("VerifyPayment", mock.Anything, n.TxRef).Return(gateway.Verification{}, nil).Once()

		outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeVerificationFailed, outcome)

		f.ledger.AssertNotCalled(t, "Fund", mock.Anything, mock.Anything, mock.Anything)
		require.Len(t, f.failures.entries, 1)
		assert.Equal(t, "Verification failed", f.failures.entries[0].Reason)
	})

	t.Run("amount differing from the verified payment is not funded", func(t *testing.T) {
		f := newFixture(Config{VerifyPayments: true})
		inflated := Notification{TxRef: n.TxRef, Status: "successful", Amount: decimal.NewFromInt(100000)}
		f.verifier.On("VerifyPayment", mock.Anything, n.TxRef).Return(paid(hundred), nil).Once()

		outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), inflated, "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeVerificationFailed, outcome)

		f.ledger.AssertNotCalled(t, "Fund", mock.Anything, mock.Anything, mock.Anything)
		require.Len(t, f.failures.entries, 1)
		assert.Equal(t, "Verification failed: amount mismatch", f.failures.entries[0].Reason)
	})

	t.Run("equal amounts with different scale are funded", func(t *testing.T) {
		f := newFixture(Config{VerifyPayments: true})
		f.verifier.On("VerifyPayment", mock.Anything, n.TxRef).
			Return(paid(decimal.RequireFromString("100.00")), nil).Once()
		f.ledger.On("Fund", mock.Anything, uint(7), hundred).Return(&models.Transaction{}, nil).Once()

		outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeFunded, outcome)
	})

	t.Run("verification error releases the claim for redelivery", func(t *testing.T) {
		f := newFixture(Config{VerifyPayments: true})
		f.verifier.On("VerifyPayment", mock.Anything, n.TxRef).Return(gateway.Verification{}, errors.New("connection reset")).Once()
		f.verifier.On("VerifyPayment", mock.Anything, n.TxRef).Return(paid(hundred), nil).Once()
		f.ledger.On("Fund", mock.Anything, uint(7), hundred).Return(&models.Transaction{}, nil).Once()

		_, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "")
		assert.ErrorIs(t, err, apperrors.ErrFailedToVerifyPayment)
		require.Len(t, f.failures.entries, 1)
		assert.Contains(t, f.failures.entries[0].Reason, "Verification failed")

		outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeFunded, outcome)
	})
}

func TestProcessPaymentWebhook_FailedPaymentRefunds(t *testing.T) {
	f := newFixture(Config{VerifyPayments: true})
	f.ledger.On("Refund", mock.Anything, uint(7), hundred).Return(&models.Transaction{}, nil).Once()

	outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), Notification{
		TxRef:  "fund-7-1700000000000",
		Status: "failed",
		Amount: hundred,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefunded, outcome)

	f.verifier.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
	require.Len(t, f.failures.entries, 1)
	entry := f.failures.entries[0]
	assert.Equal(t, "Payment status: failed", entry.Reason)
	assert.Equal(t, "fund", entry.Type)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(7), *entry.UserID)
}

func TestProcessPaymentWebhook_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		n       Notification
		wantErr error
	}{
		{"missing txRef", Notification{Status: "successful", Amount: hundred}, apperrors.ErrInvalidWebhookData},
		{"missing status", Notification{TxRef: "fund-7-1", Amount: hundred}, apperrors.ErrInvalidWebhookData},
		{"no user id", Notification{TxRef: "fund", Status: "successful", Amount: hundred}, apperrors.ErrInvalidTransactionDetails},
		{"non-numeric user id", Notification{TxRef: "fund-abc-1", Status: "successful", Amount: hundred}, apperrors.ErrInvalidTransactionDetails},
		{"zero amount", Notification{TxRef: "fund-7-1", Status: "successful"}, apperrors.ErrInvalidTransactionDetails},
		{"negative amount", Notification{TxRef: "fund-7-1", Status: "failed", Amount: decimal.NewFromInt(-5)}, apperrors.ErrInvalidTransactionDetails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Config{})

			_, err := f.svc.ProcessPaymentWebhook(context.Background(), tt.n, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, f.failures.entries, 1)
			f.ledger.AssertNotCalled(t, "Fund", mock.Anything, mock.Anything, mock.Anything)
			f.ledger.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProcessPaymentWebhook_Signature(t *testing.T) {
	n := Notification{TxRef: "fund-7-1", Status: "successful", Amount: hundred}

	f := newFixture(Config{SecretHash: "s3cret"})
	_, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	f.ledger.AssertNotCalled(t, "Fund", mock.Anything, mock.Anything, mock.Anything)

	f.ledger.On("Fund", mock.Anything, uint(7), hundred).Return(&models.Transaction{}, nil).Once()
	outcome, err := f.svc.ProcessPaymentWebhook(context.Background(), n, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFunded, outcome)
}
