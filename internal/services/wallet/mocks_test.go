package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"purse/internal/models"
	"purse/internal/repositories"
	"purse/internal/services/gateway"
)

var (
	errBalanceCheck = errors.New("new row violates check constraint chk_wallets_balance_non_negative")
	errHeldCheck    = errors.New("new row violates check constraint chk_wallets_held_within_balance")
)

// memState is a snapshot of the ledger tables.
type memState struct {
	wallets      map[uint]models.Wallet // by user id
	transactions []models.Transaction
	refs         map[string]models.ProcessedReference
	nextWalletID uint
	nextTxID     uint
}

func newMemState() *memState {
	return &memState{
		wallets: make(map[uint]models.Wallet),
		refs:    make(map[string]models.ProcessedReference),
	}
}

func (st *memState) clone() *memState {
	c := &memState{
		wallets:      make(map[uint]models.Wallet, len(st.wallets)),
		transactions: append([]models.Transaction(nil), st.transactions...),
		refs:         make(map[string]models.ProcessedReference, len(st.refs)),
		nextWalletID: st.nextWalletID,
		nextTxID:     st.nextTxID,
	}
	for k, v := range st.wallets {
		c.wallets[k] = v
	}
	for k, v := range st.refs {
		c.refs[k] = v
	}
	return c
}

// memStore mimics the store: one transaction at a time, staged writes
// committed atomically or discarded.
type memStore struct {
	mu    sync.Mutex
	state *memState
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

type memRepo struct {
	store *memStore
	state *memState // set inside a transaction
}

func newMemRepo(store *memStore) *memRepo {
	return &memRepo{store: store}
}

func (r *memRepo) with(fn func(st *memState) error) error {
	if r.state != nil {
		return fn(r.state)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r *memRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.with(func(st *memState) error {
		w, ok := st.wallets[userID]
		if !ok {
			return repositories.ErrWalletNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *memRepo) GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *memRepo) GetOrCreateForUpdate(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.with(func(st *memState) error {
		w, ok := st.wallets[userID]
		if !ok {
			st.nextWalletID++
			w = models.Wallet{
				ID:        st.nextWalletID,
				UserID:    userID,
				Balance:   decimal.Zero,
				Held:      decimal.Zero,
				Currency:  currency,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			st.wallets[userID] = w
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *memRepo) UpdateBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error {
	return r.update(walletID, func(w *models.Wallet) { w.Balance = balance })
}

func (r *memRepo) UpdateHeld(ctx context.Context, walletID uint, held decimal.Decimal) error {
	return r.update(walletID, func(w *models.Wallet) { w.Held = held })
}

// update applies fn and enforces the wallet check constraints.
func (r *memRepo) update(walletID uint, fn func(w *models.Wallet)) error {
	return r.with(func(st *memState) error {
		for uid, w := range st.wallets {
			if w.ID != walletID {
				continue
			}
			fn(&w)
			if w.Balance.IsNegative() {
				return errBalanceCheck
			}
			if w.Held.IsNegative() || w.Held.GreaterThan(w.Balance) {
				return errHeldCheck
			}
			w.UpdatedAt = time.Now()
			st.wallets[uid] = w
			return nil
		}
		return repositories.ErrWalletNotFound
	})
}

func (r *memRepo) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return r.with(func(st *memState) error {
		for _, existing := range st.transactions {
			if existing.Reference == tx.Reference {
				return fmt.Errorf("duplicate transaction reference %s", tx.Reference)
			}
		}
		st.nextTxID++
		tx.ID = st.nextTxID
		tx.CreatedAt = time.Now()
		st.transactions = append(st.transactions, *tx)
		return nil
	})
}

func (r *memRepo) ClaimReference(ctx context.Context, ref *models.ProcessedReference) error {
	return r.with(func(st *memState) error {
		if _, ok := st.refs[ref.Key]; ok {
			return fmt.Errorf("%w: %s", repositories.ErrDuplicateReference, ref.Key)
		}
		ref.CreatedAt = time.Now()
		st.refs[ref.Key] = *ref
		return nil
	})
}

func (r *memRepo) HasReference(ctx context.Context, key string) (bool, error) {
	var found bool
	err := r.with(func(st *memState) error {
		_, found = st.refs[key]
		return nil
	})
	return found, err
}

func (r *memRepo) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.with(func(st *memState) error {
		for _, t := range st.transactions {
			if t.WalletID == walletID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []models.Transaction{}, err
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, err
}

func (r *memRepo) ExecuteInTransaction(ctx context.Context, fn func(repositories.WalletRepository) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	staged := r.store.state.clone()
	if err := fn(&memRepo{store: r.store, state: staged}); err != nil {
		return err
	}
	r.store.state = staged
	return nil
}

// snapshot returns a copy of the committed state.
func (s *memStore) snapshot() *memState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

type memFailures struct {
	mu      sync.Mutex
	entries []models.FailedTransaction
}

func (m *memFailures) Create(ctx context.Context, entry *models.FailedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memFailures) all() []models.FailedTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.FailedTransaction(nil), m.entries...)
}

type memPublisher struct {
	mu     sync.Mutex
	events []models.LedgerEvent
}

func (p *memPublisher) Publish(ctx context.Context, event models.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) all() []models.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.LedgerEvent(nil), p.events...)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitiatePayment(ctx context.Context, amount decimal.Decimal, userID uint, email string) (string, error) {
	args := m.Called(ctx, amount, userID, email)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) VerifyPayment(ctx context.Context, txRef string) (gateway.Verification, error) {
	args := m.Called(ctx, txRef)
	return args.Get(0).(gateway.Verification), args.Error(1)
}

func (m *MockGateway) InitiatePayout(ctx context.Context, req gateway.PayoutRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (*gateway.AccountDetails, error) {
	args := m.Called(ctx, bankCode, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.AccountDetails), args.Error(1)
}

func (m *MockGateway) ListBanks(ctx context.Context) ([]gateway.Bank, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Bank), args.Error(1)
}
