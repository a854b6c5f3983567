package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"purse/internal/models"
)

type walletRepository struct {
	db          *gorm.DB
	retry       RetryPolicy
	lockTimeout time.Duration
}

func NewWalletRepository(db *gorm.DB, retry RetryPolicy, lockTimeout time.Duration) WalletRepository {
	return &walletRepository{
		db:          db,
		retry:       retry,
		lockTimeout: lockTimeout,
	}
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetOrCreateForUpdate(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	// Insert-if-absent keeps concurrent first operations from racing on creation;
	// the loser simply locks the winner's row.
	wallet := &models.Wallet{UserID: userID, Currency: currency}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(wallet).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return r.GetByUserIDForUpdate(ctx, userID)
}

func (r *walletRepository) UpdateBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error {
	return r.updateWallet(ctx, walletID, "balance", balance)
}

func (r *walletRepository) UpdateHeld(ctx context.Context, walletID uint, held decimal.Decimal) error {
	return r.updateWallet(ctx, walletID, "held", held)
}

func (r *walletRepository) updateWallet(ctx context.Context, walletID uint, column string, value decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{column: value, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (r *walletRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *walletRepository) ClaimReference(ctx context.Context, ref *models.ProcessedReference) error {
	err := r.db.WithContext(ctx).Create(ref).Error
	if err != nil {
		if IsUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateReference, ref.Key)
		}
		return fmt.Errorf("failed to record reference: %w", err)
	}
	return nil
}

func (r *walletRepository) HasReference(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProcessedReference{}).
		Where("key = ?", key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up reference: %w", err)
	}
	return count > 0, nil
}

func (r *walletRepository) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	var history []models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return history, nil
}

func (r *walletRepository) ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error {
	return WithRetry(ctx, r.retry, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if r.lockTimeout > 0 {
				stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("failed to set lock timeout: %w", err)
				}
			}
			txRepo := &walletRepository{db: tx, lockTimeout: r.lockTimeout}
			return fn(txRepo)
		})
	})
}
