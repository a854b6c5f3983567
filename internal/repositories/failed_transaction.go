package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"purse/internal/models"
)

type failedTransactionRepository struct {
	db *gorm.DB
}

func NewFailedTransactionRepository(db *gorm.DB) FailedTransactionRepository {
	return &failedTransactionRepository{db: db}
}

func (r *failedTransactionRepository) Create(ctx context.Context, entry *models.FailedTransaction) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to log failed transaction: %w", err)
	}
	return nil
}
