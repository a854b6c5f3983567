package models

import (
	"strconv"
	"time"
)

// ProcessedReference marks an external reference (webhook txRef or a caller
// idempotency key) as applied. It is written in the same database transaction
// as the balance change it guards.
type ProcessedReference struct {
	Key       string `gorm:"primaryKey"`
	Operation string `gorm:"type:varchar(16);not null"`
	WalletID  uint   `gorm:"not null"`
	CreatedAt time.Time
}

// ReferenceKey scopes an external reference to the user it acts for and the
// effect it produced. Two users may pick the same key, and the same txRef can
// drive one fund and one refund but never two of either.
func ReferenceKey(op TransactionType, userID uint, ref string) string {
	return string(op) + ":" + strconv.FormatUint(uint64(userID), 10) + ":" + ref
}
