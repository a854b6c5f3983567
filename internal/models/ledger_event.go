package models

import "time"

const (
	EventTransactionCreated = "transaction.created"
	EventTransactionFailed  = "transaction.failed"
)

// LedgerEvent is published after a ledger operation settles or fails.
type LedgerEvent struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	Operation   string    `json:"operation"`
	UserID      uint      `json:"user_id"`
	WalletID    uint      `json:"wallet_id,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	GroupID     string    `json:"group_id,omitempty"`
	ExternalRef string    `json:"external_ref,omitempty"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
