// Package audit stores ledger events in MongoDB.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"purse/internal/models"
)

const Collection = "audit_logs"

// Record is the audit document. The event id is the document id, so a
// redelivered event overwrites itself.
type Record struct {
	ID          string    `bson:"_id"`
	Type        string    `bson:"type"`
	Operation   string    `bson:"operation"`
	UserID      uint      `bson:"user_id"`
	WalletID    uint      `bson:"wallet_id,omitempty"`
	Reference   string    `bson:"reference,omitempty"`
	GroupID     string    `bson:"group_id,omitempty"`
	ExternalRef string    `bson:"external_ref,omitempty"`
	Amount      string    `bson:"amount"`
	Status      string    `bson:"status"`
	Reason      string    `bson:"reason,omitempty"`
	OccurredAt  time.Time `bson:"occurred_at"`
	ProcessedAt time.Time `bson:"processed_at"`
}

func NewRecord(event models.LedgerEvent) Record {
	return Record{
		ID:          event.EventID,
		Type:        event.Type,
		Operation:   event.Operation,
		UserID:      event.UserID,
		WalletID:    event.WalletID,
		Reference:   event.Reference,
		GroupID:     event.GroupID,
		ExternalRef: event.ExternalRef,
		Amount:      event.Amount,
		Status:      event.Status,
		Reason:      event.Reason,
		OccurredAt:  event.OccurredAt,
	}
}

type Saver interface {
	Save(ctx context.Context, record Record) error
}

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *mongo.Client, dbName string) *Repository {
	return &Repository{collection: client.Database(dbName).Collection(Collection)}
}

func (r *Repository) Save(ctx context.Context, record Record) error {
	record.ProcessedAt = time.Now().UTC()

	_, err := r.collection.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: record.ID}},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert audit log: %w", err)
	}
	return nil
}

// ErrMalformedEvent marks a message that can never be stored.
var ErrMalformedEvent = errors.New("malformed ledger event")

// Handle decodes one ledger event message and stores it.
func Handle(ctx context.Context, saver Saver, body []byte) error {
	var event models.LedgerEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.EventID == "" || event.Type == "" {
		return fmt.Errorf("%w: missing event id or type", ErrMalformedEvent)
	}
	return saver.Save(ctx, NewRecord(event))
}
