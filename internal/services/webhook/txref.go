package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "purse/internal/errors"
)

// ParseTxRef extracts the user id from a "<kind>-<userId>-<timestamp>"
// reference.
func ParseTxRef(txRef string) (uint, error) {
	parts := strings.Split(txRef, "-")
	if len(parts) < 2 || parts[0] == "" {
		return 0, fmt.Errorf("%w: malformed txRef %q", apperrors.ErrInvalidTransactionDetails, txRef)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid user id in txRef %q", apperrors.ErrInvalidTransactionDetails, txRef)
	}
	return uint(id), nil
}

type payload struct {
	TxRef     string              `json:"txRef"`
	TxRefJSON string              `json:"tx_ref"`
	Status    string              `json:"status"`
	Amount    decimal.NullDecimal `json:"amount"`
	Data      *payload            `json:"data"`
}

// DecodeNotification reads a gateway payment notification. Both a flat body
// and the {"event": ..., "data": {...}} envelope are accepted.
func DecodeNotification(body []byte) (Notification, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidWebhookData, err)
	}
	if p.Data != nil && p.TxRef == "" && p.TxRefJSON == "" {
		p = *p.Data
	}

	n := Notification{TxRef: p.TxRef, Status: p.Status}
	if n.TxRef == "" {
		n.TxRef = p.TxRefJSON
	}
	if p.Amount.Valid {
		n.Amount = p.Amount.Decimal
	}
	return n, nil
}
