package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// TransactionEvent announces a change to one transaction. It carries the
// fields consumers need to decide whether to reload the user's data.
type TransactionEvent struct {
	Action        Action    `json:"action"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Category      string    `json:"category,omitempty"`
	Type          string    `json:"type,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(action Action, userID, transactionID, category, txType string) *TransactionEvent {
	return &TransactionEvent{
		Action:        action,
		UserID:        userID,
		TransactionID: transactionID,
		Category:      category,
		Type:          txType,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *TransactionEvent) Validate() error {
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.UserID == "" {
		return errors.New("missing user_id")
	}
	if m.TransactionID == "" {
		return errors.New("missing transaction_id")
	}
	return nil
}

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction event: %w", err)
	}
	return &msg, nil
}
