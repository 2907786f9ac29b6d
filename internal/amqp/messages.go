package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// RoutingTransactionChanged is the routing key for TransactionEvent messages.
const RoutingTransactionChanged = "transaction.changed"

// TransactionEvent announces that a user's transactions for a month changed.
// It only identifies the month; consumers reload the data from storage.
type TransactionEvent struct {
	UserID    int64     `json:"user_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Kind      string    `json:"kind"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(userID int64, year, month int, kind string, count int) *TransactionEvent {
	return &TransactionEvent{
		UserID:    userID,
		Year:      year,
		Month:     month,
		Kind:      kind,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// Validate rejects events that cannot name a user month.
func (m *TransactionEvent) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", m.UserID)
	}
	if m.Month < 1 || m.Month > 12 || m.Year < 1 {
		return fmt.Errorf("invalid period %04d-%02d", m.Year, m.Month)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
