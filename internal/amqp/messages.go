package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionCreatedMessage announces a newly persisted transaction so other
// processes can invalidate their cached dashboard aggregates. Carries only
// identifiers; consumers fetch the row if they need more.
type TransactionCreatedMessage struct {
	EventID       string    `json:"event_id"`
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionCreatedMessage builds a message for a transaction dated in
// the given year/month.
func NewTransactionCreatedMessage(userID, transactionID int64, year, month int) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		EventID:       uuid.NewString(),
		UserID:        userID,
		TransactionID: transactionID,
		Year:          year,
		Month:         month,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON creates a message from JSON bytes
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
