package amqp

import (
	"encoding/json"
	"time"
)

// TransactionSyncMessage asks the worker to categorize one transaction.
// It carries only the transaction ID and a version counter; the worker
// fetches the full transaction from the database.
type TransactionSyncMessage struct {
	TransactionID string    `json:"transaction_id"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(transactionID string, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		TransactionID: transactionID,
		Version:       version,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
