package amqp

import (
	"encoding/json"
	"time"
)

// TransactionAddedMessage announces a newly appended ledger entry. It carries
// only the ID; the export worker fetches the full row from storage, so a
// replayed or delayed message always exports the current state.
type TransactionAddedMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionAddedMessage(id string) *TransactionAddedMessage {
	return &TransactionAddedMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *TransactionAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionAddedMessageFromJSON(data []byte) (*TransactionAddedMessage, error) {
	var msg TransactionAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
