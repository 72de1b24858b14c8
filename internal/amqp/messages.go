package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
)

// EventTransactionCreated is the type of events published after an append.
const EventTransactionCreated = "transaction.created"

// TransactionEvent carries a full snapshot of the stored record so consumers
// never need to read it back.
type TransactionEvent struct {
	EventID     string           `json:"eventId"`
	Type        string           `json:"type"`
	Transaction core.Transaction `json:"transaction"`
	PublishedAt time.Time        `json:"publishedAt"`
}

func NewTransactionCreated(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		EventID:     uuid.NewString(),
		Type:        EventTransactionCreated,
		Transaction: t,
		PublishedAt: time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and sanity checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != EventTransactionCreated {
		return nil, errors.New("unknown event type " + msg.Type)
	}
	if err := msg.Transaction.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction in event: %w", err)
	}
	return &msg, nil
}
