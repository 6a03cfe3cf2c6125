package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// TransactionCreatedMessage announces a stored transaction. It carries only
// the identifiers; consumers reload the transaction from the ledger store.
type TransactionCreatedMessage struct {
	TransactionID string    `json:"transaction_id"`
	UnitID        int64     `json:"club_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionCreatedMessage stamps a message with the current time.
func NewTransactionCreatedMessage(txID string, unitID int64) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		TransactionID: txID,
		UnitID:        unitID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes and checks a message body.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TransactionID == "" {
		return nil, errors.New("message has no transaction_id")
	}
	return &msg, nil
}

// permanentError marks a handler failure that redelivery cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the consumer drops the message instead of requeueing it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
