package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"gestmais/internal/core"
)

// PaymentRecordedMessage announces that one month of an apartment's regular
// quota was marked. Consumers re-read whatever they need from storage.
type PaymentRecordedMessage struct {
	MessageID   string    `json:"message_id"`
	BuildingID  int64     `json:"building_id"`
	ApartmentID int64     `json:"apartment_id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

var errMissingBuilding = errors.New("payment recorded message without building_id")

// NewPaymentRecordedMessage creates a message with a fresh ID and timestamp.
func NewPaymentRecordedMessage(buildingID int64, p core.RegularPayment) *PaymentRecordedMessage {
	return &PaymentRecordedMessage{
		MessageID:   uuid.NewString(),
		BuildingID:  buildingID,
		ApartmentID: p.ApartmentID,
		Month:       p.Month,
		Year:        p.Year,
		Status:      string(p.Status),
		AmountCents: p.Amount,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PaymentRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentRecordedMessageFromJSON decodes a message and checks it names a building.
func PaymentRecordedMessageFromJSON(data []byte) (*PaymentRecordedMessage, error) {
	var msg PaymentRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BuildingID <= 0 {
		return nil, errMissingBuilding
	}
	return &msg, nil
}
