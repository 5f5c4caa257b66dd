package gateway

import (
	"encoding/json"
	"time"
)

// InboundEvent is one user action forwarded by the messaging gateway:
// free text or the label of a pressed button, both arrive as text.
type InboundEvent struct {
	OwnerID   int64     `json:"owner_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func InboundEventFromJSON(data []byte) (*InboundEvent, error) {
	var ev InboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// OutboundMessage is a rendered reply for the gateway to deliver. Keyboard
// rows, when present, describe the reply-keyboard layout; the gateway owns
// the actual rendering.
type OutboundMessage struct {
	OwnerID  int64      `json:"owner_id"`
	Text     string     `json:"text"`
	Keyboard [][]string `json:"keyboard,omitempty"`
}

func (m *OutboundMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
