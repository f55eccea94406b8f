package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"findash/internal/history"
)

// EventReportComputed is the routing key and type of report events.
const EventReportComputed = "report.computed"

// ReportComputedMessage carries the history entry of a freshly computed report.
type ReportComputedMessage struct {
	Type      string        `json:"type"`
	Entry     history.Entry `json:"entry"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewReportComputedMessage wraps e.
func NewReportComputedMessage(e history.Entry) *ReportComputedMessage {
	return &ReportComputedMessage{Type: EventReportComputed, Entry: e, Timestamp: time.Now().UTC()}
}

func (m *ReportComputedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportComputedMessageFromJSON decodes and validates a message body.
func ReportComputedMessageFromJSON(data []byte) (*ReportComputedMessage, error) {
	var msg ReportComputedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != EventReportComputed {
		return nil, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	if err := msg.Entry.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
