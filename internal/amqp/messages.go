package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventOp names what happened to a record.
type EventOp string

const (
	OpCreated EventOp = "created"
	OpUpdated EventOp = "updated"
	OpDeleted EventOp = "deleted"
)

// RecordEvent is published after every successful record mutation.
// Consumers fetch the record itself by (kind, id) if they need it.
type RecordEvent struct {
	Op        EventOp   `json:"op"`
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(op EventOp, kind string, id int64, month string) *RecordEvent {
	return &RecordEvent{
		Op:        op,
		Kind:      kind,
		ID:        id,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// Type is "<kind>.<op>", e.g. "expense.created". It is sent as the
// message type property.
func (e *RecordEvent) Type() string {
	return e.Kind + "." + string(e.Op)
}

// ToJSON converts the message to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and checks an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown event op %q", e.Op)
	}
	return &e, nil
}
