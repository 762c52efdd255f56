package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// MessageType is the "type" discriminator of every frame.
type MessageType string

// Outbound message types.
const (
	TypeConnection        MessageType = "connection"
	TypeTaskCreated       MessageType = "task_created"
	TypeTaskUpdated       MessageType = "task_updated"
	TypeTaskDeleted       MessageType = "task_deleted"
	TypeTaskStatusChanged MessageType = "task_status_changed"
	TypeHeartbeat         MessageType = "heartbeat"
	TypeError             MessageType = "error"
	TypePong              MessageType = "pong"
	TypeStats             MessageType = "stats"
	TypeSubscriptionAck   MessageType = "subscription_ack"
	TypeForcedDisconnect  MessageType = "forced_disconnect"
	TypeSystemBroadcast   MessageType = "system_broadcast"
)

// Inbound message types.
const (
	TypePing      MessageType = "ping"
	TypeSubscribe MessageType = "subscribe"
)

// Envelope holds the fields common to every outbound frame.
type Envelope struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	EventID   string      `json:"event_id,omitempty"`
}

func (e *Envelope) envelope() *Envelope { return e }

// Message is implemented only by the frame types in this package.
type Message interface {
	envelope() *Envelope
}

// Encode stamps msg with the send time and serializes it.
func Encode(msg Message, now time.Time) ([]byte, error) {
	msg.envelope().Timestamp = now.UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.envelope().Type, err)
	}
	return data, nil
}

// ConnectionMessage welcomes a newly registered session.
type ConnectionMessage struct {
	Envelope
	Message      string      `json:"message"`
	ConnectionID SessionID   `json:"connection_id"`
	UserID       int64       `json:"user_id"`
	UserRole     domain.Role `json:"user_role"`
}

// TaskCreated announces a new task.
type TaskCreated struct {
	Envelope
	Task *domain.Task `json:"task"`
	User domain.Actor `json:"user"`
}

// TaskUpdated announces a modified task with the fields that changed.
type TaskUpdated struct {
	Envelope
	Task    *domain.Task   `json:"task"`
	User    domain.Actor   `json:"user"`
	Changes domain.Changes `json:"changes,omitempty"`
}

// TaskDeleted announces a removed task.
type TaskDeleted struct {
	Envelope
	TaskID    int64        `json:"task_id"`
	TaskTitle string       `json:"task_title,omitempty"`
	User      domain.Actor `json:"user"`
}

// TaskStatusChanged announces a status transition.
type TaskStatusChanged struct {
	Envelope
	Task      *domain.Task      `json:"task"`
	OldStatus domain.TaskStatus `json:"old_status"`
	NewStatus domain.TaskStatus `json:"new_status"`
	UpdatedBy domain.Actor      `json:"updated_by"`
}

// Heartbeat is broadcast periodically to every session.
type Heartbeat struct {
	Envelope
	ActiveConnections int `json:"active_connections"`
}

// ErrorMessage reports a problem to the client; Code mirrors the close code
// used when the error is fatal.
type ErrorMessage struct {
	Envelope
	Message string    `json:"message"`
	Code    CloseCode `json:"code"`
}

// Pong answers a ping, echoing its data.
type Pong struct {
	Envelope
	Data json.RawMessage `json:"data"`
}

// StatsMessage answers a stats request.
type StatsMessage struct {
	Envelope
	Data Stats `json:"data"`
}

// SubscriptionAck echoes the event names a client subscribed to.
type SubscriptionAck struct {
	Envelope
	SubscribedTo []string `json:"subscribed_to"`
}

// ForcedDisconnect is sent before an administrator closes a session.
type ForcedDisconnect struct {
	Envelope
	Message string `json:"message"`
}

// SystemBroadcast carries an operator announcement to every session.
type SystemBroadcast struct {
	Envelope
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// NewErrorMessage builds an error frame.
func NewErrorMessage(message string, code CloseCode) *ErrorMessage {
	return &ErrorMessage{Envelope: Envelope{Type: TypeError}, Message: message, Code: code}
}

// NewHeartbeat builds a heartbeat frame.
func NewHeartbeat(active int) *Heartbeat {
	return &Heartbeat{Envelope: Envelope{Type: TypeHeartbeat}, ActiveConnections: active}
}

// NewSystemBroadcast builds an operator announcement.
func NewSystemBroadcast(message, sender string) *SystemBroadcast {
	if sender == "" {
		sender = "system"
	}
	return &SystemBroadcast{Envelope: Envelope{Type: TypeSystemBroadcast}, Message: message, Sender: sender}
}

// ClientMessage is an inbound control frame.
type ClientMessage struct {
	Type   MessageType     `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Events []string        `json:"events,omitempty"`
}

// ParseClientMessage decodes an inbound frame. Frames that are not a JSON
// object with a type return ErrMalformedFrame.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return &msg, nil
}
