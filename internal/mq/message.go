package mq

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/xjson"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeInvocationRequested MessageType = "invocation.requested"
	MessageTypeExecutionFinished   MessageType = "execution.finished"
)

// Message — конверт сообщения.
type Message struct {
	ID        string           `json:"id"`
	Type      MessageType      `json:"type"`
	Payload   xjson.RawMessage `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

// InvocationRequestedPayload — запрос асинхронного вызова flow.
type InvocationRequestedPayload struct {
	// RequestID возвращается клиенту в ответе 202.
	RequestID uuid.UUID      `json:"request_id"`
	FlowID    string         `json:"flow_id"`
	Trigger   string         `json:"trigger,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// ExecutionFinishedPayload — итог вызова.
type ExecutionFinishedPayload struct {
	RequestID    uuid.UUID              `json:"request_id"`
	ExecutionID  uuid.UUID              `json:"execution_id"`
	FlowID       string                 `json:"flow_id"`
	Status       domain.ExecutionStatus `json:"status"`
	ErrorKind    domain.ErrorKind       `json:"error_kind,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	DurationMs   int64                  `json:"duration_ms"`
}

// NewExecutionFinished строит payload из завершённого выполнения.
func NewExecutionFinished(requestID uuid.UUID, exec *domain.FlowExecution) ExecutionFinishedPayload {
	p := ExecutionFinishedPayload{
		RequestID:   requestID,
		ExecutionID: exec.ID,
		FlowID:      exec.FlowID,
		Status:      exec.Status,
		DurationMs:  exec.Duration().Milliseconds(),
	}
	if exec.ErrorInfo != nil {
		p.ErrorKind = exec.ErrorInfo.Kind
		p.ErrorMessage = exec.ErrorInfo.Message
	}
	return p
}

// NewMessage упаковывает payload в конверт.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	data, err := xjson.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// EncodeMessage сериализует конверт.
func EncodeMessage(msg *Message) ([]byte, error) {
	return xjson.Marshal(msg)
}

// DecodeMessage разбирает конверт.
func DecodeMessage(body []byte) (*Message, error) {
	var msg Message
	if err := xjson.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return &msg, nil
}

// ParsePayload разбирает payload сообщения в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T
	if len(msg.Payload) == 0 {
		return result, fmt.Errorf("%w: empty payload", ErrInvalidMessage)
	}
	if err := xjson.UnmarshalNumbers(msg.Payload, &result); err != nil {
		return result, fmt.Errorf("%w: payload: %v", ErrInvalidMessage, err)
	}
	return result, nil
}
