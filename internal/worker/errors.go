package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnexpectedMessage — в очереди сообщение не того типа.
	ErrUnexpectedMessage = errors.New("unexpected message type")

	// ErrMissingFlowID — в запросе нет flow_id.
	ErrMissingFlowID = errors.New("missing flow id")

	// ErrNoConnection — worker запущен без соединения с RabbitMQ.
	ErrNoConnection = errors.New("no mq connection")
)
