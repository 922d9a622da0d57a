package mq

import "errors"

var (
	// ErrNoChannel — канал AMQP недоступен (нет соединения).
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrConnectionClosed — соединение закрыто через Close.
	ErrConnectionClosed = errors.New("amqp connection closed")

	// ErrInvalidMessage — сообщение не разбирается.
	ErrInvalidMessage = errors.New("invalid message")
)

// permanentError — ошибка, повтор которой не поможет.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку обработчика как неисправимую:
// сообщение уходит в DLQ без возврата в очередь.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent сообщает, помечена ли ошибка через Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
