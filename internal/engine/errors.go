package engine

import "errors"

// Ошибки структуры flow.
var (
	// ErrCycleDetected — связи образуют цикл.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateSlug — несколько узлов с одинаковым slug.
	ErrDuplicateSlug = errors.New("duplicate node slug")

	// ErrInvalidSlug — slug не подходит для ссылок из шаблонов.
	ErrInvalidSlug = errors.New("invalid node slug")

	// ErrMissingNode — связь ссылается на несуществующий узел.
	ErrMissingNode = errors.New("connection references unknown node")

	// ErrUnknownHandle — хэндл отсутствует в определении типа.
	ErrUnknownHandle = errors.New("unknown node handle")

	// ErrDuplicateConnection — такая связь уже есть.
	ErrDuplicateConnection = errors.New("duplicate connection")

	// ErrTriggerHasInput — в триггер входит связь.
	ErrTriggerHasInput = errors.New("trigger node cannot have incoming connections")

	// ErrTerminalHasOutput — из терминального узла выходит связь.
	ErrTerminalHasOutput = errors.New("terminal node cannot have outgoing connections")

	// ErrInvalidFlow — flow не прошёл валидацию полей.
	ErrInvalidFlow = errors.New("invalid flow")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	NodeID  string // ID узла, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(nodeID, field, message string, err error) *ValidationError {
	return &ValidationError{
		NodeID:  nodeID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
