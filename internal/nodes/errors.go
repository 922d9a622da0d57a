package nodes

import "errors"

// Ошибки реестра и выполнения узлов.
var (
	// ErrUnknownNodeType — тип узла не зарегистрирован.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrDuplicateNodeType — тип зарегистрирован дважды.
	ErrDuplicateNodeType = errors.New("duplicate node type")

	// ErrInvalidParameters — параметры узла невалидны.
	ErrInvalidParameters = errors.New("invalid node parameters")

	// ErrMissingParameter — не передан обязательный параметр триггера.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrUnresolvedVariable — узел не может работать с неразрешённым шаблоном.
	ErrUnresolvedVariable = errors.New("unresolved template variable")

	// ErrNoFlowCaller — контекст не поддерживает вложенные вызовы flow.
	ErrNoFlowCaller = errors.New("nested flow calls are not available")

	// ErrResponseTooLarge — тело ответа api_call превышает лимит.
	ErrResponseTooLarge = errors.New("response body too large")

	// ErrNodeCancelled — выполнение узла отменено.
	ErrNodeCancelled = errors.New("node execution cancelled")
)
