package domain

// ExecutionStatus — статус выполнения flow.
//
// Жизненный цикл:
//
//	pending → fulfilled
//	        ↘ error
type ExecutionStatus string

const (
	// ExecutionStatusPending — выполнение идёт.
	ExecutionStatusPending ExecutionStatus = "pending"

	// ExecutionStatusFulfilled — все достижимые узлы выполнены успешно.
	ExecutionStatusFulfilled ExecutionStatus = "fulfilled"

	// ExecutionStatusError — выполнение прервано ошибкой.
	ExecutionStatusError ExecutionStatus = "error"
)

// IsTerminal возвращает true, если статус финальный.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusFulfilled || s == ExecutionStatusError
}

// ParseExecutionStatus парсит строку в ExecutionStatus.
// Неизвестные значения возвращают false.
func ParseExecutionStatus(s string) (ExecutionStatus, bool) {
	switch ExecutionStatus(s) {
	case ExecutionStatusPending, ExecutionStatusFulfilled, ExecutionStatusError:
		return ExecutionStatus(s), true
	default:
		return "", false
	}
}

// NodeStatus — статус выполнения отдельного узла.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusError     NodeStatus = "error"
)

// ErrorKind — категория ошибки выполнения.
type ErrorKind string

const (
	// ErrorKindUnknownNodeType — тип узла не зарегистрирован.
	ErrorKindUnknownNodeType ErrorKind = "unknown_node_type"

	// ErrorKindCycleDetected — граф содержит цикл.
	ErrorKindCycleDetected ErrorKind = "cycle_detected"

	// ErrorKindSSRFBlocked — исходящий запрос заблокирован.
	ErrorKindSSRFBlocked ErrorKind = "ssrf_blocked"

	// ErrorKindUnresolvedVariable — узел отказался работать с неразрешённым шаблоном.
	ErrorKindUnresolvedVariable ErrorKind = "unresolved_template_variable"

	// ErrorKindNodeFailure — логика узла вернула ошибку или упала.
	ErrorKindNodeFailure ErrorKind = "node_execution_failure"

	// ErrorKindInvalidParameters — параметры не прошли схему типа.
	ErrorKindInvalidParameters ErrorKind = "invalid_parameters"

	// ErrorKindTriggerNotFound — триггер не найден или неоднозначен.
	ErrorKindTriggerNotFound ErrorKind = "trigger_not_found"

	// ErrorKindMaxDepthExceeded — превышена глубина вложенных вызовов flow.
	ErrorKindMaxDepthExceeded ErrorKind = "max_depth_exceeded"
)
