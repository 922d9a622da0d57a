// Package orchestrator выполняет flow.
//
// Orchestrator отвечает за:
//   - Выбор триггера по slug или имени инструмента
//   - Построение порядка выполнения (engine.BuildDAG)
//   - Разрешение шаблонов и проверку параметров каждого узла
//   - Запись трассы выполнения (FlowExecution)
//   - Вложенные вызовы flow через call_flow с ограничением глубины
//
// Один вызов выполняется последовательно и останавливается на первой
// ошибке узла. Независимые вызовы могут идти конкурентно.
package orchestrator
