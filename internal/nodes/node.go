package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/domain"
)

// Node — реализация типа узла.
type Node interface {
	// Type возвращает имя типа.
	Type() string

	// Definition возвращает контракт типа.
	Definition() domain.NodeTypeDefinition

	// Execute выполняет узел.
	//
	// Логическая ошибка узла возвращается через Result.Error,
	// ошибка выполнения (panic-free throw) — через error.
	Execute(ctx context.Context, ec *ExecutionContext) (*Result, error)
}

// SchemaProvider — узел, схема входа которого зависит от его параметров.
// Триггер так описывает параметры вызова инструмента.
type SchemaProvider interface {
	InputSchema(params map[string]any) map[string]any
}

// ValueSource — доступ к результатам уже выполненных узлов.
type ValueSource interface {
	// NodeValue возвращает результат узла по ID.
	NodeValue(nodeID string) (any, bool)

	// TemplateValues возвращает результаты по slug для разрешения шаблонов.
	TemplateValues() map[string]any
}

// FlowCaller — вложенный вызов другого flow.
type FlowCaller interface {
	CallFlow(ctx context.Context, flowID, trigger string, params map[string]any) (any, error)
}

// ExecutionContext — окружение выполнения одного узла.
type ExecutionContext struct {
	FlowID      string
	ExecutionID uuid.UUID

	// NodeID и Node — выполняемый экземпляр.
	NodeID string
	Node   *domain.Node

	// Parameters — параметры после разрешения шаблонов.
	Parameters map[string]any

	// RawParameters — параметры до разрешения (defaults + экземпляр).
	RawParameters map[string]any

	// UnresolvedVars — пути плейсхолдеров, которые не удалось разрешить.
	UnresolvedVars []string

	// BlockedVars — пути, значения которых заблокированы guard.
	BlockedVars []string

	// Input — параметры вызова flow (читает только триггер).
	Input map[string]any

	// Depth — глубина вложенного вызова flow.
	Depth int

	Values ValueSource
	Flows  FlowCaller
	Logger *slog.Logger
}

// GetNodeValue возвращает результат ранее выполненного узла.
func (ec *ExecutionContext) GetNodeValue(nodeID string) (any, bool) {
	if ec.Values == nil {
		return nil, false
	}
	return ec.Values.NodeValue(nodeID)
}

// TemplateValues возвращает результаты узлов по slug.
func (ec *ExecutionContext) TemplateValues() map[string]any {
	if ec.Values == nil {
		return map[string]any{}
	}
	return ec.Values.TemplateValues()
}

// CallFlow синхронно вызывает другой flow.
func (ec *ExecutionContext) CallFlow(ctx context.Context, flowID, trigger string, params map[string]any) (any, error) {
	if ec.Flows == nil {
		return nil, ErrNoFlowCaller
	}
	return ec.Flows.CallFlow(ctx, flowID, trigger, params)
}

// Log возвращает логгер узла.
func (ec *ExecutionContext) Log() *slog.Logger {
	if ec.Logger != nil {
		return ec.Logger
	}
	return slog.Default()
}

// Result — результат выполнения узла.
type Result struct {
	// Output — выходные данные, доступны потомкам через {{slug...}}.
	Output any `json:"output,omitempty"`

	// Error — текст логической ошибки. Пусто — успех.
	Error string `json:"error,omitempty"`
}

// Success сообщает об успешном выполнении.
func (r *Result) Success() bool {
	return r != nil && r.Error == ""
}

// Succeeded создаёт успешный результат.
func Succeeded(output any) *Result {
	return &Result{Output: output}
}

// Failed создаёт результат с логической ошибкой.
func Failed(format string, args ...any) *Result {
	return &Result{Error: fmt.Sprintf(format, args...)}
}

// checkContext возвращает ErrNodeCancelled, если контекст отменён.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrNodeCancelled, ctx.Err())
	default:
		return nil
	}
}

// GetString извлекает строковое значение из параметров.
func GetString(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetInt извлекает числовое значение из параметров.
func GetInt(params map[string]any, key string) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case fmt.Stringer:
			if i, err := strconv.Atoi(n.String()); err == nil {
				return i
			}
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return i
			}
		}
	}
	return 0
}

// GetBool извлекает булево значение из параметров.
func GetBool(params map[string]any, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		switch b := v.(type) {
		case bool:
			return b
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed
			}
		}
	}
	return defaultVal
}

// GetMap извлекает map из параметров.
func GetMap(params map[string]any, key string) map[string]any {
	if v, ok := params[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// GetStringMap извлекает map[string]string из параметров.
func GetStringMap(params map[string]any, key string) map[string]string {
	if v, ok := params[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string, len(m))
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}

// MergeParameters накладывает параметры экземпляра на параметры по умолчанию.
// Вложенные map объединяются рекурсивно, остальные значения заменяются.
func MergeParameters(defaults, params map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(params))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range params {
		dm, dok := merged[k].(map[string]any)
		pm, pok := v.(map[string]any)
		if dok && pok {
			merged[k] = MergeParameters(dm, pm)
			continue
		}
		merged[k] = v
	}
	return merged
}
