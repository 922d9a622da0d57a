package domain

import "slices"

// NodeTypeDefinition — контракт типа узла.
//
// Определение неизменяемо после регистрации в реестре.
// Узел без входов — триггер, узел без выходов — терминальный.
type NodeTypeDefinition struct {
	// Name — имя типа, по которому узлы ссылаются на реестр.
	Name string `json:"name"`

	// DisplayName — имя для редактора.
	DisplayName string `json:"display_name"`

	// Description — краткое описание поведения.
	Description string `json:"description,omitempty"`

	// Inputs — имена входных хэндлов.
	Inputs []string `json:"inputs"`

	// Outputs — имена выходных хэндлов. Пусто — терминальный узел.
	Outputs []string `json:"outputs"`

	// DefaultParameters — параметры по умолчанию, экземпляр перекрывает их.
	DefaultParameters map[string]any `json:"default_parameters,omitempty"`

	// InputSchema — JSON Schema параметров (опционально).
	InputSchema map[string]any `json:"input_schema,omitempty"`

	// OutputSchema — JSON Schema результата (опционально).
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

// IsTrigger возвращает true для узлов без входов.
func (d NodeTypeDefinition) IsTrigger() bool {
	return len(d.Inputs) == 0
}

// IsTerminal возвращает true для узлов без выходов.
func (d NodeTypeDefinition) IsTerminal() bool {
	return len(d.Outputs) == 0
}

// HasInput проверяет наличие входного хэндла.
func (d NodeTypeDefinition) HasInput(handle string) bool {
	return slices.Contains(d.Inputs, handle)
}

// HasOutput проверяет наличие выходного хэндла.
func (d NodeTypeDefinition) HasOutput(handle string) bool {
	return slices.Contains(d.Outputs, handle)
}
