package nodes

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateParameters проверяет параметры по InputSchema типа узла.
// Тип без схемы принимает любые параметры.
func ValidateParameters(node Node, params map[string]any) error {
	schema := node.Definition().InputSchema
	if len(schema) == 0 {
		return nil
	}
	return ValidateAgainstSchema(schema, params)
}

// InvocationSchema возвращает JSON Schema входа узла для заданных параметров.
// Узлы без SchemaProvider принимают произвольный объект.
func InvocationSchema(node Node, params map[string]any) map[string]any {
	if p, ok := node.(SchemaProvider); ok {
		return p.InputSchema(params)
	}
	return map[string]any{"type": "object"}
}

// ValidateAgainstSchema проверяет документ по JSON Schema.
func ValidateAgainstSchema(schema map[string]any, document any) error {
	if document == nil {
		document = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(msgs, "; "))
	}

	return nil
}
