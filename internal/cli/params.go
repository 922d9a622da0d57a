package cli

import (
	"fmt"
	"strings"

	"github.com/shaiso/toolflow/internal/xjson"
)

// ParseParams разбирает флаги --param key=value.
//
// Значение, которое разбирается как JSON (число, bool, объект, массив,
// строка в кавычках), передаётся как есть. Иначе — строкой.
func ParseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		params[key] = parseParamValue(value)
	}
	return params, nil
}

func parseParamValue(value string) any {
	var v any
	if err := xjson.UnmarshalNumbers([]byte(value), &v); err == nil {
		return v
	}
	return value
}
