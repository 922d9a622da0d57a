// Package xjson — единая точка сериализации JSON (goccy/go-json).
package xjson

import (
	"bytes"
	stdjson "encoding/json"

	gojson "github.com/goccy/go-json"
)

// RawMessage совместим с encoding/json.RawMessage.
type RawMessage = stdjson.RawMessage

// Number совместим с encoding/json.Number.
type Number = stdjson.Number

// Marshal сериализует значение в JSON.
func Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalIndent сериализует значение с отступами.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal десериализует JSON.
func Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

// UnmarshalNumbers десериализует JSON, сохраняя числа как Number.
func UnmarshalNumbers(data []byte, v any) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Remarshal перекладывает значение в другую структуру через JSON.
func Remarshal(src, dst any) error {
	data, err := Marshal(src)
	if err != nil {
		return err
	}
	return Unmarshal(data, dst)
}
