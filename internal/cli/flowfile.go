package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/xjson"
)

// isYAML определяет формат по расширению.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFlowFile читает flow из YAML или JSON файла.
//
// Если is_active не указан, flow считается активным.
// Если не указан id, используется имя файла без расширения.
func LoadFlowFile(path string) (*domain.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow file: %w", err)
	}
	return ParseFlow(data, isYAML(path), strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// ParseFlow разбирает описание flow. defaultID подставляется при пустом id.
func ParseFlow(data []byte, yamlFormat bool, defaultID string) (*domain.Flow, error) {
	var raw map[string]any
	if yamlFormat {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFlowFile, err)
		}
	} else if err := xjson.UnmarshalNumbers(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlowFile, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidFlowFile)
	}

	if _, ok := raw["is_active"]; !ok {
		raw["is_active"] = true
	}
	if id, _ := raw["id"].(string); id == "" {
		raw["id"] = defaultID
	}

	var flow domain.Flow
	if err := xjson.Remarshal(raw, &flow); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlowFile, err)
	}
	return &flow, nil
}

// WriteFlowFile сохраняет flow в том же формате, что определяет расширение.
// Служебные поля хранилища (created_at, updated_at) в файл не пишутся.
func WriteFlowFile(path string, flow *domain.Flow) error {
	var doc map[string]any
	if err := xjson.Remarshal(flow, &doc); err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}
	delete(doc, "created_at")
	delete(doc, "updated_at")

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = xjson.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write flow file: %w", err)
	}
	return nil
}
