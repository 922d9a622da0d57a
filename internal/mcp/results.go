package mcp

import (
	"fmt"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/xjson"
)

// textResult упаковывает payload в текстовый результат инструмента.
func textResult(payload any) (any, error) {
	text, ok := payload.(string)
	if !ok {
		raw, err := xjson.Marshal(payload)
		if err != nil {
			return nil, err
		}
		text = string(raw)
	}
	return map[string]any{
		"content": []map[string]any{
			{
				"type": "text",
				"text": text,
			},
		},
	}, nil
}

// errorResult — результат инструмента с isError.
func errorResult(message string) map[string]any {
	return map[string]any{
		"isError": true,
		"content": []map[string]any{
			{
				"type": "text",
				"text": message,
			},
		},
	}
}

// executionResult превращает выполнение в результат инструмента.
// Строковый output отдаётся как есть, остальное — JSON.
func executionResult(exec *domain.FlowExecution) (any, error) {
	if exec.Status == domain.ExecutionStatusError {
		msg := "flow execution failed"
		if exec.ErrorInfo != nil {
			msg = fmt.Sprintf("%s: %s", exec.ErrorInfo.Kind, exec.ErrorInfo.Message)
			if exec.ErrorInfo.NodeID != "" {
				msg = fmt.Sprintf("node %s: %s", exec.ErrorInfo.NodeID, msg)
			}
		}
		return errorResult(msg), nil
	}
	if exec.Output == nil {
		return textResult("")
	}
	return textResult(exec.Output)
}
