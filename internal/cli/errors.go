package cli

import "errors"

// Ошибки CLI.
var (
	// ErrInvalidFlowFile — файл flow не разбирается.
	ErrInvalidFlowFile = errors.New("invalid flow file")

	// ErrExecutionFailed — flow завершился со статусом error.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrNodeNotFound — узел не найден ни по ID, ни по slug.
	ErrNodeNotFound = errors.New("node not found")
)
