package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRecord — запись не сериализуется или повреждена.
	ErrInvalidRecord = errors.New("invalid record")
)
