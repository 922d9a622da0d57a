package config

import "errors"

var (
	// ErrInvalidValue — переменная окружения не разбирается.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrMissingDatabaseURL — DB_URL обязателен для api и worker.
	ErrMissingDatabaseURL = errors.New("DB_URL is required")

	// ErrMissingRabbitMQURL — RABBITMQ_URL обязателен для worker.
	ErrMissingRabbitMQURL = errors.New("RABBITMQ_URL is required")
)
