// Package mq переносит вызовы flow через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — exchanges, queues, bindings
//   - message.go    — конверт сообщения и payload'ы
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Типы сообщений:
//   - invocation.requested — запрошен асинхронный вызов flow (API → worker)
//   - execution.finished   — вызов завершён (worker → подписчики)
//
// Очередь переносит вызов целиком: состояние внутри выполнения
// не сохраняется и не передаётся.
package mq
