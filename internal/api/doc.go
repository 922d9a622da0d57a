// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go           — Handler с DI (хранилища, оркестратор, publisher, logger)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (recovery, logging, metrics)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - request.go           — разбор и валидация тела запроса
//   - dto.go               — Data Transfer Objects (request/response)
//   - flow_handler.go      — обработчики для /flows
//   - graph_handler.go     — связи, upstream/downstream, slug'и
//   - invoke_handler.go    — вызов flow (синхронный и через очередь)
//   - execution_handler.go — обработчики для /executions
package api
