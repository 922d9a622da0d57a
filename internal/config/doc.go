// Package config собирает настройки сервисов toolflow из переменных окружения.
//
// Все бинарники (api, worker, cli, mcp) используют один Config,
// каждый читает только нужные ему поля.
package config
