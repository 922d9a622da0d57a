// Package mcp публикует flows как инструменты MCP.
//
// Сервер работает поверх stdio (gomcp) и обращается к HTTP API через
// cli.Client, поэтому ему не нужны БД и очередь.
//
// Инструменты:
//   - list_flows — активные flows;
//   - describe_flow — триггеры flow с именами инструментов и JSON Schema параметров;
//   - invoke_flow — синхронный вызов. Результат fulfilled-выполнения
//     возвращается текстом, выполнение со статусом error — результатом isError.
package mcp
