// Package cli реализует инструмент командной строки toolflow.
//
// # Обзор
//
// Команды делятся на две группы:
//   - локальные (flow validate, flow run, flow rename, node-types) работают
//     с YAML/JSON файлами и встроенным реестром узлов, без сервисов;
//   - удалённые (flow list/show/push, invoke, execution) обращаются к API.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для toolflow API. Им же пользуется MCP-сервер.
//
//	client := cli.NewClient("http://localhost:8080")
//	exec, err := client.Invoke(ctx, "users", cli.InvokeRequest{Trigger: "get_user"})
//
// ## Output
//
// Форматирование вывода: таблицы (text/tabwriter) по умолчанию,
// JSON с флагом --json. Данные — в stdout, сообщения — в stderr:
//
//	toolflow execution list --json | jq .
//
// ## Commands
//
// Каждая группа создаётся фабричной функцией (NewFlowCmd и т.д.),
// принимающей clientFn и outputFn — замыкания для ленивого создания
// Client и Output после разбора PersistentFlags.
package cli
