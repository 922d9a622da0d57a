// Package repo хранит flows и трассы выполнения.
//
// Реализации:
//   - FlowRepo, ExecutionRepo — PostgreSQL (pgx), схема в schema.sql
//   - MemoryFlowStore, MemoryExecutionStore — в памяти процесса
//   - FlowCache — кэш flow в Redis поверх любого FlowStore
package repo
