// Package nodes содержит реестр типов узлов и их реализации.
//
// Каждый тип (trigger, api_call, transform, interface, return, call_flow)
// реализует интерфейс Node. Реестр строится один раз при старте процесса
// и после этого не изменяется.
package nodes
