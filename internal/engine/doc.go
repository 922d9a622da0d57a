// Package engine содержит чистую логику над графом flow.
//
// Включает:
//   - graph.go    — анализ связей: циклы, предки и потомки узла
//   - dag.go      — порядок выполнения подграфа, достижимого из триггера
//   - validate.go — структурная валидация flow
//   - template.go — разрешение {{slug.path}} по результатам узлов
//   - slugs.go    — переименование slug'ов и миграция ссылок
//
// Пакет не выполняет узлы и не обращается к хранилищу.
package engine
