// Package guard защищает исходящие запросы от SSRF.
//
// Два независимых слоя:
//
//   - SanitizeMockValue — подставляемые в шаблоны значения, похожие на URL,
//     заменяются на BlockedValue.
//   - ParseAndValidateURL / Validator — итоговый URL запроса проверяется
//     по схеме и адресу хоста (loopback, private, link-local, metadata).
//
// NewTransport дополнительно проверяет IP, к которому реально
// устанавливается соединение (защита от DNS rebinding).
package guard
