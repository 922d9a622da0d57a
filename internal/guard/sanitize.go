package guard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shaiso/toolflow/internal/xjson"
)

// BlockedValue — значение, которым заменяется подстановка, похожая на URL.
const BlockedValue = "[blocked-url]"

// schemePattern — префикс абсолютного URL (scheme://).
var schemePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)

// protocolRelative — префиксы, которые браузеры и часть клиентов
// трактуют как URL без схемы.
var protocolRelative = []string{`//`, `\\`, `/\`, `\/`}

// SanitizeMockValue приводит значение к строке и блокирует всё,
// что похоже на абсолютный или protocol-relative URL.
func SanitizeMockValue(value any) string {
	s := Stringify(value)
	if IsBlocked(s) {
		return BlockedValue
	}
	return s
}

// IsBlocked сообщает, будет ли строка заменена на BlockedValue.
func IsBlocked(s string) bool {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if schemePattern.MatchString(trimmed) {
		return true
	}
	for _, prefix := range protocolRelative {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Stringify возвращает строковое представление значения для подстановки в шаблон.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case xjson.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := xjson.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
