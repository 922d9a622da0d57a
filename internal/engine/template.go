package engine

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/xjson"
)

// Resolution — результат разрешения одной строки-шаблона.
type Resolution struct {
	// Resolved — строка с подставленными значениями.
	Resolved string

	// UnresolvedVars — пути, которые не удалось разрешить (плейсхолдер оставлен как есть).
	UnresolvedVars []string

	// BlockedVars — пути, значения которых заменены на guard.BlockedValue.
	BlockedVars []string
}

// ResolveTemplateVariables подставляет значения в {{slug.path}} плейсхолдеры.
//
// values — результаты уже выполненных узлов по slug. Если корня нет в values,
// или путь упирается в null / не-объект, плейсхолдер остаётся без изменений,
// а путь попадает в UnresolvedVars. Подставляемое значение проходит через
// guard.SanitizeMockValue.
func ResolveTemplateVariables(template string, values map[string]any) Resolution {
	c := newCollector(values)
	resolved := c.resolveString(template)
	return Resolution{
		Resolved:       resolved,
		UnresolvedVars: c.unresolved,
		BlockedVars:    c.blocked,
	}
}

// ParamResolution — результат разрешения параметров узла.
type ParamResolution struct {
	Parameters     map[string]any
	UnresolvedVars []string
	BlockedVars    []string
}

// ResolveParameters разрешает все строки в параметрах, включая вложенные map и slice.
// Исходная map не изменяется.
func ResolveParameters(params map[string]any, values map[string]any) ParamResolution {
	c := newCollector(values)
	resolved := make(map[string]any, len(params))
	for k, v := range params {
		resolved[k] = c.resolveValue(v)
	}
	return ParamResolution{
		Parameters:     resolved,
		UnresolvedVars: c.unresolved,
		BlockedVars:    c.blocked,
	}
}

// ResolveValue разрешает шаблоны в произвольном значении.
func ResolveValue(value any, values map[string]any) (any, Resolution) {
	c := newCollector(values)
	resolved := c.resolveValue(value)
	return resolved, Resolution{UnresolvedVars: c.unresolved, BlockedVars: c.blocked}
}

// ExtractReferences возвращает пути всех плейсхолдеров шаблона в порядке появления.
func ExtractReferences(template string) []string {
	matches := templatePattern.FindAllStringSubmatch(template, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}

// SinglePlaceholder возвращает путь, если строка целиком состоит из одного плейсхолдера.
func SinglePlaceholder(s string) (string, bool) {
	m := singlePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LookupPath возвращает значение по пути slug.a.b без приведения к строке.
// null и отсутствующие значения считаются неразрешёнными.
func LookupPath(values map[string]any, path string) (any, bool) {
	root, rest, _ := strings.Cut(path, ".")
	value, ok := values[root]
	if !ok || value == nil {
		return nil, false
	}
	if rest == "" {
		return value, true
	}

	data, err := xjson.Marshal(value)
	if err != nil {
		return nil, false
	}

	res := gjson.GetBytes(data, escapePath(rest))
	if !res.Exists() || res.Type == gjson.Null {
		return nil, false
	}

	return resultValue(res), true
}

// resultValue переводит gjson.Result в Go значение. Числа сохраняются как xjson.Number.
func resultValue(res gjson.Result) any {
	switch res.Type {
	case gjson.String:
		return res.Str
	case gjson.Number:
		return xjson.Number(res.Raw)
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.JSON:
		var v any
		if err := xjson.UnmarshalNumbers([]byte(res.Raw), &v); err != nil {
			return res.Raw
		}
		return v
	default:
		return nil
	}
}

// escapePath экранирует спецсимволы gjson внутри сегментов пути.
func escapePath(path string) string {
	if !strings.ContainsAny(path, `*?|#@!=<>%\`) {
		return path
	}
	var b strings.Builder
	for _, r := range path {
		if strings.ContainsRune(`*?|#@!=<>%\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collector накапливает неразрешённые и заблокированные пути без повторов.
type collector struct {
	values     map[string]any
	unresolved []string
	blocked    []string
	seen       map[string]bool
	seenBlock  map[string]bool
}

func newCollector(values map[string]any) *collector {
	return &collector{
		values:     values,
		unresolved: make([]string, 0),
		blocked:    make([]string, 0),
		seen:       make(map[string]bool),
		seenBlock:  make(map[string]bool),
	}
}

func (c *collector) resolveValue(value any) any {
	switch v := value.(type) {
	case string:
		return c.resolveString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = c.resolveValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = c.resolveString(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.resolveValue(item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.resolveString(item)
		}
		return out
	default:
		return value
	}
}

func (c *collector) resolveString(template string) string {
	matches := templatePattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return template
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		path := template[m[2]:m[3]]

		b.WriteString(template[last:start])
		last = end

		value, ok := LookupPath(c.values, path)
		if !ok {
			b.WriteString(template[start:end])
			if !c.seen[path] {
				c.seen[path] = true
				c.unresolved = append(c.unresolved, path)
			}
			continue
		}

		s := guard.SanitizeMockValue(value)
		if s == guard.BlockedValue && !c.seenBlock[path] {
			c.seenBlock[path] = true
			c.blocked = append(c.blocked, path)
		}
		b.WriteString(s)
	}
	b.WriteString(template[last:])

	return b.String()
}
