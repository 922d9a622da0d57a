package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaiso/toolflow/internal/guard"
)

func TestResolveTemplateVariables_Basic(t *testing.T) {
	res := ResolveTemplateVariables("{{x.y}}", map[string]any{"x": map[string]any{"y": "42"}})
	assert.Equal(t, "42", res.Resolved)
	assert.Empty(t, res.UnresolvedVars)

	res = ResolveTemplateVariables("{{x.y}}", map[string]any{"x": map[string]any{}})
	assert.Equal(t, "{{x.y}}", res.Resolved)
	assert.Equal(t, []string{"x.y"}, res.UnresolvedVars)
}

func TestResolveTemplateVariables(t *testing.T) {
	values := map[string]any{
		"trigger": map[string]any{"id": "42", "count": 7, "big": int64(9007199254740993)},
		"apiCall": map[string]any{
			"status_code": 200,
			"body": map[string]any{
				"name":  "Ada",
				"tags":  []any{"a", "b"},
				"empty": nil,
			},
		},
		"flag":   true,
		"nested": map[string]any{"text": "plain"},
		"evil":   map[string]any{"url": "https://evil.example/a", "rel": "//evil.example"},
	}

	tests := []struct {
		name       string
		template   string
		want       string
		unresolved []string
		blocked    []string
	}{
		{"no placeholders", "static text", "static text", nil, nil},
		{"whitespace inside braces", "id={{ trigger.id }}", "id=42", nil, nil},
		{"number", "n={{trigger.count}}", "n=7", nil, nil},
		{"large integer keeps precision", "{{trigger.big}}", "9007199254740993", nil, nil},
		{"nested path", "User: {{apiCall.body.name}}", "User: Ada", nil, nil},
		{"array index", "{{apiCall.body.tags.1}}", "b", nil, nil},
		{"whole array", "{{apiCall.body.tags}}", `["a","b"]`, nil, nil},
		{"root only", "{{flag}}", "true", nil, nil},
		{"object root", "{{nested}}", `{"text":"plain"}`, nil, nil},
		{"multiple", "{{trigger.id}}/{{apiCall.status_code}}", "42/200", nil, nil},
		{"missing root", "{{missing.value}}", "{{missing.value}}", []string{"missing.value"}, nil},
		{"null value", "{{apiCall.body.empty}}", "{{apiCall.body.empty}}", []string{"apiCall.body.empty"}, nil},
		{"path through string", "{{nested.text.deeper}}", "{{nested.text.deeper}}", []string{"nested.text.deeper"}, nil},
		{"mixed", "{{trigger.id}}-{{nope}}", "42-{{nope}}", []string{"nope"}, nil},
		{"repeated unresolved reported once", "{{nope}}{{nope}}", "{{nope}}{{nope}}", []string{"nope"}, nil},
		{"not a placeholder", "{{ not valid! }}", "{{ not valid! }}", nil, nil},
		{"blocked url value", "https://x.test/{{evil.url}}", "https://x.test/" + guard.BlockedValue, nil, []string{"evil.url"}},
		{"blocked protocol relative", "{{evil.rel}}", guard.BlockedValue, nil, []string{"evil.rel"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResolveTemplateVariables(tt.template, values)
			assert.Equal(t, tt.want, res.Resolved)
			if tt.unresolved == nil {
				assert.Empty(t, res.UnresolvedVars)
			} else {
				assert.Equal(t, tt.unresolved, res.UnresolvedVars)
			}
			if tt.blocked == nil {
				assert.Empty(t, res.BlockedVars)
			} else {
				assert.Equal(t, tt.blocked, res.BlockedVars)
			}
		})
	}
}

func TestResolveParameters_Nested(t *testing.T) {
	values := map[string]any{"trigger": map[string]any{"id": "42", "token": "abc"}}
	params := map[string]any{
		"url":     "https://x.test/users/{{trigger.id}}",
		"headers": map[string]any{"Authorization": "Bearer {{trigger.token}}"},
		"list":    []any{"{{trigger.id}}", 5, "{{ghost}}"},
		"retries": 3,
	}

	res := ResolveParameters(params, values)

	assert.Equal(t, "https://x.test/users/42", res.Parameters["url"])
	assert.Equal(t, map[string]any{"Authorization": "Bearer abc"}, res.Parameters["headers"])
	assert.Equal(t, []any{"42", 5, "{{ghost}}"}, res.Parameters["list"])
	assert.Equal(t, 3, res.Parameters["retries"])
	assert.Equal(t, []string{"ghost"}, res.UnresolvedVars)

	// Исходные параметры не меняются
	assert.Equal(t, "https://x.test/users/{{trigger.id}}", params["url"])
}

func TestLookupPath_KeepsType(t *testing.T) {
	values := map[string]any{"a": map[string]any{"items": []any{1, 2}, "ok": true}}

	v, ok := LookupPath(values, "a.items")
	assert.True(t, ok)
	assert.Len(t, v, 2)

	v, ok = LookupPath(values, "a.ok")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = LookupPath(values, "a.missing")
	assert.False(t, ok)
}

func TestExtractReferencesAndSinglePlaceholder(t *testing.T) {
	assert.Equal(t, []string{"a.b", "c"}, ExtractReferences("x {{a.b}} y {{ c }}"))

	path, ok := SinglePlaceholder(" {{ apiCall.body }} ")
	assert.True(t, ok)
	assert.Equal(t, "apiCall.body", path)

	_, ok = SinglePlaceholder("id: {{apiCall.body}}")
	assert.False(t, ok)
}
