package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/toolflow/internal/domain"
)

func renameFlow() *domain.Flow {
	return &domain.Flow{
		ID: "f",
		Nodes: []domain.Node{
			{ID: "n1", Slug: "trigger", Type: "trigger"},
			{ID: "n2", Slug: "fetchUser", Type: "api_call", Parameters: map[string]any{
				"url": "https://x.test/users/{{trigger.id}}",
			}},
			{ID: "n3", Slug: "shape", Type: "transform", Parameters: map[string]any{
				"mappings": map[string]any{
					"name":  "{{fetchUser.body.name}}",
					"both":  "{{ fetchUser.body.id }}-{{fetchUserX.id}}",
					"other": "{{trigger.id}}",
				},
				"list": []any{"{{fetchUser}}", 1},
			}},
			{ID: "n4", Slug: "done", Type: "return", Parameters: map[string]any{
				"text": "Hello {{fetchUser.body.name}}",
			}},
		},
	}
}

func TestUpdateSlugReferences(t *testing.T) {
	flow := renameFlow()

	count := UpdateSlugReferences(flow, "fetchUser", "getUser")
	assert.Equal(t, 4, count)

	mappings := flow.Nodes[2].Parameters["mappings"].(map[string]any)
	assert.Equal(t, "{{getUser.body.name}}", mappings["name"])
	assert.Equal(t, "{{ getUser.body.id }}-{{fetchUserX.id}}", mappings["both"])
	assert.Equal(t, "{{trigger.id}}", mappings["other"])
	assert.Equal(t, []any{"{{getUser}}", 1}, flow.Nodes[2].Parameters["list"])
	assert.Equal(t, "Hello {{getUser.body.name}}", flow.Nodes[3].Parameters["text"])
	assert.Equal(t, "https://x.test/users/{{trigger.id}}", flow.Nodes[1].Parameters["url"])
}

func TestRenameNode(t *testing.T) {
	flow := renameFlow()

	count, err := RenameNode(flow, "n2", "getUser")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, "getUser", flow.Nodes[1].Slug)

	_, err = RenameNode(flow, "n2", "shape")
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	_, err = RenameNode(flow, "n2", "bad slug")
	assert.ErrorIs(t, err, ErrInvalidSlug)

	_, err = RenameNode(flow, "nope", "x")
	assert.ErrorIs(t, err, ErrMissingNode)

	count, err = RenameNode(flow, "n2", "getUser")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMigrateTemplateReferences(t *testing.T) {
	flow := &domain.Flow{
		Nodes: []domain.Node{
			{ID: "5f0c1e2a-aaaa", Slug: "trigger", Type: "trigger"},
			{ID: "node_2", Slug: "apiCall", Type: "api_call", Parameters: map[string]any{
				"url": "https://x.test/{{5f0c1e2a-aaaa.id}}",
			}},
			{ID: "node_3", Slug: "done", Type: "return", Parameters: map[string]any{
				"text": "{{node_2.body.name}} {{apiCall.status_code}} {{unknown.x}}",
			}},
		},
	}

	count := MigrateTemplateReferences(flow)
	assert.Equal(t, 2, count)
	assert.Equal(t, "https://x.test/{{trigger.id}}", flow.Nodes[1].Parameters["url"])
	assert.Equal(t, "{{apiCall.body.name}} {{apiCall.status_code}} {{unknown.x}}", flow.Nodes[2].Parameters["text"])

	// Повторная миграция ничего не меняет
	assert.Zero(t, MigrateTemplateReferences(flow))
}

func TestGenerateSlug(t *testing.T) {
	existing := map[string]bool{"fetchUser": true, "fetchUser2": true}

	assert.Equal(t, "fetchUser3", GenerateSlug("Fetch user", existing))
	assert.Equal(t, "apiCall", GenerateSlug("API call", nil))
	assert.Equal(t, "n2fa", GenerateSlug("2FA", nil))
	assert.Equal(t, "node", GenerateSlug("!!!", nil))
}
