package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shaiso/toolflow/internal/domain"
)

// ReplaceSlug переписывает плейсхолдеры с корнем oldSlug на newSlug.
// Пробелы и остаток пути сохраняются. Возвращает число замен.
func ReplaceSlug(template, oldSlug, newSlug string) (string, int) {
	return rewriteRoots(template, templatePattern, func(root string) (string, bool) {
		if root == oldSlug {
			return newSlug, true
		}
		return "", false
	})
}

// UpdateSlugReferences переписывает {{oldSlug...}} на {{newSlug...}} во всех
// строковых параметрах всех узлов flow (включая вложенные map и slice).
// Плейсхолдеры с другим корнем не трогаются. Возвращает число замен.
func UpdateSlugReferences(flow *domain.Flow, oldSlug, newSlug string) int {
	if oldSlug == newSlug {
		return 0
	}
	rewrite := func(s string) (string, int) {
		return ReplaceSlug(s, oldSlug, newSlug)
	}
	total := 0
	for i := range flow.Nodes {
		total += rewriteParams(flow.Nodes[i].Parameters, rewrite)
	}
	return total
}

// RenameNode меняет slug узла и обновляет все ссылки на него.
// Возвращает число переписанных ссылок.
func RenameNode(flow *domain.Flow, nodeID, newSlug string) (int, error) {
	node := flow.NodeByID(nodeID)
	if node == nil {
		return 0, NewValidationError(nodeID, "id",
			fmt.Sprintf("unknown node: %s", nodeID), ErrMissingNode)
	}
	if !ValidSlug(newSlug) {
		return 0, NewValidationError(nodeID, "slug",
			fmt.Sprintf("invalid slug %q", newSlug), ErrInvalidSlug)
	}
	if node.Slug == newSlug {
		return 0, nil
	}
	if other := flow.NodeBySlug(newSlug); other != nil {
		return 0, NewValidationError(nodeID, "slug",
			fmt.Sprintf("slug %s is used by node %s", newSlug, other.ID), ErrDuplicateSlug)
	}

	count := UpdateSlugReferences(flow, node.Slug, newSlug)
	node.Slug = newSlug
	return count, nil
}

// MigrateTemplateReferences переводит ссылки вида {{<nodeID>.path}} на
// {{<slug>.path}}. Корни, которые уже являются slug'ами, не меняются.
// Возвращает число замен.
func MigrateTemplateReferences(flow *domain.Flow) int {
	slugByID := make(map[string]string, len(flow.Nodes))
	for _, n := range flow.Nodes {
		slugByID[n.ID] = n.Slug
	}
	slugs := flow.Slugs()

	rewrite := func(s string) (string, int) {
		return rewriteRoots(s, idRefPattern, func(root string) (string, bool) {
			if slugs[root] {
				return "", false
			}
			slug, ok := slugByID[root]
			return slug, ok && slug != ""
		})
	}

	total := 0
	for i := range flow.Nodes {
		total += rewriteParams(flow.Nodes[i].Parameters, rewrite)
	}
	return total
}

// GenerateSlug строит camelCase slug из отображаемого имени
// и добавляет числовой суффикс, если slug уже занят.
func GenerateSlug(name string, existing map[string]bool) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 {
			runes := []rune(w)
			runes[0] = unicode.ToUpper(runes[0])
			w = string(runes)
		}
		b.WriteString(w)
	}

	base := b.String()
	if base == "" {
		base = "node"
	}
	if !ValidSlug(base) {
		base = "n" + base
	}
	if !ValidSlug(base) {
		base = "node"
	}

	slug := base
	for i := 2; existing[slug]; i++ {
		slug = base + strconv.Itoa(i)
	}
	return slug
}

// rewriteRoots заменяет корневой сегмент плейсхолдеров, для которых replace вернул true.
func rewriteRoots(template string, pattern *regexp.Regexp, replace func(root string) (string, bool)) (string, int) {
	matches := pattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return template, 0
	}

	var b strings.Builder
	last, count := 0, 0
	for _, m := range matches {
		pathStart, pathEnd := m[2], m[3]
		root, _, _ := strings.Cut(template[pathStart:pathEnd], ".")

		newRoot, ok := replace(root)
		if !ok {
			continue
		}

		b.WriteString(template[last:pathStart])
		b.WriteString(newRoot)
		last = pathStart + len(root)
		count++
	}
	b.WriteString(template[last:])

	return b.String(), count
}

// rewriteParams применяет rewrite ко всем строкам параметров на месте.
func rewriteParams(params map[string]any, rewrite func(string) (string, int)) int {
	total := 0
	for k, v := range params {
		nv, n := rewriteAny(v, rewrite)
		if n > 0 {
			params[k] = nv
			total += n
		}
	}
	return total
}

func rewriteAny(value any, rewrite func(string) (string, int)) (any, int) {
	switch v := value.(type) {
	case string:
		return rewrite(v)
	case map[string]any:
		return v, rewriteParams(v, rewrite)
	case map[string]string:
		total := 0
		for k, s := range v {
			ns, n := rewrite(s)
			if n > 0 {
				v[k] = ns
				total += n
			}
		}
		return v, total
	case []any:
		total := 0
		for i, item := range v {
			ni, n := rewriteAny(item, rewrite)
			if n > 0 {
				v[i] = ni
				total += n
			}
		}
		return v, total
	case []string:
		total := 0
		for i, s := range v {
			ns, n := rewrite(s)
			if n > 0 {
				v[i] = ns
				total += n
			}
		}
		return v, total
	default:
		return value, 0
	}
}
