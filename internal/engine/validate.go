package engine

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/shaiso/toolflow/internal/domain"
)

// slugPattern — slug должен быть первым сегментом пути в {{slug.path}}.
var slugPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidSlug проверяет формат slug.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// ValidateFlow выполняет полную структурную валидацию flow.
//
// Проверяет:
//   - обязательные поля flow, узлов и связей
//   - уникальность ID и slug узлов, формат slug
//   - что типы узлов известны реестру
//   - что связи ссылаются на существующие узлы и хэндлы
//   - что в триггеры не входят, а из терминальных узлов не выходят связи
//   - отсутствие циклов
func ValidateFlow(flow *domain.Flow, types TypeLookup) error {
	if flow == nil {
		return NewValidationError("", "flow", "flow is nil", ErrInvalidFlow)
	}

	if err := validate.Struct(flow); err != nil {
		return structError(err)
	}

	ids := make(map[string]bool, len(flow.Nodes))
	slugs := make(map[string]bool, len(flow.Nodes))
	defs := make(map[string]domain.NodeTypeDefinition, len(flow.Nodes))

	for i := range flow.Nodes {
		node := &flow.Nodes[i]

		if ids[node.ID] {
			return NewValidationError(node.ID, "id",
				fmt.Sprintf("duplicate node ID: %s", node.ID), ErrDuplicateNodeID)
		}
		ids[node.ID] = true

		if !ValidSlug(node.Slug) {
			return NewValidationError(node.ID, "slug",
				fmt.Sprintf("invalid slug %q", node.Slug), ErrInvalidSlug)
		}
		if slugs[node.Slug] {
			return NewValidationError(node.ID, "slug",
				fmt.Sprintf("duplicate slug: %s", node.Slug), ErrDuplicateSlug)
		}
		slugs[node.Slug] = true

		def, err := types.Definition(node.Type)
		if err != nil {
			return NewValidationError(node.ID, "type", err.Error(), err)
		}
		defs[node.ID] = def
	}

	for _, conn := range flow.Connections {
		if err := validateConnection(conn, defs); err != nil {
			return err
		}
	}

	return checkAcyclic(flow)
}

// validateConnection проверяет одну связь по уже собранным определениям.
func validateConnection(conn domain.Connection, defs map[string]domain.NodeTypeDefinition) error {
	sourceDef, ok := defs[conn.SourceNodeID]
	if !ok {
		return NewValidationError(conn.SourceNodeID, "source_node_id",
			fmt.Sprintf("unknown source node: %s", conn.SourceNodeID), ErrMissingNode)
	}
	targetDef, ok := defs[conn.TargetNodeID]
	if !ok {
		return NewValidationError(conn.TargetNodeID, "target_node_id",
			fmt.Sprintf("unknown target node: %s", conn.TargetNodeID), ErrMissingNode)
	}

	if sourceDef.IsTerminal() {
		return NewValidationError(conn.SourceNodeID, "connections",
			"terminal node has outgoing connection", ErrTerminalHasOutput)
	}
	if targetDef.IsTrigger() {
		return NewValidationError(conn.TargetNodeID, "connections",
			"trigger node has incoming connection", ErrTriggerHasInput)
	}

	if conn.SourceHandle != "" && !sourceDef.HasOutput(conn.SourceHandle) {
		return NewValidationError(conn.SourceNodeID, "source_handle",
			fmt.Sprintf("%s has no output %q", sourceDef.Name, conn.SourceHandle), ErrUnknownHandle)
	}
	if conn.TargetHandle != "" && !targetDef.HasInput(conn.TargetHandle) {
		return NewValidationError(conn.TargetNodeID, "target_handle",
			fmt.Sprintf("%s has no input %q", targetDef.Name, conn.TargetHandle), ErrUnknownHandle)
	}

	return nil
}

// checkAcyclic проверяет весь граф алгоритмом Кана.
func checkAcyclic(flow *domain.Flow) error {
	inDegree := make(map[string]int, len(flow.Nodes))
	for _, n := range flow.Nodes {
		inDegree[n.ID] = 0
	}
	forward := adjacency(flow.Connections, false)
	for _, c := range flow.Connections {
		inDegree[c.TargetNodeID]++
	}

	queue := make([]string, 0)
	for id, d := range inDegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++

		for _, next := range forward[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if processed != len(inDegree) {
		stuck := make([]string, 0)
		for id, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return NewValidationError(stuck[0], "connections",
			fmt.Sprintf("cycle through nodes %v", stuck), ErrCycleDetected)
	}

	return nil
}

// structError превращает ошибку validator в ValidationError.
func structError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("", "flow", err.Error(), ErrInvalidFlow)
	}
	fe := verrs[0]
	return NewValidationError("", fe.Namespace(),
		fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()), ErrInvalidFlow)
}
