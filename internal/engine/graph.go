package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/toolflow/internal/domain"
)

// IDSet — множество ID узлов.
type IDSet map[string]struct{}

// Has проверяет наличие ID.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len возвращает размер множества.
func (s IDSet) Len() int {
	return len(s)
}

// Sorted возвращает ID в лексикографическом порядке.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WouldCreateCycle сообщает, замкнёт ли ребро source→target цикл.
//
// Цикл возникает, если в текущих связях есть путь target → … → source.
// Ребро из узла в себя тоже считается циклом. Сложность O(V+E).
func WouldCreateCycle(sourceID, targetID string, connections []domain.Connection) bool {
	forward := adjacency(connections, false)

	visited := make(map[string]bool)
	stack := []string{targetID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == sourceID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, next := range forward[current] {
			if !visited[next] {
				stack = append(stack, next)
			}
		}
	}

	return false
}

// FindUpstreamNodeIDs возвращает всех предков узла (BFS по обратным рёбрам).
func FindUpstreamNodeIDs(nodeID string, connections []domain.Connection) IDSet {
	return reachable(nodeID, adjacency(connections, true))
}

// FindDownstreamNodeIDs возвращает всех потомков узла (BFS по прямым рёбрам).
func FindDownstreamNodeIDs(nodeID string, connections []domain.Connection) IDSet {
	return reachable(nodeID, adjacency(connections, false))
}

// reachable обходит граф в ширину. Стартовый узел в результат не входит,
// если только он не достижим сам из себя.
func reachable(start string, edges map[string][]string) IDSet {
	result := make(IDSet)
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range edges[current] {
			if result.Has(next) {
				continue
			}
			result[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	return result
}

// adjacency строит списки смежности. reverse=true — рёбра target → source.
func adjacency(connections []domain.Connection, reverse bool) map[string][]string {
	edges := make(map[string][]string)
	for _, c := range connections {
		from, to := c.SourceNodeID, c.TargetNodeID
		if reverse {
			from, to = to, from
		}
		edges[from] = append(edges[from], to)
	}
	return edges
}

// TypeLookup — источник определений типов узлов (реестр).
type TypeLookup interface {
	Definition(typeName string) (domain.NodeTypeDefinition, error)
}

// CheckConnection проверяет, можно ли добавить связь в flow.
//
// Вызывается при редактировании, до сохранения связи.
func CheckConnection(flow *domain.Flow, conn domain.Connection, types TypeLookup) error {
	source := flow.NodeByID(conn.SourceNodeID)
	if source == nil {
		return NewValidationError(conn.SourceNodeID, "source_node_id",
			fmt.Sprintf("unknown source node: %s", conn.SourceNodeID), ErrMissingNode)
	}
	target := flow.NodeByID(conn.TargetNodeID)
	if target == nil {
		return NewValidationError(conn.TargetNodeID, "target_node_id",
			fmt.Sprintf("unknown target node: %s", conn.TargetNodeID), ErrMissingNode)
	}

	if err := checkHandles(source, target, conn, types); err != nil {
		return err
	}

	for _, existing := range flow.Connections {
		if existing.SourceNodeID == conn.SourceNodeID &&
			existing.TargetNodeID == conn.TargetNodeID &&
			existing.SourceHandle == conn.SourceHandle &&
			existing.TargetHandle == conn.TargetHandle {
			return NewValidationError(conn.TargetNodeID, "connections",
				"connection already exists", ErrDuplicateConnection)
		}
	}

	if WouldCreateCycle(conn.SourceNodeID, conn.TargetNodeID, flow.Connections) {
		return NewValidationError(conn.TargetNodeID, "connections",
			fmt.Sprintf("connection %s -> %s would create a cycle", conn.SourceNodeID, conn.TargetNodeID),
			ErrCycleDetected)
	}

	return nil
}

// checkHandles проверяет хэндлы связи по определениям типов.
// Пустой хэндл означает первый хэндл типа.
func checkHandles(source, target *domain.Node, conn domain.Connection, types TypeLookup) error {
	sourceDef, err := types.Definition(source.Type)
	if err != nil {
		return NewValidationError(source.ID, "type", err.Error(), err)
	}
	targetDef, err := types.Definition(target.Type)
	if err != nil {
		return NewValidationError(target.ID, "type", err.Error(), err)
	}

	if sourceDef.IsTerminal() {
		return NewValidationError(source.ID, "connections",
			fmt.Sprintf("%s is terminal", sourceDef.Name), ErrTerminalHasOutput)
	}
	if targetDef.IsTrigger() {
		return NewValidationError(target.ID, "connections",
			fmt.Sprintf("%s is a trigger", targetDef.Name), ErrTriggerHasInput)
	}

	if conn.SourceHandle != "" && !sourceDef.HasOutput(conn.SourceHandle) {
		return NewValidationError(source.ID, "source_handle",
			fmt.Sprintf("%s has no output %q", sourceDef.Name, conn.SourceHandle), ErrUnknownHandle)
	}
	if conn.TargetHandle != "" && !targetDef.HasInput(conn.TargetHandle) {
		return NewValidationError(target.ID, "target_handle",
			fmt.Sprintf("%s has no input %q", targetDef.Name, conn.TargetHandle), ErrUnknownHandle)
	}

	return nil
}
