package engine

import (
	"fmt"

	"github.com/shaiso/toolflow/internal/domain"
)

// Node — узел в DAG выполнения.
type Node struct {
	// Node — экземпляр узла из flow.
	Node *domain.Node

	// ID — идентификатор узла.
	ID string

	// InDegree — количество входящих рёбер внутри подграфа.
	InDegree int

	// DependsOn — узлы, результаты которых нужны этому узлу.
	DependsOn []*Node

	// Dependents — узлы, которые ждут этот узел.
	Dependents []*Node

	// position — индекс в flow.Nodes, задаёт детерминированный порядок.
	position int
}

// DAG — подграф flow, достижимый из триггера, в порядке выполнения.
type DAG struct {
	// TriggerID — узел, с которого начинается выполнение.
	TriggerID string

	// Nodes — все узлы подграфа (nodeID → Node).
	Nodes map[string]*Node

	// Order — топологически отсортированный список узлов.
	Order []*Node
}

// BuildDAG строит порядок выполнения для триггера.
//
// В подграф входят триггер и все его потомки. Узел становится готовым,
// когда выполнены все его предки внутри подграфа. Связи от узлов вне
// подграфа (например, от другого триггера) не учитываются.
// Цикл в подграфе — ErrCycleDetected.
func BuildDAG(flow *domain.Flow, triggerID string) (*DAG, error) {
	if flow.NodeByID(triggerID) == nil {
		return nil, NewValidationError(triggerID, "trigger",
			fmt.Sprintf("unknown trigger node: %s", triggerID), ErrMissingNode)
	}

	members := FindDownstreamNodeIDs(triggerID, flow.Connections)
	if members.Has(triggerID) {
		return nil, NewValidationError(triggerID, "connections",
			"trigger is reachable from itself", ErrCycleDetected)
	}
	members[triggerID] = struct{}{}

	dag := &DAG{
		TriggerID: triggerID,
		Nodes:     make(map[string]*Node, members.Len()),
	}

	for i := range flow.Nodes {
		n := &flow.Nodes[i]
		if !members.Has(n.ID) {
			continue
		}
		dag.Nodes[n.ID] = &Node{
			Node:       n,
			ID:         n.ID,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
			position:   i,
		}
	}

	for _, c := range flow.Connections {
		from, okFrom := dag.Nodes[c.SourceNodeID]
		to, okTo := dag.Nodes[c.TargetNodeID]
		if !okFrom || !okTo {
			continue
		}
		dag.addEdge(from, to)
	}

	order, err := dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	dag.Order = order

	return dag, nil
}

// addEdge добавляет ребро между узлами.
// Параллельные связи между одной парой узлов учитываются один раз.
func (d *DAG) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Среди готовых узлов первым идёт тот, что раньше объявлен во flow.
func (d *DAG) topologicalSort() ([]*Node, error) {
	inDegree := make(map[string]int, len(d.Nodes))
	ready := make([]*Node, 0)
	for id, node := range d.Nodes {
		inDegree[id] = node.InDegree
		if node.InDegree == 0 {
			ready = append(ready, node)
		}
	}

	order := make([]*Node, 0, len(d.Nodes))

	for len(ready) > 0 {
		idx := 0
		for i := range ready {
			if ready[i].position < ready[idx].position {
				idx = i
			}
		}
		node := ready[idx]
		ready = append(ready[:idx], ready[idx+1:]...)
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(d.Nodes) {
		return nil, NewValidationError(d.TriggerID, "connections",
			"execution graph contains a cycle", ErrCycleDetected)
	}

	return order, nil
}

// GetNode возвращает узел по ID.
func (d *DAG) GetNode(id string) *Node {
	return d.Nodes[id]
}

// Size возвращает количество узлов в DAG.
func (d *DAG) Size() int {
	return len(d.Nodes)
}

// IDs возвращает ID узлов в порядке выполнения.
func (d *DAG) IDs() []string {
	ids := make([]string, len(d.Order))
	for i, n := range d.Order {
		ids[i] = n.ID
	}
	return ids
}
