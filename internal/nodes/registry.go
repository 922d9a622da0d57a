package nodes

import (
	"fmt"
	"sort"

	"github.com/shaiso/toolflow/internal/domain"
)

// Registry — неизменяемый реестр типов узлов.
//
// Заполняется один раз в NewRegistry. Методов изменения нет, поэтому
// реестр разделяется между конкурентными выполнениями без блокировок.
type Registry struct {
	nodes map[string]Node
}

// NewRegistry создаёт реестр из реализаций.
// Повторное имя типа — ErrDuplicateNodeType.
func NewRegistry(nodes ...Node) (*Registry, error) {
	r := &Registry{nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		name := n.Type()
		if _, exists := r.nodes[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeType, name)
		}
		r.nodes[name] = n
	}
	return r, nil
}

// MustRegistry — NewRegistry, который паникует при ошибке.
func MustRegistry(nodes ...Node) *Registry {
	r, err := NewRegistry(nodes...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry создаёт реестр со всеми встроенными типами.
func DefaultRegistry(opts Options) *Registry {
	return MustRegistry(
		NewTriggerNode(),
		NewAPICallNode(opts),
		NewTransformNode(),
		NewInterfaceNode(),
		NewReturnNode(),
		NewCallFlowNode(),
	)
}

// Lookup возвращает реализацию по имени типа.
// Возвращает ErrUnknownNodeType, если тип не найден.
func (r *Registry) Lookup(typeName string) (Node, error) {
	n, ok := r.nodes[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, typeName)
	}
	return n, nil
}

// Definition возвращает контракт типа.
func (r *Registry) Definition(typeName string) (domain.NodeTypeDefinition, error) {
	n, err := r.Lookup(typeName)
	if err != nil {
		return domain.NodeTypeDefinition{}, err
	}
	return n.Definition(), nil
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.nodes[typeName]
	return ok
}

// Types возвращает отсортированный список имён типов.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.nodes))
	for t := range r.nodes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Definitions возвращает контракты всех типов в порядке Types.
func (r *Registry) Definitions() []domain.NodeTypeDefinition {
	defs := make([]domain.NodeTypeDefinition, 0, len(r.nodes))
	for _, t := range r.Types() {
		defs = append(defs, r.nodes[t].Definition())
	}
	return defs
}

// Count возвращает количество типов.
func (r *Registry) Count() int {
	return len(r.nodes)
}
