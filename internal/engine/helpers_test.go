package engine

import (
	"fmt"

	"github.com/shaiso/toolflow/internal/domain"
)

// testTypes — минимальный реестр определений для тестов.
type testTypes map[string]domain.NodeTypeDefinition

var errUnknownType = fmt.Errorf("unknown node type")

func (t testTypes) Definition(name string) (domain.NodeTypeDefinition, error) {
	def, ok := t[name]
	if !ok {
		return domain.NodeTypeDefinition{}, fmt.Errorf("%w: %s", errUnknownType, name)
	}
	return def, nil
}

var types = testTypes{
	"trigger":   {Name: "trigger", Outputs: []string{"main"}},
	"api_call":  {Name: "api_call", Inputs: []string{"main"}, Outputs: []string{"main"}},
	"transform": {Name: "transform", Inputs: []string{"main"}, Outputs: []string{"main"}},
	"return":    {Name: "return", Inputs: []string{"main"}},
}

func conn(from, to string) domain.Connection {
	return domain.Connection{SourceNodeID: from, TargetNodeID: to}
}

func node(id, typ string) domain.Node {
	return domain.Node{ID: id, Slug: id, Type: typ}
}

// diamond: A → B, A → C, B → D, C → D
func diamondFlow() *domain.Flow {
	return &domain.Flow{
		ID: "diamond",
		Nodes: []domain.Node{
			node("A", "trigger"),
			node("B", "transform"),
			node("C", "transform"),
			node("D", "return"),
		},
		Connections: []domain.Connection{
			conn("A", "B"), conn("A", "C"), conn("B", "D"), conn("C", "D"),
		},
	}
}
