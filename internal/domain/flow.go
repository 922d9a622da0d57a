package domain

import "time"

// Flow — граф узлов и связей, описывающий один вызываемый инструмент.
//
// Flow загружается целиком (узлы + связи) до начала выполнения
// и на время выполнения считается неизменяемым.
type Flow struct {
	// ID — уникальный идентификатор flow.
	ID string `json:"id" validate:"required"`

	// Name — человекочитаемое имя flow.
	Name string `json:"name"`

	// Description — описание, которое транспорт может показать как описание инструмента.
	Description string `json:"description,omitempty"`

	// IsActive — неактивные flows не вызываются.
	IsActive bool `json:"is_active"`

	// Nodes — экземпляры узлов.
	Nodes []Node `json:"nodes" validate:"dive"`

	// Connections — направленные рёбра между хэндлами узлов.
	Connections []Connection `json:"connections" validate:"dive"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Node — экземпляр узла внутри flow.
type Node struct {
	// ID — стабильный идентификатор узла.
	ID string `json:"id" validate:"required"`

	// Slug — имя, по которому на узел ссылаются шаблоны ({{slug.field}}).
	// Уникален внутри flow, может меняться через переименование.
	Slug string `json:"slug" validate:"required"`

	// Type — имя типа узла в реестре.
	Type string `json:"type" validate:"required"`

	// Name — отображаемое имя (попадает в трассу выполнения).
	Name string `json:"name,omitempty"`

	// Parameters — параметры узла, могут содержать шаблоны.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Position — координаты в редакторе, движок их не использует.
	Position *Position `json:"position,omitempty"`
}

// Position — координаты узла на холсте редактора.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DisplayName возвращает имя для трассы: Name, либо Slug, если имя не задано.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Slug
}

// Connection — ребро от выходного хэндла одного узла к входному хэндлу другого.
type Connection struct {
	ID           string `json:"id,omitempty"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// NodeByID возвращает узел по ID или nil.
func (f *Flow) NodeByID(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// NodeBySlug возвращает узел по slug или nil.
func (f *Flow) NodeBySlug(slug string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].Slug == slug {
			return &f.Nodes[i]
		}
	}
	return nil
}

// Incoming возвращает связи, входящие в узел.
func (f *Flow) Incoming(nodeID string) []Connection {
	var result []Connection
	for _, c := range f.Connections {
		if c.TargetNodeID == nodeID {
			result = append(result, c)
		}
	}
	return result
}

// Outgoing возвращает связи, исходящие из узла.
func (f *Flow) Outgoing(nodeID string) []Connection {
	var result []Connection
	for _, c := range f.Connections {
		if c.SourceNodeID == nodeID {
			result = append(result, c)
		}
	}
	return result
}

// Slugs возвращает множество slug'ов всех узлов.
func (f *Flow) Slugs() map[string]bool {
	slugs := make(map[string]bool, len(f.Nodes))
	for _, n := range f.Nodes {
		slugs[n.Slug] = true
	}
	return slugs
}
