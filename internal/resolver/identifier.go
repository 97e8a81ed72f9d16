package resolver

import (
	"fmt"

	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

// Source tells whether the access is the destination of a relation (Entry:
// the property is written, e.g. by a driver) or its origin (Exit: the
// property is read as the result of evaluation).
type Source int

const (
	Entry Source = iota
	Exit
)

func (s Source) String() string {
	if s == Exit {
		return "exit"
	}
	return "entry"
}

// Identifier addresses a component or, when Opcode is not OpOperation, an
// operation of an entity. It is transient and never stored in the graph.
type Identifier struct {
	Entity        scene.Entity
	Component     depsnode.NodeType
	ComponentName string
	Opcode        depsnode.OperationCode
	OpName        string
	Tag           int
}

func newIdentifier(e scene.Entity) Identifier {
	return Identifier{Entity: e, Component: depsnode.NodeUndefined, Opcode: depsnode.OpOperation, Tag: -1}
}

// Valid reports whether the identifier names an entity and a component type.
func (id Identifier) Valid() bool {
	return id.Entity != nil && id.Component != depsnode.NodeUndefined
}

// IsOperation reports whether the identifier addresses an operation rather
// than a whole component.
func (id Identifier) IsOperation() bool {
	return id.Opcode != depsnode.OpOperation
}

func (id Identifier) String() string {
	if !id.Valid() {
		return "<invalid>"
	}
	s := fmt.Sprintf("%s/%s", id.Entity.DataID().Key(), depsnode.TypeInfo(id.Component).Name)
	if id.ComponentName != "" {
		s += "[" + id.ComponentName + "]"
	}
	if id.IsOperation() {
		s += "/" + id.Opcode.String()
		if id.OpName != "" {
			s += "(" + id.OpName + ")"
		}
	}
	return s
}
