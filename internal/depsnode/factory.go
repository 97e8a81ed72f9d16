package depsnode

import (
	"errors"
	"fmt"
)

// ErrUnregisteredType is returned by Create for a type without a factory.
var ErrUnregisteredType = errors.New("node type is not registered")

// TypeError reports a node type used where a different class is required.
type TypeError struct {
	Type NodeType
	Want NodeClass
}

func (e *TypeError) Error() string {
	info := TypeInfo(e.Type)
	return fmt.Sprintf("node type %s is %s, want %s", info.Name, info.Class, e.Want)
}

// Factory describes how nodes of one type are built.
type Factory struct {
	Name  string
	Class NodeClass
	// Unique components exist at most once per data-block.
	Unique bool
	create func(t NodeType, owner Node, name string) Node
}

func component(name string, unique bool) Factory {
	return Factory{
		Name:   name,
		Class:  ClassComponent,
		Unique: unique,
		create: func(t NodeType, owner Node, sub string) Node {
			id, _ := owner.(*IDNode)
			return newComponent(t, id, sub)
		},
	}
}

// factories is built at compile time and never mutated.
var factories = map[NodeType]Factory{
	NodeOperation: {
		Name:  "OPERATION",
		Class: ClassOperation,
		create: func(t NodeType, owner Node, name string) Node {
			c, _ := owner.(*ComponentNode)
			return &OperationNode{base: base{name: name, typ: t}, owner: c, Tag: -1}
		},
	},
	NodeTimeSource: {
		Name:  "TIMESOURCE",
		Class: ClassGeneric,
		create: func(t NodeType, _ Node, name string) Node {
			return &TimeSourceNode{base: base{name: name, typ: t}}
		},
	},
	NodeIDRef: {
		Name:  "ID_REF",
		Class: ClassGeneric,
		create: func(_ NodeType, _ Node, name string) Node {
			return newIDNode(nil, name)
		},
	},
	NodeParameters:      component("PARAMETERS", true),
	NodeAnimation:       component("ANIMATION", true),
	NodeTransform:       component("TRANSFORM", true),
	NodeGeometry:        component("GEOMETRY", true),
	NodeSequencer:       component("SEQUENCER", true),
	NodeCopyOnEval:      component("COPY_ON_EVAL", true),
	NodeObjectFromLayer: component("OBJECT_FROM_LAYER", true),
	NodeVisibility:      component("VISIBILITY", true),
	NodeSynchronization: component("SYNCHRONIZATION", true),
	NodeEvalPose:        component("EVAL_POSE", true),
	NodeBone:            component("BONE", false),
	NodeArmature:        component("ARMATURE", true),
}

// TypeInfo returns the factory description of t. Unregistered types get a
// zero Factory named "UNDEFINED".
func TypeInfo(t NodeType) Factory {
	if f, ok := factories[t]; ok {
		return f
	}
	return Factory{Name: "UNDEFINED", Class: ClassGeneric}
}

// Create builds a node of type t. owner is the parent node for components
// (*IDNode) and operations (*ComponentNode); it is ignored for generic nodes.
func Create(t NodeType, owner Node, name string) (Node, error) {
	f, ok := factories[t]
	if !ok || f.create == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnregisteredType, int(t))
	}
	return f.create(t, owner, name), nil
}
