package builder

import (
	"fmt"

	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

// key addresses a node that a relation starts or ends at. Keys are looked up
// lazily, so a relation may name nodes that were never created.
type key interface {
	fmt.Stringer
	find(b *Builder) depsnode.Node
}

// componentKey addresses a component. As a relation source it stands for the
// component's exit operation, as a destination for its entry operation.
type componentKey struct {
	id   scene.Entity
	typ  depsnode.NodeType
	name string
}

func compKey(id scene.Entity, typ depsnode.NodeType) componentKey {
	return componentKey{id: id, typ: typ}
}

func (k componentKey) find(b *Builder) depsnode.Node {
	n := b.graph.FindIDNode(k.id)
	if n == nil {
		return nil
	}
	c, ok := n.FindComponent(k.typ, k.name)
	if !ok {
		return nil
	}
	return c
}

func (k componentKey) String() string {
	s := fmt.Sprintf("%s/%s", entityName(k.id), depsnode.TypeInfo(k.typ).Name)
	if k.name != "" {
		s += "[" + k.name + "]"
	}
	return s
}

// operationKey addresses one operation.
type operationKey struct {
	id       scene.Entity
	typ      depsnode.NodeType
	compName string
	opcode   depsnode.OperationCode
	name     string
	tag      int
}

func opKey(id scene.Entity, typ depsnode.NodeType, opcode depsnode.OperationCode) operationKey {
	return operationKey{id: id, typ: typ, opcode: opcode, tag: -1}
}

func boneKey(ob *scene.Object, bone string, opcode depsnode.OperationCode) operationKey {
	return operationKey{id: ob, typ: depsnode.NodeBone, compName: bone, opcode: opcode, tag: -1}
}

func poseKey(ob *scene.Object, opcode depsnode.OperationCode) operationKey {
	return opKey(ob, depsnode.NodeEvalPose, opcode)
}

func (k operationKey) named(name string) operationKey {
	k.name = name
	return k
}

func (k operationKey) find(b *Builder) depsnode.Node {
	n := b.graph.FindIDNode(k.id)
	if n == nil {
		return nil
	}
	c, ok := n.FindComponent(k.typ, k.compName)
	if !ok {
		return nil
	}
	op, ok := c.FindOperation(k.opcode, k.name, k.tag)
	if !ok {
		return nil
	}
	return op
}

func (k operationKey) String() string {
	s := componentKey{id: k.id, typ: k.typ, name: k.compName}.String() + "/" + k.opcode.String()
	if k.name != "" {
		s += "(" + k.name + ")"
	}
	return s
}

// timeSourceKey addresses the graph's time source.
type timeSourceKey struct{}

func (timeSourceKey) find(b *Builder) depsnode.Node { return b.graph.TimeSource() }

func (timeSourceKey) String() string { return "Time Source" }

// nodeKey wraps a node that is already known, e.g. one found by the
// resolver.
type nodeKey struct {
	node depsnode.Node
}

func (k nodeKey) find(*Builder) depsnode.Node { return k.node }

func (k nodeKey) String() string {
	if k.node == nil {
		return "<nil>"
	}
	return k.node.String()
}

func entityName(e scene.Entity) string {
	if e == nil {
		return "<nil>"
	}
	return e.DataID().Key()
}

// exitOf returns the node relations leaving n attach to.
func exitOf(n depsnode.Node) depsnode.Node {
	if c, ok := n.(*depsnode.ComponentNode); ok {
		if op := c.Exit(); op != nil {
			return op
		}
		return nil
	}
	return n
}

// entryOf returns the node relations entering n attach to.
func entryOf(n depsnode.Node) depsnode.Node {
	if c, ok := n.(*depsnode.ComponentNode); ok {
		if op := c.Entry(); op != nil {
			return op
		}
		return nil
	}
	return n
}
