package depsnode

import (
	"github.com/tidwall/btree"

	"github.com/vk/evalgraph/internal/scene"
)

// IDNode wraps one authoritative data-block. It owns the components of the
// data-block and its copy-on-eval mirror.
type IDNode struct {
	base

	Orig   scene.Entity
	mirror scene.Entity

	components *btree.BTreeG[*ComponentNode]

	// Referenced is set when the current build pass touched the node.
	Referenced bool
	// DirectlyVisible is set for data-blocks reachable from a visible object.
	DirectlyVisible bool
}

func newIDNode(orig scene.Entity, name string) *IDNode {
	return &IDNode{
		base: base{name: name, typ: NodeIDRef},
		Orig: orig,
		components: btree.NewBTreeG(func(a, b *ComponentNode) bool {
			if a.typ != b.typ {
				return a.typ < b.typ
			}
			return a.name < b.name
		}),
	}
}

// NewIDNode creates the node for an authoritative data-block.
func NewIDNode(orig scene.Entity) *IDNode {
	n, _ := Create(NodeIDRef, nil, orig.DataID().Key())
	id := n.(*IDNode)
	id.Orig = orig
	return id
}

// IDType returns the type of the wrapped data-block.
func (n *IDNode) IDType() scene.IDType {
	return n.Orig.DataID().Type
}

// Mirror returns the copy-on-eval mirror, or nil before ExpandMirror.
func (n *IDNode) Mirror() scene.Entity { return n.mirror }

// ExpandMirror creates the mirror on first call and returns it.
func (n *IDNode) ExpandMirror() scene.Entity {
	if n.mirror == nil {
		n.mirror = n.Orig.CopyForEval()
	}
	return n.mirror
}

// ReleaseMirror drops the mirror.
func (n *IDNode) ReleaseMirror() {
	n.mirror = nil
}

// FindComponent looks up a component by type and sub-name.
func (n *IDNode) FindComponent(t NodeType, name string) (*ComponentNode, bool) {
	probe := &ComponentNode{base: base{name: name, typ: t}}
	return n.components.Get(probe)
}

// AddComponent returns the component with the given identity, creating it
// when missing. Only component types are accepted.
func (n *IDNode) AddComponent(t NodeType, name string) (*ComponentNode, error) {
	if c, ok := n.FindComponent(t, name); ok {
		return c, nil
	}
	node, err := Create(t, n, name)
	if err != nil {
		return nil, err
	}
	c, ok := node.(*ComponentNode)
	if !ok {
		return nil, &TypeError{Type: t, Want: ClassComponent}
	}
	n.components.Set(c)
	return c, nil
}

// Components returns the components ordered by (type, name).
func (n *IDNode) Components() []*ComponentNode {
	return n.components.Items()
}

// ClearComponents forgets every component.
func (n *IDNode) ClearComponents() {
	n.components.Clear()
}
