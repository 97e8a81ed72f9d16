package depsnode

import (
	"fmt"

	"github.com/tidwall/btree"
)

// ComponentNode is one evaluable aspect of a data-block (its transform, its
// geometry, one bone of its pose). Operations are kept ordered by
// (opcode, name, tag) so that every traversal of a component is
// deterministic.
type ComponentNode struct {
	base

	owner *IDNode
	ops   *btree.BTreeG[*OperationNode]

	entry *OperationNode
	exit  *OperationNode
}

func newComponent(t NodeType, owner *IDNode, name string) *ComponentNode {
	return &ComponentNode{
		base:  base{name: name, typ: t},
		owner: owner,
		ops: btree.NewBTreeG(func(a, b *OperationNode) bool {
			return a.key().less(b.key())
		}),
	}
}

// Owner returns the data-block node the component belongs to.
func (c *ComponentNode) Owner() *IDNode { return c.owner }

func (c *ComponentNode) String() string {
	ownerName := ""
	if c.owner != nil {
		ownerName = c.owner.Name()
	}
	if c.name == "" {
		return fmt.Sprintf("%s/%s", ownerName, TypeInfo(c.typ).Name)
	}
	return fmt.Sprintf("%s/%s[%s]", ownerName, TypeInfo(c.typ).Name, c.name)
}

// FindOperation looks up an operation by its identity.
func (c *ComponentNode) FindOperation(opcode OperationCode, name string, tag int) (*OperationNode, bool) {
	probe := &OperationNode{base: base{name: name}, Opcode: opcode, Tag: tag}
	return c.ops.Get(probe)
}

// AddOperation returns the operation with the given identity, creating it
// when missing. An existing operation keeps its callback unless it had none.
func (c *ComponentNode) AddOperation(eval EvalFunc, opcode OperationCode, name string, tag int) *OperationNode {
	if op, ok := c.FindOperation(opcode, name, tag); ok {
		if op.Evaluate == nil {
			op.Evaluate = eval
		}
		return op
	}
	n, _ := Create(NodeOperation, c, name)
	op := n.(*OperationNode)
	op.Opcode = opcode
	op.Tag = tag
	op.Evaluate = eval
	c.ops.Set(op)
	return op
}

// RemoveOperation detaches op from the component. Relations of op are left
// untouched.
func (c *ComponentNode) RemoveOperation(op *OperationNode) bool {
	if op.owner != c {
		return false
	}
	if _, ok := c.ops.Delete(op); !ok {
		return false
	}
	if c.entry == op {
		c.entry = nil
	}
	if c.exit == op {
		c.exit = nil
	}
	op.owner = nil
	return true
}

// Operations returns the component's operations in key order.
func (c *ComponentNode) Operations() []*OperationNode {
	return c.ops.Items()
}

// Len returns the number of operations.
func (c *ComponentNode) Len() int { return c.ops.Len() }

// SetEntry marks op as the component's entry operation.
func (c *ComponentNode) SetEntry(op *OperationNode) {
	if c.entry != nil {
		c.entry.Flags &^= OpFlagEntry
	}
	op.Flags |= OpFlagEntry
	c.entry = op
}

// SetExit marks op as the component's exit operation.
func (c *ComponentNode) SetExit(op *OperationNode) {
	if c.exit != nil {
		c.exit.Flags &^= OpFlagExit
	}
	op.Flags |= OpFlagExit
	c.exit = op
}

// Entry returns the operation that relations into the component attach to:
// the explicit entry, else the only operation. It is nil when the component
// has several operations and no explicit entry.
func (c *ComponentNode) Entry() *OperationNode {
	if c.entry != nil {
		return c.entry
	}
	if c.ops.Len() == 1 {
		op, _ := c.ops.Min()
		return op
	}
	return nil
}

// Exit mirrors Entry for relations leaving the component.
func (c *ComponentNode) Exit() *OperationNode {
	if c.exit != nil {
		return c.exit
	}
	if c.ops.Len() == 1 {
		op, _ := c.ops.Min()
		return op
	}
	return nil
}
